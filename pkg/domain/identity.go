package domain

import (
	"strconv"
	"strings"

	dErrors "fundmatch/pkg/domain-errors"
)

// Identity is an opaque principal identifier (the authenticated subject of a
// request). The engine never interprets identities beyond equality checks;
// authentication of the caller is the transport layer's problem.
type Identity string

// CampaignID is the monotonic campaign counter value assigned at creation.
type CampaignID uint64

const maxIdentityLen = 128

// ParseIdentity validates an identity at a trust boundary.
//
// Invariant: identities are non-empty, have no surrounding whitespace, and are
// bounded in length. Everything else is opaque.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	if strings.TrimSpace(s) != s {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity must not contain surrounding whitespace")
	}
	if len(s) > maxIdentityLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity exceeds maximum length")
	}
	return Identity(s), nil
}

func (i Identity) String() string { return string(i) }

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool { return i == "" }

func (id CampaignID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseCampaignID parses a decimal campaign id at a trust boundary.
func ParseCampaignID(s string) (CampaignID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid campaign id")
	}
	return CampaignID(v), nil
}
