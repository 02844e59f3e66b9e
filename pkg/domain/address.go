package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Address is a deterministic, content-derived record identifier. Records are
// located by address rather than by object reference: any caller that knows an
// entity's namespace and key fields can compute where it lives without
// traversing state.
//
// Derivation is a pure function with no storage access, and is collision-free
// across distinct (namespace, parts) tuples because every component is
// length-prefixed before hashing.
type Address [32]byte

// Record namespaces. One namespace per entity kind; composite keys are
// appended as derivation parts.
const (
	nsPlatform    = "platform"
	nsCampaign    = "campaign"
	nsVault       = "vault"
	nsVaultAuth   = "vault_auth"
	nsDonation    = "donation"
	nsHolding     = "holding"
	nsPlatformFee = "platform_fee"
)

// Derive computes the address for a namespace and key parts.
func Derive(namespace string, parts ...[]byte) Address {
	h := sha256.New()
	writePart(h, []byte(namespace))
	for _, p := range parts {
		writePart(h, p)
	}
	var addr Address
	h.Sum(addr[:0])
	return addr
}

func writePart(h interface{ Write([]byte) (int, error) }, p []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(p)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(p)
}

func (a Address) String() string { return hex.EncodeToString(a[:]) }

// ParseAddress decodes the hex form produced by String.
func ParseAddress(s string) (Address, error) {
	var addr Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return addr, fmt.Errorf("malformed address %q: %w", s, err)
	}
	if len(b) != len(addr) {
		return addr, fmt.Errorf("malformed address %q: want %d bytes, got %d", s, len(addr), len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

// Bytes returns the raw address for use as a derivation part.
func (a Address) Bytes() []byte { return a[:] }

func u64Part(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// PlatformAddress locates the singleton platform record.
func PlatformAddress() Address {
	return Derive(nsPlatform)
}

// CampaignAddress locates a campaign record by its id.
func CampaignAddress(id CampaignID) Address {
	return Derive(nsCampaign, u64Part(uint64(id)))
}

// VaultAddress locates the escrow account for a campaign.
func VaultAddress(id CampaignID) Address {
	return Derive(nsVault, CampaignAddress(id).Bytes())
}

// VaultAuthority derives the capability that authorizes debits against a
// campaign vault. Only settlement code paths may derive and present it.
func VaultAuthority(id CampaignID) Address {
	return Derive(nsVaultAuth, CampaignAddress(id).Bytes())
}

// DonationAddress locates a donation record by campaign, donor, and the
// campaign's donor sequence number at donation time.
func DonationAddress(id CampaignID, donor Identity, sequence uint64) Address {
	return Derive(nsDonation, CampaignAddress(id).Bytes(), []byte(donor), u64Part(sequence))
}

// HoldingAddress locates an identity's holding account.
func HoldingAddress(owner Identity) Address {
	return Derive(nsHolding, []byte(owner))
}

// HoldingAuthority derives the capability that authorizes debits against an
// identity's holding account. The service derives it from the authenticated
// caller, so only the owner's own requests can spend from it.
func HoldingAuthority(owner Identity) Address {
	return Derive(nsVaultAuth, HoldingAddress(owner).Bytes())
}

// PlatformFeeAddress locates the platform's fee-collection account.
func PlatformFeeAddress() Address {
	return Derive(nsPlatformFee)
}
