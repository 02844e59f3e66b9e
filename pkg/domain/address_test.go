package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDerive_Determinism validates the derivation invariant:
// "same (namespace, parts) tuple always yields the same address".
//
// Justification: this is a pure function enforcing the content-addressing
// contract every store lookup depends on.
func TestDerive_Determinism(t *testing.T) {
	a := Derive("campaign", u64Part(7))
	b := Derive("campaign", u64Part(7))
	assert.Equal(t, a, b)
}

// TestDerive_Distinctness validates that distinct tuples never collide,
// including the boundary-shifting cases a naive concatenation would merge.
func TestDerive_Distinctness(t *testing.T) {
	t.Run("different namespaces differ", func(t *testing.T) {
		assert.NotEqual(t, Derive("vault", u64Part(1)), Derive("vault_auth", u64Part(1)))
	})

	t.Run("different keys differ", func(t *testing.T) {
		assert.NotEqual(t, CampaignAddress(1), CampaignAddress(2))
	})

	t.Run("part boundaries are unambiguous", func(t *testing.T) {
		// "ab"+"c" must not equal "a"+"bc".
		assert.NotEqual(t,
			Derive("donation", []byte("ab"), []byte("c")),
			Derive("donation", []byte("a"), []byte("bc")),
		)
	})

	t.Run("arity matters", func(t *testing.T) {
		assert.NotEqual(t,
			Derive("donation", []byte("x")),
			Derive("donation", []byte("x"), nil),
		)
	})
}

func TestEntityAddresses(t *testing.T) {
	t.Run("donation address keys on campaign, donor, and sequence", func(t *testing.T) {
		base := DonationAddress(3, "alice", 0)
		assert.NotEqual(t, base, DonationAddress(4, "alice", 0))
		assert.NotEqual(t, base, DonationAddress(3, "bob", 0))
		assert.NotEqual(t, base, DonationAddress(3, "alice", 1))
	})

	t.Run("vault authority differs from vault", func(t *testing.T) {
		assert.NotEqual(t, VaultAddress(9), VaultAuthority(9))
	})

	t.Run("holding accounts are per identity", func(t *testing.T) {
		assert.NotEqual(t, HoldingAddress("alice"), HoldingAddress("bob"))
		assert.NotEqual(t, HoldingAddress("alice"), HoldingAuthority("alice"))
	})
}

func TestParseIdentity(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentity("")
		require.Error(t, err)
	})

	t.Run("rejects surrounding whitespace", func(t *testing.T) {
		_, err := ParseIdentity(" alice ")
		require.Error(t, err)
	})

	t.Run("rejects oversized identity", func(t *testing.T) {
		long := make([]byte, maxIdentityLen+1)
		for i := range long {
			long[i] = 'a'
		}
		_, err := ParseIdentity(string(long))
		require.Error(t, err)
	})

	t.Run("accepts opaque subject", func(t *testing.T) {
		id, err := ParseIdentity("donor-7f3a")
		require.NoError(t, err)
		assert.Equal(t, Identity("donor-7f3a"), id)
	})
}
