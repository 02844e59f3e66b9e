package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundmatch/pkg/domain"
)

func TestValidateToken(t *testing.T) {
	v := NewValidator("unit-test-key")

	t.Run("round trip preserves subject", func(t *testing.T) {
		tok, err := v.Issue(domain.Identity("donor-1"), time.Minute)
		require.NoError(t, err)

		claims, err := v.ValidateToken(tok)
		require.NoError(t, err)
		assert.Equal(t, domain.Identity("donor-1"), claims.Caller)
	})

	t.Run("rejects token signed with another key", func(t *testing.T) {
		other := NewValidator("different-key")
		tok, err := other.Issue(domain.Identity("donor-1"), time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(tok)
		require.Error(t, err)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		tok, err := v.Issue(domain.Identity("donor-1"), -time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(tok)
		require.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := v.ValidateToken("not.a.token")
		require.Error(t, err)
	})
}
