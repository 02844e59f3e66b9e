package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeGoalNotReached, "goal not reached")
		assert.True(t, HasCode(err, CodeGoalNotReached))
		assert.False(t, HasCode(err, CodeAlreadyWithdrawn))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("donate: %w", New(CodeInvalidDonationAmount, "Invalid donation amount"))
		assert.True(t, HasCode(err, CodeInvalidDonationAmount))
	})

	t.Run("uncoded error has no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil in nil out", func(t *testing.T) {
		require.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("preserves cause chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "failed to load campaign")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CodeInternal, CodeOf(err))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeUnauthorized, CodeOf(New(CodeUnauthorized, "caller is not the platform admin")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidDonationAmount, http.StatusBadRequest},
		{CodeInvalidGoal, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyInitialized, http.StatusConflict},
		{CodeAlreadyWithdrawn, http.StatusConflict},
		{CodeGoalNotReached, http.StatusConflict},
		{CodeInsufficientFunds, http.StatusUnprocessableEntity},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToHTTPStatus(tc.code), string(tc.code))
	}
}
