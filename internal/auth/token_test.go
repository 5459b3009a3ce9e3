package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftgate/shiftgate/internal/shared"
)

func TestIssueAndVerify(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	now := time.Now()

	token, exp, err := tm.Issue(shared.Identity{UserID: 7, Role: shared.RoleCareWorker, ManagerID: 2}, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	id, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.UserID)
	assert.Equal(t, shared.RoleCareWorker, id.Role)
	assert.Equal(t, int64(2), id.ManagerID)
}

func TestVerifyManagerWithoutManagerClaim(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, _, err := tm.Issue(shared.Identity{UserID: 2, Role: shared.RoleManager}, time.Now())
	require.NoError(t, err)

	id, err := tm.Verify(token)
	require.NoError(t, err)
	assert.True(t, id.IsManager())
	assert.Zero(t, id.ManagerID)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)

	token, _, err := tm.Issue(shared.Identity{UserID: 7, Role: shared.RoleCareWorker}, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, _, err := issuer.Issue(shared.Identity{UserID: 7, Role: shared.RoleCareWorker}, time.Now())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	_, err := tm.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
