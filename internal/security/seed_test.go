package security_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteer-api/internal/db"
	"volunteer-api/internal/models"
	"volunteer-api/internal/security"
	"volunteer-api/internal/testutil"
)

func TestEnsureExecutive(t *testing.T) {
	d := testutil.OpenTestDB(t)
	pool := testutil.NewCountingPool(d)
	ctx := context.Background()

	created, err := security.EnsureExecutive(ctx, pool, "", "whatever-pass", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = security.EnsureExecutive(ctx, pool, "exec@example.com", "short", "", "")
	assert.ErrorIs(t, err, security.ErrWeakPassword)

	created, err = security.EnsureExecutive(ctx, pool, "exec@example.com", "long-enough-pass", "Ada", "")
	require.NoError(t, err)
	assert.True(t, created)
	pool.AssertBalanced(t)

	created, err = security.EnsureExecutive(ctx, pool, "other@example.com", "long-enough-pass", "", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, testutil.Count(t, d, "SELECT COUNT(*) FROM users"))

	testutil.WithConn(t, d, func(c *db.Conn) error {
		u, err := security.Authenticate(ctx, c, security.BcryptVerifier{}, "exec@example.com", "long-enough-pass")
		require.NoError(t, err)
		assert.Equal(t, models.RoleExecutive, u.RoleID)
		assert.Equal(t, "Ada", u.FirstName)
		return nil
	})
	pool.AssertBalanced(t)
}
