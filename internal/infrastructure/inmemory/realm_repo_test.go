package inmemory

import (
	"context"
	"testing"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealmRepository_AddWithinEdge_LocationMembershipIsPlain(t *testing.T) {
	repo := NewRealmRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.Realm{ID: "realm-1", Name: "Whisperwood"}))
	assert.NoError(t, repo.AddWithinEdge(ctx, "loc-1", "realm-1"))

	realms, err := repo.ListRealmsFor(ctx, "loc-1")
	require.NoError(t, err)
	require.Len(t, realms, 1)
	assert.Equal(t, "realm-1", realms[0].ID)
}

func TestRealmRepository_AddWithinEdge_RealmCycleRejected(t *testing.T) {
	repo := NewRealmRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.Realm{ID: "parent", Name: "Outer"}))
	require.NoError(t, repo.Upsert(ctx, &domain.Realm{ID: "child", Name: "Inner"}))

	require.NoError(t, repo.AddWithinEdge(ctx, "parent", "child"))

	err := repo.AddWithinEdge(ctx, "child", "parent")
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, domain.CodeConflict, appErr.Code)
}

func TestRealmRepository_ListRealmsFor_WalksNestedChain(t *testing.T) {
	repo := NewRealmRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.Realm{ID: "outer", Name: "Outer"}))
	require.NoError(t, repo.Upsert(ctx, &domain.Realm{ID: "inner", Name: "Inner"}))

	require.NoError(t, repo.AddWithinEdge(ctx, "inner", "outer"))
	require.NoError(t, repo.AddWithinEdge(ctx, "loc-1", "inner"))

	realms, err := repo.ListRealmsFor(ctx, "loc-1")
	require.NoError(t, err)
	require.Len(t, realms, 2)
	assert.Equal(t, "inner", realms[0].ID)
	assert.Equal(t, "outer", realms[1].ID)
}
