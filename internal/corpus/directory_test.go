package corpus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T, remote *fakeRemote) *Directory {
	t.Helper()
	return NewDirectory(remote, newTestLedger(t))
}

func TestResolveCanonical_PicksGreatestDocumentCount(t *testing.T) {
	remote := newFakeRemote()
	remote.addStore("corpus", 5)
	winner := remote.addStore("corpus", 12)
	remote.addStore("corpus", 3)

	dir := newTestDirectory(t, remote)

	canonical, err := dir.ResolveCanonical(context.Background(), "corpus")
	require.NoError(t, err)
	require.NotNil(t, canonical)
	assert.Equal(t, winner.StoreID, canonical.StoreID)
	assert.Equal(t, 12, canonical.ActiveDocumentCount)
}

func TestResolveCanonical_NoMatch(t *testing.T) {
	remote := newFakeRemote()
	remote.addStore("other", 4)

	dir := newTestDirectory(t, remote)

	canonical, err := dir.ResolveCanonical(context.Background(), "corpus")
	require.NoError(t, err)
	assert.Nil(t, canonical)
}

func TestResolveCanonical_TieBreaksFirstEncountered(t *testing.T) {
	remote := newFakeRemote()
	first := remote.addStore("corpus", 7)
	remote.addStore("corpus", 7)

	dir := newTestDirectory(t, remote)

	canonical, err := dir.ResolveCanonical(context.Background(), "corpus")
	require.NoError(t, err)
	assert.Equal(t, first.StoreID, canonical.StoreID)
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	remote := newFakeRemote()
	dir := newTestDirectory(t, remote)
	ctx := context.Background()

	store1, isNew, err := dir.GetOrCreate(ctx, "corpus")
	require.NoError(t, err)
	assert.True(t, isNew)

	store2, isNew, err := dir.GetOrCreate(ctx, "corpus")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, store1.StoreID, store2.StoreID)
}

func TestGetOrCreate_DeletesNonCanonicalDuplicates(t *testing.T) {
	remote := newFakeRemote()
	loser1 := remote.addStore("corpus", 5)
	winner := remote.addStore("corpus", 12)
	loser2 := remote.addStore("corpus", 3)

	dir := newTestDirectory(t, remote)

	store, isNew, err := dir.GetOrCreate(context.Background(), "corpus")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, winner.StoreID, store.StoreID)
	assert.ElementsMatch(t, []string{loser1.StoreID, loser2.StoreID}, remote.DeletedIDs)

	remaining, err := dir.FindByDisplayName(context.Background(), "corpus")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}

func TestReconcileDuplicates_Converges(t *testing.T) {
	remote := newFakeRemote()
	remote.addStore("corpus", 5)
	winner := remote.addStore("corpus", 12)
	remote.addStore("corpus", 3)

	dir := newTestDirectory(t, remote)

	report, err := dir.ReconcileDuplicates(context.Background(), "corpus")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Found)
	assert.Equal(t, 2, report.Deleted)
	assert.Equal(t, winner.StoreID, report.KeptID)

	remaining, err := dir.FindByDisplayName(context.Background(), "corpus")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, winner.StoreID, remaining[0].StoreID)
}

func TestDelete_ClearsLedgerEntry(t *testing.T) {
	remote := newFakeRemote()
	store := remote.addStore("corpus", 2)

	ledger := newTestLedger(t)
	require.NoError(t, ledger.RecordSuccess(store.StoreID, "a.txt"))

	dir := NewDirectory(remote, ledger)
	require.NoError(t, dir.Delete(context.Background(), store.StoreID))

	uploaded, err := ledger.ListUploaded(store.StoreID)
	require.NoError(t, err)
	assert.Equal(t, 0, uploaded.Cardinality())
}

func TestInspect_FlagsDuplicateGroups(t *testing.T) {
	remote := newFakeRemote()
	remote.addStore("corpus", 5)
	remote.addStore("corpus", 12)
	remote.addStore("scratch", 1)

	dir := newTestDirectory(t, remote)

	groups, err := dir.Inspect(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byName := map[string]*StoreGroup{}
	for _, g := range groups {
		byName[g.DisplayName] = g
	}
	assert.True(t, byName["corpus"].Duplicate)
	assert.Len(t, byName["corpus"].Stores, 2)
	assert.False(t, byName["scratch"].Duplicate)
}
