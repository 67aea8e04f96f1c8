package rollback_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainrollback "github.com/flowforge/streamline/internal/domain/rollback"
	"github.com/flowforge/streamline/internal/infrastructure/rollback"
)

type fakeEntities struct {
	store map[string]map[string]any
	seq   int
}

func newFakeEntities() *fakeEntities {
	return &fakeEntities{store: make(map[string]map[string]any)}
}

func (f *fakeEntities) key(entityType, id string) string { return entityType + ":" + id }

func (f *fakeEntities) FindOne(_ context.Context, _, _ string, _ any) (map[string]any, bool, error) {
	return nil, false, nil
}

func (f *fakeEntities) FindAll(_ context.Context, _, _ string, _ any) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeEntities) Create(_ context.Context, entityType string, fields map[string]any) (string, error) {
	f.seq++
	id := fields["id"]
	idStr, _ := id.(string)
	if idStr == "" {
		idStr = entityType + "-restored"
	}
	f.store[f.key(entityType, idStr)] = fields
	return idStr, nil
}

func (f *fakeEntities) Update(_ context.Context, entityType, id string, fields map[string]any) error {
	f.store[f.key(entityType, id)] = fields
	return nil
}

func (f *fakeEntities) Delete(_ context.Context, entityType, id string) error {
	delete(f.store, f.key(entityType, id))
	return nil
}

func (f *fakeEntities) Get(_ context.Context, entityType, id string) (map[string]any, bool, error) {
	v, ok := f.store[f.key(entityType, id)]
	return v, ok, nil
}

// Batch creates 3 entities then fails updating a 4th: rollback replays in
// reverse, deletes the 3 created, result {rolled:3, failed:0}.
func TestRollback_UndoesCreatesInReverseOrder(t *testing.T) {
	entities := newFakeEntities()
	svc := rollback.NewService(entities, time.Hour)
	ctx := context.Background()

	txID := svc.Begin(ctx)
	for i := 1; i <= 3; i++ {
		id := entityIDFor(i)
		_, err := entities.Create(ctx, "product", map[string]any{"id": id})
		require.NoError(t, err)
		require.NoError(t, svc.Append(ctx, txID, domainrollback.Entry{
			Type:       domainrollback.OpCreate,
			EntityType: "product",
			EntityID:   id,
		}))
	}

	rolled, err := svc.Rollback(ctx, txID)
	require.NoError(t, err)
	assert.Equal(t, 3, rolled)

	for i := 1; i <= 3; i++ {
		_, found, _ := entities.Get(ctx, "product", entityIDFor(i))
		assert.False(t, found)
	}

	tx, ok := svc.Transaction(ctx, txID)
	require.True(t, ok)
	assert.Equal(t, domainrollback.StatusRolledBack, tx.Status)
}

func TestRollback_RestoresPreviousStateOnUpdate(t *testing.T) {
	entities := newFakeEntities()
	svc := rollback.NewService(entities, time.Hour)
	ctx := context.Background()

	require.NoError(t, entities.Update(ctx, "product", "p1", map[string]any{"name": "original"}))

	txID := svc.Begin(ctx)
	require.NoError(t, entities.Update(ctx, "product", "p1", map[string]any{"name": "changed"}))
	require.NoError(t, svc.Append(ctx, txID, domainrollback.Entry{
		Type:          domainrollback.OpUpdate,
		EntityType:    "product",
		EntityID:      "p1",
		PreviousState: map[string]any{"name": "original"},
		NewState:      map[string]any{"name": "changed"},
	}))

	rolled, err := svc.Rollback(ctx, txID)
	require.NoError(t, err)
	assert.Equal(t, 1, rolled)

	restored, found, _ := entities.Get(ctx, "product", "p1")
	require.True(t, found)
	assert.Equal(t, "original", restored["name"])
}

func TestSweep_RemovesTerminalAndExpiredTransactions(t *testing.T) {
	entities := newFakeEntities()
	svc := rollback.NewService(entities, time.Millisecond)
	ctx := context.Background()

	txID := svc.Begin(ctx)
	require.NoError(t, svc.Commit(ctx, txID))

	time.Sleep(2 * time.Millisecond)
	removed := svc.Sweep()
	assert.Equal(t, 1, removed)

	_, ok := svc.Transaction(ctx, txID)
	assert.False(t, ok)
}

func entityIDFor(i int) string {
	return [...]string{"", "p1", "p2", "p3"}[i]
}
