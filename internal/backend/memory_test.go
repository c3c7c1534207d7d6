package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogsync/internal/resource"
)

func newCategories(t *testing.T, drafts ...resource.CategoryDraft) *Memory[resource.CategoryDraft, resource.Category] {
	t.Helper()
	m := NewMemory(CategoryModel())
	for _, d := range drafts {
		_, err := m.Create(context.Background(), d)
		require.NoError(t, err)
	}
	return m
}

func TestMemory_CreateAndFetch(t *testing.T) {
	ctx := context.Background()
	m := newCategories(t)

	created, err := m.Create(ctx, resource.CategoryDraft{Key: "shoes", Name: resource.LocalizedString{"en": "Shoes"}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)

	got, ok, err := m.FetchByKey(ctx, "shoes")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created, got)

	_, ok, err = m.FetchByKey(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := m.FetchIDsByKeys(ctx, []string{"shoes", "absent"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"shoes": created.ID}, ids)
}

func TestMemory_CreateRejectsDuplicateAndBlankKeys(t *testing.T) {
	ctx := context.Background()
	m := newCategories(t, resource.CategoryDraft{Key: "shoes"})

	_, err := m.Create(ctx, resource.CategoryDraft{Key: "shoes"})
	assert.True(t, IsValidation(err))

	_, err = m.Create(ctx, resource.CategoryDraft{})
	assert.True(t, IsValidation(err))
}

func TestMemory_UpdateBumpsVersion(t *testing.T) {
	ctx := context.Background()
	m := newCategories(t, resource.CategoryDraft{Key: "shoes", OrderHint: "0.1"})
	existing, _, _ := m.FetchByKey(ctx, "shoes")

	updated, err := m.Update(ctx, existing, []resource.Action{resource.ChangeOrderHint{OrderHint: "0.2"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "0.2", updated.OrderHint)
	assert.Equal(t, existing.ID, updated.ID)
	assert.Equal(t, "0.1", existing.OrderHint, "caller's copy is untouched")
}

func TestMemory_UpdateWithStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	m := newCategories(t, resource.CategoryDraft{Key: "shoes", OrderHint: "0.1"})
	stale, _, _ := m.FetchByKey(ctx, "shoes")

	_, err := m.Update(ctx, stale, []resource.Action{resource.ChangeOrderHint{OrderHint: "0.2"}})
	require.NoError(t, err)

	_, err = m.Update(ctx, stale, []resource.Action{resource.ChangeOrderHint{OrderHint: "0.3"}})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, int64(1), ce.ExpectedVersion)
	assert.Equal(t, int64(2), ce.ActualVersion)
	assert.True(t, IsConflict(err))
}

func TestMemory_UpdateUnknownEntity(t *testing.T) {
	m := newCategories(t)
	ghost := resource.NewCategory("id-1", 1, resource.CategoryDraft{Key: "ghost"})

	_, err := m.Update(context.Background(), ghost, nil)
	assert.True(t, IsNotFound(err))
}

func TestMemory_UpdateRejectedActionIsValidationError(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(ProductTypeModel())
	existing, err := m.Create(ctx, resource.ProductTypeDraft{Key: "shirt", Name: "Shirt"})
	require.NoError(t, err)

	_, err = m.Update(ctx, existing, []resource.Action{resource.RemoveAttributeDefinition{Name: "missing"}})
	assert.True(t, IsValidation(err))
}

func TestMemory_SnapshotAndLoad(t *testing.T) {
	m := newCategories(t, resource.CategoryDraft{Key: "b"}, resource.CategoryDraft{Key: "a"})

	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].Key)
	assert.Equal(t, "b", snap[1].Key)

	other := NewMemory(CategoryModel())
	other.Load(snap)
	assert.Equal(t, snap, other.Snapshot())
}

func TestLookup_AdaptsService(t *testing.T) {
	m := newCategories(t, resource.CategoryDraft{Key: "a"})
	var svc Service[resource.CategoryDraft, resource.Category] = m

	ids, err := Lookup(svc).FetchIDsByKeys(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestMemory_FetchByID(t *testing.T) {
	m := newCategories(t, resource.CategoryDraft{Key: "a"})
	created, _, _ := m.FetchByKey(context.Background(), "a")

	got, ok, err := m.FetchByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", got.Key)

	_, ok, err = m.FetchByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaticLookup(t *testing.T) {
	lookup := StaticLookup{"standard": "tax-1"}

	ids, err := lookup.FetchIDsByKeys(context.Background(), []string{"standard", "reduced"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"standard": "tax-1"}, ids)
}
