package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestCategoryCreateConflicts(t *testing.T) {
	fx := newFixture(t)
	svc := NewCategoryService(fx.repo, testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, core.Category{Name: "Hobby", UserID: fx.user.ID})
	require.NoError(t, err)
	assert.False(t, created.IsDefault)

	_, err = svc.Create(ctx, core.Category{Name: "Hobby", UserID: fx.user.ID})
	assert.ErrorIs(t, err, core.ErrConflict)

	// another user may reuse the name
	other, err := fx.repo.CreateUser(ctx, core.User{Username: "luigi", Email: "luigi@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, core.Category{Name: "Hobby", UserID: other.ID})
	assert.NoError(t, err)
}

func TestDefaultCategoriesAreReadOnly(t *testing.T) {
	fx := newFixture(t)
	svc := NewCategoryService(fx.repo, testLogger())
	ctx := context.Background()

	cats, err := svc.List(ctx, fx.user.ID)
	require.NoError(t, err)

	var def core.Category
	for _, c := range cats {
		if c.IsDefault {
			def = c
			break
		}
	}
	require.NotZero(t, def.ID, "expected a seeded default category")

	// defaults are readable
	got, err := svc.Get(ctx, fx.user.ID, def.ID)
	require.NoError(t, err)
	assert.Equal(t, def.Name, got.Name)

	def.UserID = fx.user.ID
	def.Name = "renamed"
	_, err = svc.Update(ctx, def)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = svc.Delete(ctx, fx.user.ID, def.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestCategoryUpdateRenameCollision(t *testing.T) {
	fx := newFixture(t)
	svc := NewCategoryService(fx.repo, testLogger())
	ctx := context.Background()

	a, err := svc.Create(ctx, core.Category{Name: "Alpha", UserID: fx.user.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, core.Category{Name: "Beta", UserID: fx.user.ID})
	require.NoError(t, err)

	a.Name = "Beta"
	_, err = svc.Update(ctx, a)
	assert.ErrorIs(t, err, core.ErrConflict)

	// keeping the same name is not a collision
	a.Name = "Alpha"
	a.Description = "updated"
	updated, err := svc.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Description)
}
