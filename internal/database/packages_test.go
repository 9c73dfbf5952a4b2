package database

import (
	"context"
	"testing"

	"coachly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPackage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pkg := &models.Package{
		CoachID:      1,
		Name:         "Starter pack",
		SessionCount: 5,
		PriceCents:   9900,
		IsActive:     true,
	}
	require.NoError(t, db.CreatePackage(ctx, pkg))
	require.NotZero(t, pkg.ID)

	got, err := db.GetPackage(ctx, pkg.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Starter pack", got.Name)
	assert.Equal(t, int64(9900), got.PriceCents)
}

func TestGetPackageNotFoundCases(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	inactive := &models.Package{CoachID: 1, Name: "Retired", SessionCount: 1, PriceCents: 100, IsActive: false}
	require.NoError(t, db.CreatePackage(ctx, inactive))

	active := &models.Package{CoachID: 1, Name: "Live", SessionCount: 1, PriceCents: 100, IsActive: true}
	require.NoError(t, db.CreatePackage(ctx, active))

	_, err := db.GetPackage(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrPackageNotFound, "missing package")

	_, err = db.GetPackage(ctx, inactive.ID, 1)
	assert.ErrorIs(t, err, ErrPackageNotFound, "inactive package")

	_, err = db.GetPackage(ctx, active.ID, 2)
	assert.ErrorIs(t, err, ErrPackageNotFound, "package owned by a different coach")
}
