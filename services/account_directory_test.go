package services_test

import (
	"context"
	"errors"
	"testing"

	"newsletter_server/services"
	"newsletter_server/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapNameCache struct {
	names  map[uuid.UUID]string
	getErr error
	sets   int
}

func (c *mapNameCache) GetCompanyName(ctx context.Context, id uuid.UUID) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	return c.names[id], nil
}

func (c *mapNameCache) SetCompanyName(ctx context.Context, id uuid.UUID, name string) error {
	c.sets++
	c.names[id] = name
	return nil
}

func TestBunAccountDirectory_FindUserByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	company := testutil.CreateTestCompany(t, db, "Acme")
	user := testutil.CreateTestUser(t, db, "user@example.com", company)
	directory := services.NewBunAccountDirectory(testutil.NewTestLogger(), db, nil)
	ctx := context.Background()

	found, err := directory.FindUserByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.Id, found.Id)
	require.NotNil(t, found.CompanyId)
	assert.Equal(t, company.Id, *found.CompanyId)

	missing, err := directory.FindUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBunAccountDirectory_FindCompanyName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	company := testutil.CreateTestCompany(t, db, "Acme")
	cache := &mapNameCache{names: map[uuid.UUID]string{}}
	directory := services.NewBunAccountDirectory(testutil.NewTestLogger(), db, cache)
	ctx := context.Background()

	name, err := directory.FindCompanyName(ctx, company.Id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", name)
	assert.Equal(t, 1, cache.sets)

	// served from cache the second time
	name, err = directory.FindCompanyName(ctx, company.Id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", name)
	assert.Equal(t, 1, cache.sets)

	name, err = directory.FindCompanyName(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestBunAccountDirectory_CacheErrorFallsBackToDatabase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	company := testutil.CreateTestCompany(t, db, "Acme")
	cache := &mapNameCache{names: map[uuid.UUID]string{}, getErr: errors.New("redis down")}
	directory := services.NewBunAccountDirectory(testutil.NewTestLogger(), db, cache)

	name, err := directory.FindCompanyName(context.Background(), company.Id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", name)
}
