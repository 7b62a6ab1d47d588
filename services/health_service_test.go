package services_test

import (
	"context"
	"testing"

	"newsletter_server/services"
	"newsletter_server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthService_Database(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hs := services.NewHealthService(testutil.NewTestLogger(), db, nil)

	status, err := hs.GetDatabaseHealthStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.GreaterOrEqual(t, status.OpenConns, 1)
}

func TestHealthService_Server(t *testing.T) {
	hs := services.NewHealthService(testutil.NewTestLogger(), nil, nil)

	status := hs.GetServerHealthStatus()
	assert.True(t, status.ServiceAlive)
	assert.NotNil(t, status.RamStats)
}
