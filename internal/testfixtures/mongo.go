// Package testfixtures starts the datastores the integration tests run
// against.
package testfixtures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testcontainersmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
)

const (
	mongoImage = "mongo:7"
)

// RunMongoContainer runs a MongoDB container for the lifetime of t and returns
// its connection URI. t is skipped when no Docker daemon is reachable.
func RunMongoContainer(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	mongoContainer, err := testcontainersmongodb.Run(ctx, mongoImage)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, mongoContainer.Terminate(context.Background())) })

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	return uri
}
