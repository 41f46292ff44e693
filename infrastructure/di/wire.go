//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"booklib-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideSQSClient,
	ProvideStore,
	ProvideMetadataProvider,
	ProvideMetadataService,
	ProvideDispatcher,
	ProvideAccountService,
	ProvideLibraryService,
	ProvideSessionManager,
	ProvideHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
