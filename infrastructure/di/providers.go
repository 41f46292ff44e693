package di

import (
	"context"
	"fmt"
	"net/http"

	"booklib-backend/application/ports"
	"booklib-backend/application/services"
	"booklib-backend/infrastructure/config"
	"booklib-backend/infrastructure/metadata/googlebooks"
	dynamostore "booklib-backend/infrastructure/persistence/dynamodb"
	sqlitestore "booklib-backend/infrastructure/persistence/sqlite"
	sqsqueue "booklib-backend/infrastructure/queue/sqs"
	"booklib-backend/interfaces/http/rest"
	"booklib-backend/pkg/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideSQSClient creates an SQS client
func ProvideSQSClient(awsCfg aws.Config) *awssqs.Client {
	return awssqs.NewFromConfig(awsCfg)
}

// ProvideStore selects the persistence backend from configuration. The
// cleanup function closes whatever resources the backend holds.
func ProvideStore(
	cfg *config.Config,
	client *awsdynamodb.Client,
	logger *zap.Logger,
) (ports.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		store, err := sqlitestore.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}
		return store, cleanup, nil

	case config.BackendDynamoDB:
		store := dynamostore.NewStore(client, dynamostore.Tables{
			Users:     cfg.UsersTable,
			Books:     cfg.BooksTable,
			UserBooks: cfg.UserBooksTable,
		}, logger)
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// ProvideMetadataProvider creates the Google Books lookup client
func ProvideMetadataProvider(cfg *config.Config, logger *zap.Logger) ports.MetadataProvider {
	return googlebooks.NewClient(cfg.GoogleBooksAPIURL, cfg.GoogleBooksAPIKey, logger)
}

// ProvideMetadataService creates the metadata enrichment service
func ProvideMetadataService(
	store ports.Store,
	provider ports.MetadataProvider,
	logger *zap.Logger,
) *services.MetadataService {
	return services.NewMetadataService(store, provider, logger)
}

// ProvideDispatcher selects how fetch requests are dispatched. With a
// queue configured they go to SQS for the worker; otherwise they run on
// a background goroutine in this process.
func ProvideDispatcher(
	cfg *config.Config,
	client *awssqs.Client,
	metadata *services.MetadataService,
	logger *zap.Logger,
) ports.MetadataDispatcher {
	if cfg.MetadataQueueURL != "" {
		return sqsqueue.NewPublisher(client, cfg.MetadataQueueURL, logger)
	}
	return services.NewInlineDispatcher(metadata, cfg.FetchTimeout, logger)
}

// ProvideAccountService creates the account service
func ProvideAccountService(store ports.Store, logger *zap.Logger) *services.AccountService {
	return services.NewAccountService(store, logger)
}

// ProvideLibraryService creates the library service
func ProvideLibraryService(
	store ports.Store,
	dispatcher ports.MetadataDispatcher,
	logger *zap.Logger,
) *services.LibraryService {
	return services.NewLibraryService(store, dispatcher, logger)
}

// ProvideSessionManager creates the session token manager
func ProvideSessionManager(cfg *config.Config) *auth.SessionManager {
	return auth.NewSessionManager(cfg.SessionSecret, cfg.SessionIssuer, cfg.SessionTTL)
}

// ProvideHandler assembles the HTTP routing surface
func ProvideHandler(
	accounts *services.AccountService,
	library *services.LibraryService,
	sessions *auth.SessionManager,
	cfg *config.Config,
	logger *zap.Logger,
) http.Handler {
	return rest.NewRouter(accounts, library, sessions, logger, cfg.EnableCORS).Setup()
}
