package di

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"listacompras/application/services"
	"listacompras/infrastructure/config"
	"listacompras/infrastructure/localstore"
	"listacompras/infrastructure/remote/dynamo"
	"listacompras/infrastructure/remote/httpsync"
	"listacompras/infrastructure/syncstore"
	pkgerrors "listacompras/pkg/errors"
)

// Container holds the application's object graph.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      *localstore.Store
	Backend    *syncstore.Backend
	Collection *services.CollectionService
	Places     *services.PlacesService
}

// InitializeContainer builds the full object graph from configuration.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	store := localstore.New(cfg.DataDir, logger)

	remote, err := ProvideRemoteClient(ctx, cfg, logger)
	if err != nil {
		// Sync must degrade, not abort startup: a misconfigured remote
		// leaves the app fully usable in local-only mode.
		logger.Warn("Remote sync unavailable, running local-only", zap.Error(err))
		remote = nil
	}

	backend := syncstore.New(remote, store, logger,
		syncstore.WithTimeout(cfg.SyncTimeout),
		syncstore.WithRetries(cfg.SyncRetries),
	)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Backend:    backend,
		Collection: services.NewCollectionService(store, backend, logger),
		Places:     services.NewPlacesService(store, logger),
	}, nil
}

// Close releases the container's resources.
func (c *Container) Close() {
	c.Store.Close()
	_ = c.Logger.Sync()
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideRemoteClient creates the configured remote document-store client,
// or nil when the process should run local-only.
func ProvideRemoteClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (syncstore.RemoteClient, error) {
	if !cfg.RemoteEnabled() {
		logger.Info("No remote sync configured, running local-only")
		return nil, nil
	}

	switch cfg.SyncBackend {
	case config.BackendDynamo:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
		)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "load AWS configuration")
		}
		client := awsdynamodb.NewFromConfig(awsCfg)
		logger.Info("Using DynamoDB sync backend",
			zap.String("table", cfg.DynamoDBTable),
			zap.String("listID", cfg.SyncListID),
		)
		return dynamo.NewClient(client, cfg.DynamoDBTable, cfg.SyncListID, cfg.SyncPollInterval, logger), nil

	case config.BackendHTTP:
		logger.Info("Using HTTP sync backend",
			zap.String("endpoint", cfg.SyncHTTPEndpoint),
			zap.String("listID", cfg.SyncListID),
		)
		return httpsync.NewClient(cfg.SyncHTTPEndpoint, cfg.SyncListID, logger), nil
	}

	return nil, nil
}
