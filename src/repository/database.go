package repository

import (
	"context"
	"fmt"

	app "imaginify/src/app"
	cfg "imaginify/src/configuration"

	"go.uber.org/zap"
)

const memoryURL = "memory://"

type Database interface {
	app.Store
	Connect(ctx context.Context) error
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}

// NewDataBase picks the document store named by MONGO_URL. "memory://"
// selects the in-process store.
func NewDataBase(config *cfg.Properties, logger *zap.Logger) (Database, error) {
	if config == nil {
		return nil, fmt.Errorf("config is not valid")
	}
	if config.Mongo.URL == memoryURL {
		logger.Warn("using in-memory document store")
		return NewInMemoryDB(), nil
	}
	return NewMongoDB(config.Mongo.URL, config.Mongo.Database, config.Mongo.ConnectTimeout, logger), nil
}
