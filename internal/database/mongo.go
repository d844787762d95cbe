package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"devhubs/marketplace/marketplace-backend/internal/config"
)

// Connect opens a Mongo client and verifies connectivity
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

// TxnRunner runs a unit of work, transactionally when the deployment allows it
type TxnRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoTxnRunner wraps multi-document work in a session transaction.
// Standalone servers reject transactions; those runs fall back to executing
// the function sequentially so the reconciler can repair a partial write.
type MongoTxnRunner struct {
	client *mongo.Client
	logger *zap.Logger
}

// NewMongoTxnRunner creates a transaction runner bound to a client
func NewMongoTxnRunner(client *mongo.Client, logger *zap.Logger) *MongoTxnRunner {
	return &MongoTxnRunner{client: client, logger: logger}
}

func (r *MongoTxnRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		r.logger.Warn("Sessions unavailable, running without transaction", zap.Error(err))
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && transactionsUnsupported(err) {
		r.logger.Warn("Transactions unsupported by deployment, running sequentially", zap.Error(err))
		return fn(ctx)
	}
	return err
}

func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 20 {
		// IllegalOperation: "Transaction numbers are only allowed on a replica set member or mongos"
		return true
	}
	return strings.Contains(err.Error(), "Transaction numbers")
}
