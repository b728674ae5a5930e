// Package txn runs multi-document writes inside a MongoDB transaction when
// the deployment supports it.
//
// Standalone servers (typical for local development) reject transactions.
// Run detects that case and executes the callback without a session, so the
// writes are applied one after another with no atomicity. Callers that need
// stronger guarantees must add their own guard (the connections store uses a
// versioned compare-and-swap record for that).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn in a transaction on db's client. If the server does not
// support transactions, fn is executed once more outside a transaction.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Warn("transactions unavailable; running without", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions unavailable; running without", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// Command error codes a standalone or otherwise limited server returns when
// a transaction is attempted.
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // NotSupported on some builds
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err means the server cannot run transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "session"):
		return true
	case strings.Contains(msg, "illegal operation"):
		return true
	}
	return false
}
