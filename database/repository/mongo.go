package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultTimeout bounds a single repository round trip.
const DefaultTimeout = 5 * time.Second

// NewContext derives a bounded context for one store operation.
func NewContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

const (
	transientLabel = "TransientTransactionError"
	// writeConflict is the server code for two transactions touching one document.
	writeConflict = 112
)

// Translate maps driver errors onto the repository sentinels, keeping the cause.
// Transient transaction errors pass through untouched so the driver can retry them.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case IsTransient(err):
		return err
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// IsTransient reports whether err is a write conflict or carries the
// TransientTransactionError label.
func IsTransient(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorLabel(transientLabel) || se.HasErrorCode(writeConflict)
}

// RunInTransaction executes fn inside a MongoDB multi-document transaction.
// fn must use the session context for every operation that belongs to it, and
// may run more than once: transient conflicts are retried by the driver. A
// conflict that outlasts the retries is reported as ErrConflict.
func RunInTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if IsTransient(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
