package db

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// IsDuplicateKeyError is a function that checks if an error is a duplicate key error.
type IsDuplicateKeyError func(err error) bool

const DefaultMaxRetries = 3

// pgUniqueViolation is the SQLSTATE Postgres reports for a unique constraint violation.
const pgUniqueViolation = "23505"

// Try executes an operation with default retry settings for duplicate key errors.
// It recognises duplicate keys from both MongoDB and Postgres.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsDuplicateKey)
}

// WithRetries executes an operation, retrying it up to maxRetries times while it fails
// with a duplicate key error. Any other error is returned immediately.
func WithRetries(op Operation, maxRetries int, isDuplicateKey IsDuplicateKeyError) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}

		if attempt == maxRetries {
			break
		}

		if !isDuplicateKey(err) {
			return err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond) // Simple incremental backoff
	}
	return err
}

// IsDuplicateKey reports a duplicate key error from any supported database.
func IsDuplicateKey(err error) bool {
	return IsMongoDuplicateKeyError(err) || IsPostgresUniqueViolation(err)
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsMongoDuplicateKeyError(err error) bool {
	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, writeError := range bwe.WriteErrors {
			if writeError.Code == 11000 {
				return true
			}
		}
	}
	return false
}

// IsPostgresUniqueViolation checks if an error from Postgres is a unique constraint violation.
func IsPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
