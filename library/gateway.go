package library

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"library-desk/config"
)

// Gateway is the only point of contact with storage. A gateway that failed
// to reach its store at startup stays usable: Connected reports false and
// every operation returns an empty, absent or false result with a nil error.
type Gateway interface {
	Connected() bool
	// FindAccountByUsername matches usernames case-insensitively. A missing
	// account is reported through the bool, never as an error.
	FindAccountByUsername(ctx context.Context, username string) (AccountRecord, bool, error)
	// ListAllBooks returns every book in insertion order.
	ListAllBooks(ctx context.Context) ([]BookRecord, error)
	// SetBookAvailability reports whether exactly one record was modified.
	SetBookAvailability(ctx context.Context, id RecordID, available bool) (bool, error)
	Close(ctx context.Context) error
}

// Seeder inserts the records this system otherwise only reads.
type Seeder interface {
	InsertAccount(ctx context.Context, rec AccountRecord) (RecordID, error)
	InsertBook(ctx context.Context, rec BookRecord) (RecordID, error)
}

// StoreGateway is a Gateway that can also be seeded.
type StoreGateway interface {
	Gateway
	Seeder
}

// OpenGateway opens the backend selected by cfg.Store. Connection problems
// yield a disconnected gateway rather than an error; only an unusable
// configuration fails.
func OpenGateway(ctx context.Context, cfg *config.Config, log *zap.Logger) (StoreGateway, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		return ConnectMongo(ctx, cfg.Mongo, log), nil
	case config.StoreDriverSQLite:
		return OpenDatabase(ctx, cfg.SQLite.Path, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Store.Driver)
	}
}
