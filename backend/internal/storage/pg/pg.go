package pg

import (
	"context"
	"database/sql"

	"github.com/practix/practix/shared/config"
	"github.com/practix/practix/shared/logger"
	sharedpg "github.com/practix/practix/shared/storage/pg"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier = sharedpg.Querier

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type Storage struct {
	db *sql.DB
}

func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	log := logger.Component("storage")
	log.Info("connecting to db", "host", cfg.Private.Pg.Host, "dbname", cfg.Private.Pg.Dbname)
	db, err := sharedpg.Connect(ctx, cfg.Private.Pg, sharedpg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	log.Info("successfully connected to db")
	return &Storage{db: db}, nil
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

// Ping backs the readiness check.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return sharedpg.WithTx(ctx, s.db, fn)
}
