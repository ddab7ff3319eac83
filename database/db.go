package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/breakout/shared"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createOrderTableSQL = "CREATE TABLE IF NOT EXISTS orders (id TEXT PRIMARY KEY, market TEXT, direction INTEGER, volume REAL, entryprice REAL, stoploss REAL, takeprofit REAL, tag TEXT, magic INTEGER, success INTEGER, retcode INTEGER, message TEXT, createdon INTEGER)"
	createMetadataSQL   = "CREATE TABLE IF NOT EXISTS metadata (id TEXT PRIMARY KEY, market TEXT, total INTEGER, filled INTEGER, rejected INTEGER, createdon INTEGER)"
	persistOrderSQL     = "INSERT INTO orders(id, market, direction, volume, entryprice, stoploss, takeprofit, tag, magic, success, retcode, message, createdon) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)"
	upsertMetadataSQL   = "INSERT INTO metadata(id, market, total, filled, rejected, createdon) VALUES(?,?,1,?,?,?) ON CONFLICT(id) DO UPDATE SET total = total + 1, filled = filled + excluded.filled, rejected = rejected + excluded.rejected"
)

// OrderStorer defines the requirements for journaling submitted orders.
type OrderStorer interface {
	// PersistOrder stores the provided order request and its outcome.
	PersistOrder(ctx context.Context, req shared.OrderRequest, result shared.OrderResult, submittedOn time.Time) error
}

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the order journal database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the OrderStorer interface.
var _ OrderStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("database endpoint cannot be an empty string")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("database logger cannot be nil")
	}

	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	if cfg.User != "" {
		client.SetBasicAuth(cfg.User, cfg.Pass)
	}

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// execute runs the provided statements in a single transaction.
func (db *Database) execute(ctx context.Context, stmts rqlitehttp.SQLStatements) error {
	resp, err := db.client.Execute(ctx, stmts, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("statement %d: %s", idx, errStr)
	}

	return nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	return db.execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createOrderTableSQL},
		{SQL: createMetadataSQL},
	})
}

// generateMetadataID generates deterministic ids for metadata using the
// submission day and market.
func generateMetadataID(submittedOn time.Time, market string) string {
	return fmt.Sprintf("%s-%s", submittedOn.UTC().Format(time.DateOnly), market)
}

// orderStatements creates the statements journaling the provided order and
// updating its daily metadata.
func orderStatements(req shared.OrderRequest, result shared.OrderResult, submittedOn time.Time) rqlitehttp.SQLStatements {
	var filled, rejected int
	if result.Success {
		filled = 1
	} else {
		rejected = 1
	}

	return rqlitehttp.SQLStatements{
		{
			SQL: persistOrderSQL,
			PositionalParams: []any{req.ID, req.Market, int(req.Direction), req.Volume, req.EntryPrice,
				req.StopLoss, req.TakeProfit, req.Tag, req.Magic, result.Success, result.ReturnCode,
				result.Message, submittedOn.Unix()},
		},
		{
			SQL: upsertMetadataSQL,
			PositionalParams: []any{generateMetadataID(submittedOn, req.Market), req.Market,
				filled, rejected, submittedOn.Unix()},
		},
	}
}

// PersistOrder stores the provided order request and its outcome.
func (db *Database) PersistOrder(ctx context.Context, req shared.OrderRequest, result shared.OrderResult, submittedOn time.Time) error {
	if !result.Success && result.ReturnCode == 0 {
		db.cfg.Logger.Error().Msgf("unexpected order result state for journaling: %s", spew.Sdump(req, result))
	}

	err := db.execute(ctx, orderStatements(req, result, submittedOn))
	if err != nil {
		return fmt.Errorf("persisting order %s: %w", req.ID, err)
	}

	return nil
}
