package sqldb

import (
	"context"
	"database/sql"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// Dialect isolates the SQL-flavor differences between the supported
// ledger databases. Insert methods report whether a row was actually
// written, so the repository can count deduplicated imports.
type Dialect interface {
	Name() string
	Migrate(ctx context.Context, db *sql.DB) error

	UpsertInstrument(ctx context.Context, tx *sql.Tx, i *domain.Instrument) error
	InsertSnapshot(ctx context.Context, tx *sql.Tx, s *domain.PortfolioSnapshot) error
	InsertPosition(ctx context.Context, tx *sql.Tx, p *domain.Position) error
	InsertDividend(ctx context.Context, tx *sql.Tx, d *domain.DividendPayment) (bool, error)
	InsertTrade(ctx context.Context, tx *sql.Tx, t *domain.Trade) (bool, error)
	InsertCashFlow(ctx context.Context, tx *sql.Tx, f *domain.CashFlow) (bool, error)
	InsertSoldPosition(ctx context.Context, tx *sql.Tx, l *domain.SoldPosition) (bool, error)
	UpsertFxRate(ctx context.Context, tx *sql.Tx, r *domain.FxRate) (bool, error)
	UpsertMarginSnapshot(ctx context.Context, tx *sql.Tx, m *domain.MarginSnapshot) (bool, error)
}
