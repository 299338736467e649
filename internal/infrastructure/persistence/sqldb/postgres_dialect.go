package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jhalmu/dividendsomatic/internal/domain"
	"github.com/jhalmu/dividendsomatic/internal/infrastructure/persistence/sqldb/migrations"
	"github.com/pressly/goose/v3"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.PostgresFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "postgres"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

func (d *PostgresDialect) UpsertInstrument(ctx context.Context, tx *sql.Tx, i *domain.Instrument) error {
	query := `
		INSERT INTO instruments (isin, symbol, aliases, name, category, currency, sector, dividend_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (isin) DO UPDATE SET
			sector = EXCLUDED.sector,
			dividend_rate = EXCLUDED.dividend_rate
	`
	_, err := tx.ExecContext(ctx, query,
		i.ISIN, i.Symbol, joinAliases(i.Aliases), i.Name, string(i.Category),
		i.Currency, i.Sector, nullDecimal(i.DividendRate))
	return err
}

func (d *PostgresDialect) InsertSnapshot(ctx context.Context, tx *sql.Tx, s *domain.PortfolioSnapshot) error {
	query := `
		INSERT INTO portfolio_snapshots (id, report_date, source, total_value, total_cost, positions_count)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		s.ID, s.ReportDate, s.Source, s.TotalValue, s.TotalCost, s.PositionsCount)
	return err
}

func (d *PostgresDialect) InsertPosition(ctx context.Context, tx *sql.Tx, p *domain.Position) error {
	query := `
		INSERT INTO positions (id, snapshot_id, isin, symbol, quantity, market_value, cost_basis, currency, fx_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		p.ID, p.SnapshotID, p.ISIN, p.Symbol, p.Quantity, p.MarketValue, p.CostBasis, p.Currency, p.FxRate)
	return err
}

func (d *PostgresDialect) InsertDividend(ctx context.Context, tx *sql.Tx, div *domain.DividendPayment) (bool, error) {
	query := `
		INSERT INTO dividends (id, external_id, isin, symbol, ex_date, pay_date, amount, amount_type, currency, source, fx_rate, per_share, quantity_at_record)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (external_id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, query,
		div.ID, div.ExternalID, div.ISIN, div.Symbol, div.ExDate, nullTime(div.PayDate),
		div.Amount, string(div.AmountType), div.Currency, div.Source,
		nullDecimal(div.FxRate), nullDecimal(div.PerShare), nullDecimal(div.QuantityAtRecord))
	return affected(res, err)
}

func (d *PostgresDialect) InsertTrade(ctx context.Context, tx *sql.Tx, t *domain.Trade) (bool, error) {
	query := `
		INSERT INTO trades (id, external_id, isin, symbol, trade_date, quantity, price, amount, commission, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (external_id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, query,
		t.ID, t.ExternalID, t.ISIN, t.Symbol, t.Date, t.Quantity, t.Price, t.Amount, t.Commission, t.Currency)
	return affected(res, err)
}

func (d *PostgresDialect) InsertCashFlow(ctx context.Context, tx *sql.Tx, f *domain.CashFlow) (bool, error) {
	query := `
		INSERT INTO cash_flows (id, flow_date, flow_type, amount, currency, amount_eur)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, query,
		f.ID, f.Date, string(f.FlowType), f.Amount, f.Currency, nullDecimal(f.AmountEUR))
	return affected(res, err)
}

func (d *PostgresDialect) InsertSoldPosition(ctx context.Context, tx *sql.Tx, l *domain.SoldPosition) (bool, error) {
	query := `
		INSERT INTO sold_positions (id, isin, symbol, quantity, purchase_price, purchase_date, sale_price, sale_date, currency, realized_pnl, realized_eur)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, query,
		l.ID, l.ISIN, l.Symbol, l.Quantity, l.PurchasePrice, l.PurchaseDate,
		l.SalePrice, l.SaleDate, l.Currency, l.RealizedPnL, nullDecimal(l.RealizedEUR))
	return affected(res, err)
}

func (d *PostgresDialect) UpsertFxRate(ctx context.Context, tx *sql.Tx, r *domain.FxRate) (bool, error) {
	query := `
		INSERT INTO fx_rates (rate_date, currency, rate)
		VALUES ($1, $2, $3)
		ON CONFLICT (rate_date, currency) DO UPDATE SET rate = EXCLUDED.rate
	`
	res, err := tx.ExecContext(ctx, query, r.Date, r.Currency, r.Rate)
	return affected(res, err)
}

func (d *PostgresDialect) UpsertMarginSnapshot(ctx context.Context, tx *sql.Tx, m *domain.MarginSnapshot) (bool, error) {
	query := `
		INSERT INTO margin_snapshots (report_date, net_liquidation, cash, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (report_date) DO UPDATE SET
			net_liquidation = EXCLUDED.net_liquidation,
			cash = EXCLUDED.cash,
			currency = EXCLUDED.currency
	`
	res, err := tx.ExecContext(ctx, query, m.ReportDate, m.NetLiquidation, m.Cash, m.Currency)
	return affected(res, err)
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
