package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jhalmu/dividendsomatic/internal/domain"
	"github.com/jhalmu/dividendsomatic/internal/infrastructure/persistence/sqldb/migrations"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

func (d *OracleDialect) Migrate(ctx context.Context, db *sql.DB) error {
	// Goose has no Oracle support that cross-compiles with go-ora, so
	// the init script is executed statement by statement, split on the
	// standard '/' separator.
	content, err := migrations.OracleFS.ReadFile("oracle/00001_init.sql")
	if err != nil {
		return fmt.Errorf("reading migration file: %w", err)
	}

	statements := strings.Split(string(content), "/")
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// ORA-00955: name is already used by an existing object
			if !strings.Contains(err.Error(), "ORA-00955") {
				return fmt.Errorf("migrating: %s: %w", stmt, err)
			}
		}
	}
	return nil
}

func (d *OracleDialect) UpsertInstrument(ctx context.Context, tx *sql.Tx, i *domain.Instrument) error {
	query := `MERGE INTO instruments i
             USING (SELECT :1 as isin_val FROM dual) s
             ON (i.isin = s.isin_val)
             WHEN MATCHED THEN
               UPDATE SET sector = :2, dividend_rate = :3
             WHEN NOT MATCHED THEN
               INSERT (isin, symbol, aliases, name, category, currency, sector, dividend_rate)
               VALUES (:4, :5, :6, :7, :8, :9, :10, :11)`

	_, err := tx.ExecContext(ctx, query,
		i.ISIN,
		i.Sector, nullDecimal(i.DividendRate),
		i.ISIN, i.Symbol, joinAliases(i.Aliases), i.Name, string(i.Category),
		i.Currency, i.Sector, nullDecimal(i.DividendRate),
	)
	return err
}

func (d *OracleDialect) InsertSnapshot(ctx context.Context, tx *sql.Tx, s *domain.PortfolioSnapshot) error {
	query := `INSERT INTO portfolio_snapshots (id, report_date, source, total_value, total_cost, positions_count)
             VALUES (:1, :2, :3, :4, :5, :6)`
	_, err := tx.ExecContext(ctx, query,
		s.ID, s.ReportDate, s.Source, s.TotalValue, s.TotalCost, s.PositionsCount)
	return err
}

func (d *OracleDialect) InsertPosition(ctx context.Context, tx *sql.Tx, p *domain.Position) error {
	query := `INSERT INTO positions (id, snapshot_id, isin, symbol, quantity, market_value, cost_basis, currency, fx_rate)
             VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9)`
	_, err := tx.ExecContext(ctx, query,
		p.ID, p.SnapshotID, p.ISIN, p.Symbol, p.Quantity, p.MarketValue, p.CostBasis, p.Currency, p.FxRate)
	return err
}

func (d *OracleDialect) InsertDividend(ctx context.Context, tx *sql.Tx, div *domain.DividendPayment) (bool, error) {
	query := `MERGE INTO dividends d
             USING (SELECT :1 as ext_val FROM dual) s
             ON (d.external_id = s.ext_val)
             WHEN NOT MATCHED THEN
               INSERT (id, external_id, isin, symbol, ex_date, pay_date, amount, amount_type, currency, source, fx_rate, per_share, quantity_at_record)
               VALUES (:2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12, :13, :14)`

	res, err := tx.ExecContext(ctx, query,
		div.ExternalID,
		div.ID, div.ExternalID, div.ISIN, div.Symbol, div.ExDate, nullTime(div.PayDate),
		div.Amount, string(div.AmountType), div.Currency, div.Source,
		nullDecimal(div.FxRate), nullDecimal(div.PerShare), nullDecimal(div.QuantityAtRecord),
	)
	return affected(res, err)
}

func (d *OracleDialect) InsertTrade(ctx context.Context, tx *sql.Tx, t *domain.Trade) (bool, error) {
	query := `MERGE INTO trades t
             USING (SELECT :1 as ext_val FROM dual) s
             ON (t.external_id = s.ext_val)
             WHEN NOT MATCHED THEN
               INSERT (id, external_id, isin, symbol, trade_date, quantity, price, amount, commission, currency)
               VALUES (:2, :3, :4, :5, :6, :7, :8, :9, :10, :11)`

	res, err := tx.ExecContext(ctx, query,
		t.ExternalID,
		t.ID, t.ExternalID, t.ISIN, t.Symbol, t.Date, t.Quantity, t.Price, t.Amount, t.Commission, t.Currency,
	)
	return affected(res, err)
}

func (d *OracleDialect) InsertCashFlow(ctx context.Context, tx *sql.Tx, f *domain.CashFlow) (bool, error) {
	query := `MERGE INTO cash_flows c
             USING (SELECT :1 as id_val FROM dual) s
             ON (c.id = s.id_val)
             WHEN NOT MATCHED THEN
               INSERT (id, flow_date, flow_type, amount, currency, amount_eur)
               VALUES (:2, :3, :4, :5, :6, :7)`

	res, err := tx.ExecContext(ctx, query,
		f.ID,
		f.ID, f.Date, string(f.FlowType), f.Amount, f.Currency, nullDecimal(f.AmountEUR),
	)
	return affected(res, err)
}

func (d *OracleDialect) InsertSoldPosition(ctx context.Context, tx *sql.Tx, l *domain.SoldPosition) (bool, error) {
	query := `MERGE INTO sold_positions sp
             USING (SELECT :1 as id_val FROM dual) s
             ON (sp.id = s.id_val)
             WHEN NOT MATCHED THEN
               INSERT (id, isin, symbol, quantity, purchase_price, purchase_date, sale_price, sale_date, currency, realized_pnl, realized_eur)
               VALUES (:2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12)`

	res, err := tx.ExecContext(ctx, query,
		l.ID,
		l.ID, l.ISIN, l.Symbol, l.Quantity, l.PurchasePrice, l.PurchaseDate,
		l.SalePrice, l.SaleDate, l.Currency, l.RealizedPnL, nullDecimal(l.RealizedEUR),
	)
	return affected(res, err)
}

func (d *OracleDialect) UpsertFxRate(ctx context.Context, tx *sql.Tx, r *domain.FxRate) (bool, error) {
	query := `MERGE INTO fx_rates f
             USING (SELECT :1 as date_val, :2 as cur_val FROM dual) s
             ON (f.rate_date = s.date_val AND f.currency = s.cur_val)
             WHEN MATCHED THEN
               UPDATE SET rate = :3
             WHEN NOT MATCHED THEN
               INSERT (rate_date, currency, rate)
               VALUES (:4, :5, :6)`

	res, err := tx.ExecContext(ctx, query,
		r.Date, r.Currency,
		r.Rate,
		r.Date, r.Currency, r.Rate,
	)
	return affected(res, err)
}

func (d *OracleDialect) UpsertMarginSnapshot(ctx context.Context, tx *sql.Tx, m *domain.MarginSnapshot) (bool, error) {
	query := `MERGE INTO margin_snapshots ms
             USING (SELECT :1 as date_val FROM dual) s
             ON (ms.report_date = s.date_val)
             WHEN MATCHED THEN
               UPDATE SET net_liquidation = :2, cash = :3, currency = :4
             WHEN NOT MATCHED THEN
               INSERT (report_date, net_liquidation, cash, currency)
               VALUES (:5, :6, :7, :8)`

	res, err := tx.ExecContext(ctx, query,
		m.ReportDate,
		m.NetLiquidation, m.Cash, m.Currency,
		m.ReportDate, m.NetLiquidation, m.Cash, m.Currency,
	)
	return affected(res, err)
}
