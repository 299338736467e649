package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// Repository implements domain.LedgerRepository on a SQL database
// through the dialect abstraction.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) SaveSnapshot(ctx context.Context, s *domain.PortfolioSnapshot) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := r.db.Dialect.InsertSnapshot(ctx, tx, s); err != nil {
			slog.Error("Failed to save snapshot", "snapshot_id", s.ID, "error", err)
			return fmt.Errorf("insert snapshot: %w", err)
		}
		for i := range s.Positions {
			s.Positions[i].SnapshotID = s.ID
			if err := r.db.Dialect.InsertPosition(ctx, tx, &s.Positions[i]); err != nil {
				slog.Error("Failed to save position", "position_id", s.Positions[i].ID, "error", err)
				return fmt.Errorf("insert position: %w", err)
			}
		}
		return nil
	})
}

const snapshotColumns = `
        s.id, s.report_date, s.source, s.total_value, s.total_cost, s.positions_count,
        p.id, p.isin, p.symbol, p.quantity, p.market_value, p.cost_basis, p.currency, p.fx_rate`

func (r *Repository) SnapshotsInRange(ctx context.Context, from, to time.Time) ([]domain.PortfolioSnapshot, error) {
	query := `
        SELECT` + snapshotColumns + `
        FROM portfolio_snapshots s
        LEFT JOIN positions p ON p.snapshot_id = s.id
        WHERE s.report_date <= $1
          AND (s.report_date >= $2
               OR s.report_date = (SELECT MAX(report_date) FROM portfolio_snapshots WHERE report_date < $3))
        ORDER BY s.report_date
    `
	return r.querySnapshots(ctx, query, to, from, from)
}

func (r *Repository) FirstSnapshot(ctx context.Context) (*domain.PortfolioSnapshot, error) {
	return r.snapshotByDateOrder(ctx, "ASC")
}

func (r *Repository) LatestSnapshot(ctx context.Context) (*domain.PortfolioSnapshot, error) {
	return r.snapshotByDateOrder(ctx, "DESC")
}

// snapshotByDateOrder loads the snapshot at one end of the date range.
// FETCH FIRST works on both postgres and oracle. Nil without error when
// the ledger holds no snapshots yet.
func (r *Repository) snapshotByDateOrder(ctx context.Context, order string) (*domain.PortfolioSnapshot, error) {
	idQuery := "SELECT id FROM portfolio_snapshots ORDER BY report_date " + order + " FETCH FIRST 1 ROWS ONLY"

	var id string
	if err := r.db.QueryRowContext(ctx, idQuery).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying snapshot id: %w", err)
	}

	query := `
        SELECT` + snapshotColumns + `
        FROM portfolio_snapshots s
        LEFT JOIN positions p ON p.snapshot_id = s.id
        WHERE s.id = $1
    `
	snapshots, err := r.querySnapshots(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return &snapshots[0], nil
}

func (r *Repository) querySnapshots(ctx context.Context, query string, args ...interface{}) ([]domain.PortfolioSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer closeRows(rows)

	byID := make(map[string]int)
	var snapshots []domain.PortfolioSnapshot

	for rows.Next() {
		var sID, sSource string
		var sDate time.Time
		var sValue, sCost domain.Decimal
		var sCount int
		var pID, pISIN, pSymbol, pCurrency sql.NullString
		var pQty, pValue, pCostBasis, pFx sql.NullString

		err := rows.Scan(
			&sID, &sDate, &sSource, &sValue, &sCost, &sCount,
			&pID, &pISIN, &pSymbol, &pQty, &pValue, &pCostBasis, &pCurrency, &pFx,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}

		idx, exists := byID[sID]
		if !exists {
			snapshots = append(snapshots, domain.PortfolioSnapshot{
				ID:             sID,
				ReportDate:     sDate,
				Source:         sSource,
				TotalValue:     sValue,
				TotalCost:      sCost,
				PositionsCount: sCount,
				Positions:      []domain.Position{},
			})
			idx = len(snapshots) - 1
			byID[sID] = idx
		}

		if pID.Valid {
			pos := domain.Position{
				ID:         pID.String,
				SnapshotID: sID,
				ISIN:       pISIN.String,
				Symbol:     pSymbol.String,
				Currency:   pCurrency.String,
			}
			for _, pair := range []struct {
				dst *domain.Decimal
				src sql.NullString
			}{
				{&pos.Quantity, pQty},
				{&pos.MarketValue, pValue},
				{&pos.CostBasis, pCostBasis},
				{&pos.FxRate, pFx},
			} {
				if pair.src.Valid {
					if err := pair.dst.Scan(pair.src.String); err != nil {
						return nil, fmt.Errorf("scanning position decimal: %w", err)
					}
				}
			}
			snapshots[idx].Positions = append(snapshots[idx].Positions, pos)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *Repository) SaveInstruments(ctx context.Context, instruments []domain.Instrument) (int, error) {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range instruments {
			if err := r.db.Dialect.UpsertInstrument(ctx, tx, &instruments[i]); err != nil {
				return fmt.Errorf("upsert instrument %s: %w", instruments[i].ISIN, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(instruments), nil
}

func (r *Repository) Instruments(ctx context.Context) ([]domain.Instrument, error) {
	query := `
        SELECT isin, symbol, aliases, name, category, currency, sector, dividend_rate
        FROM instruments ORDER BY isin
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying instruments: %w", err)
	}
	defer closeRows(rows)

	var out []domain.Instrument
	for rows.Next() {
		var i domain.Instrument
		var aliases, category string
		var rate sql.NullString

		if err := rows.Scan(&i.ISIN, &i.Symbol, &aliases, &i.Name, &category, &i.Currency, &i.Sector, &rate); err != nil {
			return nil, fmt.Errorf("scanning instrument row: %w", err)
		}
		i.Aliases = splitAliases(aliases)
		i.Category = domain.AssetCategory(category)
		if i.DividendRate, err = scanNullDecimal(rate); err != nil {
			return nil, fmt.Errorf("scanning dividend rate: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *Repository) SaveDividends(ctx context.Context, dividends []domain.DividendPayment) (int, error) {
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range dividends {
			ok, err := r.db.Dialect.InsertDividend(ctx, tx, &dividends[i])
			if err != nil {
				return fmt.Errorf("insert dividend %s: %w", dividends[i].ExternalID, err)
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *Repository) Dividends(ctx context.Context) ([]domain.DividendPayment, error) {
	query := `
        SELECT id, external_id, isin, symbol, ex_date, pay_date, amount, amount_type,
               currency, source, fx_rate, per_share, quantity_at_record
        FROM dividends ORDER BY ex_date
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying dividends: %w", err)
	}
	defer closeRows(rows)

	var out []domain.DividendPayment
	for rows.Next() {
		var d domain.DividendPayment
		var amountType string
		var payDate sql.NullTime
		var fx, perShare, qty sql.NullString

		err := rows.Scan(&d.ID, &d.ExternalID, &d.ISIN, &d.Symbol, &d.ExDate, &payDate,
			&d.Amount, &amountType, &d.Currency, &d.Source, &fx, &perShare, &qty)
		if err != nil {
			return nil, fmt.Errorf("scanning dividend row: %w", err)
		}
		d.AmountType = domain.AmountType(amountType)
		if payDate.Valid {
			d.PayDate = payDate.Time
		}
		if d.FxRate, err = scanNullDecimal(fx); err != nil {
			return nil, err
		}
		if d.PerShare, err = scanNullDecimal(perShare); err != nil {
			return nil, err
		}
		if d.QuantityAtRecord, err = scanNullDecimal(qty); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) SaveTrades(ctx context.Context, trades []domain.Trade) (int, error) {
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range trades {
			ok, err := r.db.Dialect.InsertTrade(ctx, tx, &trades[i])
			if err != nil {
				return fmt.Errorf("insert trade %s: %w", trades[i].ExternalID, err)
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *Repository) Trades(ctx context.Context) ([]domain.Trade, error) {
	query := `
        SELECT id, external_id, isin, symbol, trade_date, quantity, price, amount, commission, currency
        FROM trades ORDER BY trade_date
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer closeRows(rows)

	var out []domain.Trade
	for rows.Next() {
		var t domain.Trade
		err := rows.Scan(&t.ID, &t.ExternalID, &t.ISIN, &t.Symbol, &t.Date,
			&t.Quantity, &t.Price, &t.Amount, &t.Commission, &t.Currency)
		if err != nil {
			return nil, fmt.Errorf("scanning trade row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) SaveCashFlows(ctx context.Context, flows []domain.CashFlow) (int, error) {
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range flows {
			ok, err := r.db.Dialect.InsertCashFlow(ctx, tx, &flows[i])
			if err != nil {
				return fmt.Errorf("insert cash flow %s: %w", flows[i].ID, err)
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *Repository) CashFlows(ctx context.Context) ([]domain.CashFlow, error) {
	query := `
        SELECT id, flow_date, flow_type, amount, currency, amount_eur
        FROM cash_flows ORDER BY flow_date
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying cash flows: %w", err)
	}
	defer closeRows(rows)

	var out []domain.CashFlow
	for rows.Next() {
		var f domain.CashFlow
		var flowType string
		var amountEUR sql.NullString

		if err := rows.Scan(&f.ID, &f.Date, &flowType, &f.Amount, &f.Currency, &amountEUR); err != nil {
			return nil, fmt.Errorf("scanning cash flow row: %w", err)
		}
		f.FlowType = domain.FlowType(flowType)
		if f.AmountEUR, err = scanNullDecimal(amountEUR); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repository) SaveSoldPositions(ctx context.Context, lots []domain.SoldPosition) (int, error) {
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range lots {
			ok, err := r.db.Dialect.InsertSoldPosition(ctx, tx, &lots[i])
			if err != nil {
				return fmt.Errorf("insert sold position %s: %w", lots[i].ID, err)
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *Repository) SoldPositions(ctx context.Context) ([]domain.SoldPosition, error) {
	query := `
        SELECT id, isin, symbol, quantity, purchase_price, purchase_date, sale_price, sale_date,
               currency, realized_pnl, realized_eur
        FROM sold_positions ORDER BY sale_date
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying sold positions: %w", err)
	}
	defer closeRows(rows)

	var out []domain.SoldPosition
	for rows.Next() {
		var l domain.SoldPosition
		var realizedEUR sql.NullString

		err := rows.Scan(&l.ID, &l.ISIN, &l.Symbol, &l.Quantity, &l.PurchasePrice, &l.PurchaseDate,
			&l.SalePrice, &l.SaleDate, &l.Currency, &l.RealizedPnL, &realizedEUR)
		if err != nil {
			return nil, fmt.Errorf("scanning sold position row: %w", err)
		}
		if l.RealizedEUR, err = scanNullDecimal(realizedEUR); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repository) SaveFxRates(ctx context.Context, rates []domain.FxRate) (int, error) {
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range rates {
			ok, err := r.db.Dialect.UpsertFxRate(ctx, tx, &rates[i])
			if err != nil {
				return fmt.Errorf("upsert fx rate %s/%s: %w",
					rates[i].Date.Format("2006-01-02"), rates[i].Currency, err)
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *Repository) FxRates(ctx context.Context) ([]domain.FxRate, error) {
	query := `SELECT rate_date, currency, rate FROM fx_rates ORDER BY rate_date, currency`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying fx rates: %w", err)
	}
	defer closeRows(rows)

	var out []domain.FxRate
	for rows.Next() {
		var fx domain.FxRate
		if err := rows.Scan(&fx.Date, &fx.Currency, &fx.Rate); err != nil {
			return nil, fmt.Errorf("scanning fx rate row: %w", err)
		}
		out = append(out, fx)
	}
	return out, rows.Err()
}

func (r *Repository) SaveMarginSnapshots(ctx context.Context, snapshots []domain.MarginSnapshot) (int, error) {
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for i := range snapshots {
			ok, err := r.db.Dialect.UpsertMarginSnapshot(ctx, tx, &snapshots[i])
			if err != nil {
				return fmt.Errorf("upsert margin snapshot %s: %w",
					snapshots[i].ReportDate.Format("2006-01-02"), err)
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *Repository) MarginSnapshots(ctx context.Context) ([]domain.MarginSnapshot, error) {
	query := `SELECT report_date, net_liquidation, cash, currency FROM margin_snapshots ORDER BY report_date`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying margin snapshots: %w", err)
	}
	defer closeRows(rows)

	var out []domain.MarginSnapshot
	for rows.Next() {
		var m domain.MarginSnapshot
		if err := rows.Scan(&m.ReportDate, &m.NetLiquidation, &m.Cash, &m.Currency); err != nil {
			return nil, fmt.Errorf("scanning margin snapshot row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) rebind(query string) string {
	if r.db.Dialect.Name() == "oracle" {
		for i := 15; i >= 1; i-- {
			query = strings.ReplaceAll(query, fmt.Sprintf("$%d", i), fmt.Sprintf(":%d", i))
		}
	}
	return query
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("Failed to close rows", "error", err)
	}
}
