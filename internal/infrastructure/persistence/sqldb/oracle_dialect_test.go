package sqldb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jhalmu/dividendsomatic/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestOracleDialect_UpsertInstrument_QueryGeneration(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	dialect := &OracleDialect{}
	inst := domain.NewInstrument("FI0009000681", "NOKIA", "Nokia Oyj", domain.AssetStock, "EUR")
	inst.Aliases = []string{"NOK1V"}

	// ORDER MATTERS:
	// 1. Begin Transaction
	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	// 2. Execute Query
	mock.ExpectExec(`MERGE INTO instruments i`).
		WithArgs(
			inst.ISIN,               // 1
			inst.Sector,             // 2
			nil,                     // 3 (DividendRate)
			inst.ISIN,               // 4
			inst.Symbol,             // 5
			"NOK1V",                 // 6
			inst.Name,               // 7
			string(inst.Category),   // 8
			inst.Currency,           // 9
			inst.Sector,             // 10
			nil,                     // 11 (DividendRate)
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = dialect.UpsertInstrument(context.Background(), tx, &inst)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOracleDialect_InsertDividend_QueryGeneration(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	dialect := &OracleDialect{}
	div := domain.NewDividendPayment("ibkr-123", "FI0009000681", "NOKIA",
		testDate(2025, 3, 15), testDate(2025, 4, 1), domain.MustDecimal("0.50"), domain.AmountPerShare, "EUR")

	// 1. Begin
	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	// 2. Exec
	mock.ExpectExec(`MERGE INTO dividends d`).
		WithArgs(
			div.ExternalID,         // 1
			div.ID,                 // 2
			div.ExternalID,         // 3
			div.ISIN,               // 4
			div.Symbol,             // 5
			div.ExDate,             // 6
			div.PayDate,            // 7
			div.Amount,             // 8
			string(div.AmountType), // 9
			div.Currency,           // 10
			div.Source,             // 11
			nil,                    // 12 (FxRate)
			nil,                    // 13 (PerShare)
			nil,                    // 14 (QuantityAtRecord)
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	inserted, err := dialect.InsertDividend(context.Background(), tx, &div)

	assert.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOracleDialect_UpsertFxRate_QueryGeneration(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	dialect := &OracleDialect{}
	rate := domain.FxRate{Date: testDate(2025, 3, 14), Currency: "USD", Rate: domain.MustDecimal("0.92")}

	// 1. Begin
	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	// 2. Exec
	mock.ExpectExec(`MERGE INTO fx_rates f`).
		WithArgs(
			rate.Date,     // 1
			rate.Currency, // 2
			rate.Rate,     // 3
			rate.Date,     // 4
			rate.Currency, // 5
			rate.Rate,     // 6
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	inserted, err := dialect.UpsertFxRate(context.Background(), tx, &rate)

	assert.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
