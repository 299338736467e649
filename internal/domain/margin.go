package domain

import "time"

// MarginSnapshot is one margin-equity report: the account's net
// liquidation value on a date. Its mere presence in the ledger switches
// the balance validator into margin mode.
type MarginSnapshot struct {
	ReportDate     time.Time `json:"report_date"`
	NetLiquidation Decimal   `json:"net_liquidation"`
	Cash           Decimal   `json:"cash"`
	Currency       string    `json:"currency"`
}
