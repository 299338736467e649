package sqldb

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/domain"
)

// Helpers shared by both dialects for nullable and list-valued columns.

func nullDecimal(d *domain.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func joinAliases(aliases []string) string {
	return strings.Join(aliases, ",")
}

func splitAliases(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func scanNullDecimal(ns sql.NullString) (*domain.Decimal, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := domain.NewDecimalFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
