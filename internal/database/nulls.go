package database

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// NullString converts an optional string to a driver value.
// Empty strings are stored as NULL.
func NullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// NullInt64 converts an optional int64 to a driver value
func NullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// NullDecimal converts an optional decimal to a REAL driver value
func NullDecimal(d *decimal.Decimal) sql.NullFloat64 {
	if d == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: d.InexactFloat64(), Valid: true}
}

// StringPtr returns the scanned string or nil
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Int64Ptr returns the scanned integer or nil
func Int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// DecimalPtr returns the scanned REAL as a decimal, or nil
func DecimalPtr(nf sql.NullFloat64) *decimal.Decimal {
	if !nf.Valid {
		return nil
	}
	d := decimal.NewFromFloat(nf.Float64)
	return &d
}

// UnixTime converts stored Unix seconds to a UTC time
func UnixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// NullTime converts an optional time to Unix seconds, or NULL
func NullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

// TimePtr returns the scanned Unix seconds as a time, or nil
func TimePtr(ni sql.NullInt64) *time.Time {
	if !ni.Valid {
		return nil
	}
	t := UnixTime(ni.Int64)
	return &t
}

// Scanner is satisfied by *sql.Row and *sql.Rows
type Scanner interface {
	Scan(dest ...any) error
}
