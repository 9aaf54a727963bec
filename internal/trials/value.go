package trials

// value.go defines the normalized field values produced by the row normalizer.
//
// A Value keeps the cleaned string unescaped. It renders two ways:
//   - Arg: the statement parameter (pgtype with Valid=false for Null)
//   - Literal: the quoted SQL literal used by Script for plan output
//
// Null is a flag, never a quoted string, so a Null value can only ever reach
// the database as SQL NULL.

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Kind identifies the cleaning rule a value was produced by.
type Kind int

const (
	KindText  Kind = iota // trimmed text; empty stays empty
	KindYear              // trimmed text; empty becomes Null
	KindYesNo             // upper-cased flag with a per-field default
	KindSlug              // lower-case hyphenated identifier
	KindInt               // base-10 integer, otherwise Null
)

// numericRegex matches integers, decimals and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// NullLiteral is the unquoted token the batch script uses for SQL NULL.
const NullLiteral = "Null"

// String returns the rule name, used in logs and plan output.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindYear:
		return "year"
	case KindYesNo:
		return "yesno"
	case KindSlug:
		return "slug"
	case KindInt:
		return "int"
	default:
		return "unknown"
	}
}

// Value is one cleaned field.
type Value struct {
	Kind Kind
	Str  string // trimmed, unescaped
	Null bool
}

// Text returns a non-null text value.
func Text(s string) Value {
	return Value{Kind: KindText, Str: s}
}

// Null returns the Null sentinel for the given kind.
func Null(k Kind) Value {
	return Value{Kind: k, Null: true}
}

// IsNull reports whether v is the Null sentinel.
func (v Value) IsNull() bool {
	return v.Null
}

// String returns the cleaned value, or "Null" for the sentinel.
func (v Value) String() string {
	if v.Null {
		return NullLiteral
	}
	return v.Str
}

// Literal renders v as a SQL literal: quotes escaped as \' and wrapped in
// single quotes. Null renders unquoted.
func (v Value) Literal() string {
	if v.Null {
		return NullLiteral
	}
	return "'" + strings.ReplaceAll(v.Str, "'", `\'`) + "'"
}

// Arg returns the statement parameter for v.
// Int values bind as pgtype.Int8, everything else as pgtype.Text.
func (v Value) Arg() any {
	if v.Kind == KindInt {
		if v.Null {
			return pgtype.Int8{Valid: false}
		}
		n, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			return pgtype.Int8{Valid: false}
		}
		return pgtype.Int8{Int64: n, Valid: true}
	}
	if v.Null {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: v.Str, Valid: true}
}

// numeric reports whether v holds a value that parses as a number.
// Used by the any_end derivation only.
func (v Value) numeric() (float64, bool) {
	if v.Null || !numericRegex.MatchString(v.Str) {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Str, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
