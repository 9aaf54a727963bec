package trials

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	slugStripRegex  = regexp.MustCompile(`[^A-Za-z0-9_\s-]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	digitRegex      = regexp.MustCompile(`\d`)
)

// RawRow maps a CSV header to the raw cell value.
type RawRow map[string]string

// Get returns the raw value for column. A missing column reads as "".
func (r RawRow) Get(column string) string {
	return r[column]
}

// FromMaps converts decoded rows of any string map type to RawRows.
func FromMaps[M ~map[string]string](ms []M) []RawRow {
	rows := make([]RawRow, len(ms))
	for i, m := range ms {
		rows[i] = RawRow(m)
	}
	return rows
}

// Has reports whether column was present in the export.
func (r RawRow) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// lookup returns the value for spec's source column, falling back to the
// first alias that is present.
func (r RawRow) lookup(spec FieldSpec) string {
	if r.Has(spec.Source) {
		return r[spec.Source]
	}
	for _, alias := range spec.Aliases {
		if r.Has(alias) {
			return r[alias]
		}
	}
	return ""
}

// Record holds one cleaned row keyed by target column.
// Normalize always fills every column in FieldSpecs.
type Record map[string]Value

// ID returns the cleaned identifier used for reconciliation.
func (r Record) ID() string {
	return r[IDColumn].Str
}

// Without returns a copy of r without column.
func (r Record) Without(column string) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if k != column {
			out[k] = v
		}
	}
	return out
}

// CleanText trims surrounding whitespace. Empty input stays an empty text
// value; it never becomes Null.
func CleanText(raw string) Value {
	return Text(strings.TrimSpace(raw))
}

// CleanYear trims the value and turns an empty result into Null.
// The value is not checked for being numeric.
func CleanYear(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null(KindYear)
	}
	return Value{Kind: KindYear, Str: s}
}

// CleanYesNo upper-cases the trimmed value, substituting def when empty.
func CleanYesNo(raw, def string) Value {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		s = def
	}
	return Value{Kind: KindYesNo, Str: s}
}

// CleanInt returns the trimmed value when it is a base-10 integer and Null
// otherwise.
func CleanInt(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null(KindInt)
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return Null(KindInt)
	}
	return Value{Kind: KindInt, Str: s}
}

// Slugify builds a lower-case, hyphenated identifier from free text.
func Slugify(text string) Value {
	s := slugStripRegex.ReplaceAllString(text, "")
	s = strings.TrimSpace(s)
	s = whitespaceRegex.ReplaceAllString(s, "-")
	return Value{Kind: KindSlug, Str: strings.ToLower(s)}
}

// Normalize converts one raw row into a complete Record.
// It never fails: every rule has an output for every input.
func Normalize(row RawRow) Record {
	rec := make(Record, len(FieldSpecs))
	for _, spec := range FieldSpecs {
		if spec.Derive != nil {
			rec[spec.Column] = spec.Derive(row, rec)
			continue
		}
		rec[spec.Column] = clean(spec, row.lookup(spec))
	}
	return rec
}

// NormalizeAll normalizes rows in order.
func NormalizeAll(rows []RawRow) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = Normalize(row)
	}
	return out
}

func clean(spec FieldSpec, raw string) Value {
	switch spec.Kind {
	case KindYear:
		return CleanYear(raw)
	case KindYesNo:
		return CleanYesNo(raw, spec.Default)
	case KindInt:
		return CleanInt(raw)
	case KindSlug:
		return Slugify(raw)
	default:
		return CleanText(raw)
	}
}

// deriveStatus slugifies the status with its digits removed,
// e.g. "3. In follow-up" becomes "in-follow-up".
func deriveStatus(row RawRow, _ Record) Value {
	return Slugify(digitRegex.ReplaceAllString(row.Get("Status"), ""))
}

// deriveAlias uses the web alias column when the export has one,
// otherwise a slug of the title.
func deriveAlias(row RawRow, _ Record) Value {
	if row.Has("Web alias") {
		return CleanText(row.Get("Web alias"))
	}
	return Slugify(row.Get("Title"))
}

// deriveAnyEnd picks the later of the recruitment and grant end years.
// When either is not numeric it prefers rec_end, falling back to grant_end
// only when rec_end is Null.
func deriveAnyEnd(_ RawRow, rec Record) Value {
	recEnd, grantEnd := rec["rec_end"], rec["grant_end"]

	r, rOK := recEnd.numeric()
	g, gOK := grantEnd.numeric()
	if rOK && gOK {
		end, later := r, recEnd
		if g > r {
			end, later = g, grantEnd
		}
		// Outside int64 the cleaned text is kept as is.
		if math.Abs(end) >= math.MaxInt64 {
			return Value{Kind: KindYear, Str: later.Str}
		}
		return Value{Kind: KindYear, Str: strconv.FormatInt(int64(end), 10)}
	}

	if recEnd.IsNull() {
		return grantEnd
	}
	return recEnd
}
