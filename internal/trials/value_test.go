package trials

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestValue_Arg(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want any
	}{
		{"text", Text("Hello"), pgtype.Text{String: "Hello", Valid: true}},
		{"empty text is not null", Text(""), pgtype.Text{String: "", Valid: true}},
		{"null year", Null(KindYear), pgtype.Text{}},
		{"year", CleanYear("2001"), pgtype.Text{String: "2001", Valid: true}},
		{"int", CleanInt(" 42 "), pgtype.Int8{Int64: 42, Valid: true}},
		{"null int", CleanInt("n/a"), pgtype.Int8{}},
		{"quote unescaped", Text("it's"), pgtype.Text{String: "it's", Valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Arg(); got != tt.want {
				t.Errorf("Arg() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestValue_Literal(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Text("plain"), "'plain'"},
		{Text("it's"), `'it\'s'`},
		{Text(""), "''"},
		{Null(KindYear), "Null"},
		{Null(KindInt), "Null"},
		{CleanYesNo("", "Y"), "'Y'"},
	}

	for _, tt := range tests {
		if got := tt.v.Literal(); got != tt.want {
			t.Errorf("%#v.Literal() = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestValue_NullIsNotTheString(t *testing.T) {
	// A cell that literally says Null is text, not the sentinel.
	v := CleanText("Null")
	if v.IsNull() {
		t.Fatal(`CleanText("Null") is the Null sentinel`)
	}
	if got := v.Literal(); got != "'Null'" {
		t.Errorf("Literal() = %s, want 'Null'", got)
	}
	if got := v.Arg(); got != (pgtype.Text{String: "Null", Valid: true}) {
		t.Errorf("Arg() = %#v, want valid text", got)
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindText:  "text",
		KindYear:  "year",
		KindYesNo: "yesno",
		KindSlug:  "slug",
		KindInt:   "int",
		Kind(99):  "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
