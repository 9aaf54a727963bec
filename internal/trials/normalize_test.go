package trials

import (
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantLiteral string
	}{
		{"trims whitespace", "  Hello  ", "Hello", "'Hello'"},
		{"empty stays empty", "", "", "''"},
		{"whitespace only", "   \t ", "", "''"},
		{"escapes quote", " it's ", "it's", `'it\'s'`},
		{"keeps inner spaces", "a  b", "a  b", "'a  b'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanText(tt.input)
			if got.IsNull() {
				t.Fatalf("CleanText(%q) returned Null", tt.input)
			}
			if got.Str != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got.Str, tt.want)
			}
			if lit := got.Literal(); lit != tt.wantLiteral {
				t.Errorf("CleanText(%q).Literal() = %s, want %s", tt.input, lit, tt.wantLiteral)
			}
		})
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	inputs := []string{"", " x ", "it's", "  O'Brien's trial ", "\tTabbed\n", `back\slash`}
	for _, in := range inputs {
		once := CleanText(in)
		twice := CleanText(once.Str)
		if once != twice {
			t.Errorf("CleanText not idempotent for %q: %#v then %#v", in, once, twice)
		}
		if once.Literal() != twice.Literal() {
			t.Errorf("Literal not idempotent for %q: %s then %s", in, once.Literal(), twice.Literal())
		}
	}
}

func TestCleanYear(t *testing.T) {
	tests := []struct {
		input    string
		want     string
		wantNull bool
	}{
		{"", "", true},
		{"   ", "", true},
		{"2001", "2001", false},
		{" 2001 ", "2001", false},
		{"c. 2001", "c. 2001", false},
		{"TBC", "TBC", false},
	}

	for _, tt := range tests {
		got := CleanYear(tt.input)
		if got.IsNull() != tt.wantNull {
			t.Errorf("CleanYear(%q).IsNull() = %v, want %v", tt.input, got.IsNull(), tt.wantNull)
			continue
		}
		if !tt.wantNull && got.Str != tt.want {
			t.Errorf("CleanYear(%q) = %q, want %q", tt.input, got.Str, tt.want)
		}
		if tt.wantNull && got.Literal() != "Null" {
			t.Errorf("CleanYear(%q).Literal() = %s, want unquoted Null", tt.input, got.Literal())
		}
	}
}

func TestCleanYesNo(t *testing.T) {
	tests := []struct {
		input string
		def   string
		want  string
	}{
		{"", "Y", "Y"},
		{"", "N", "N"},
		{"  ", "Y", "Y"},
		{"n", "Y", "N"},
		{" y ", "N", "Y"},
		{"yes", "N", "YES"},
	}

	for _, tt := range tests {
		got := CleanYesNo(tt.input, tt.def)
		if got.IsNull() {
			t.Errorf("CleanYesNo(%q, %q) returned Null", tt.input, tt.def)
		}
		if got.Str != tt.want {
			t.Errorf("CleanYesNo(%q, %q) = %q, want %q", tt.input, tt.def, got.Str, tt.want)
		}
	}
}

// The previous importer's integer cleaner tested the wrong variable and
// never validated anything. These cases pin the corrected behaviour.
func TestCleanInt(t *testing.T) {
	tests := []struct {
		input    string
		want     string
		wantNull bool
	}{
		{" 42 ", "42", false},
		{"0", "0", false},
		{"-3", "-3", false},
		{"+7", "+7", false},
		{"12a", "", true},
		{"4.5", "", true},
		{"1,200", "", true},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		got := CleanInt(tt.input)
		if got.IsNull() != tt.wantNull {
			t.Errorf("CleanInt(%q).IsNull() = %v, want %v", tt.input, got.IsNull(), tt.wantNull)
			continue
		}
		if !tt.wantNull && got.Str != tt.want {
			t.Errorf("CleanInt(%q) = %q, want %q", tt.input, got.Str, tt.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"A Trial, For Babies!", "a-trial-for-babies"},
		{"  Multi   word\tslug ", "multi-word-slug"},
		{"Already-slugged_value", "already-slugged_value"},
		{"Ünïcode & symbols", "ncode-symbols"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.input); got.Str != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got.Str, tt.want)
		}
	}
}

func TestNormalize_AnyEnd(t *testing.T) {
	tests := []struct {
		name     string
		recEnd   string
		grantEnd string
		want     string
		wantNull bool
	}{
		{"both numeric takes max", "2001", "2003", "2003", false},
		{"both numeric rec later", "2010", "2003", "2010", false},
		{"rec null falls back to grant", "", "2005", "2005", false},
		{"grant null keeps rec", "1999", "", "1999", false},
		{"both null", "", "", "", true},
		{"rec not numeric keeps rec", "ongoing", "2005", "ongoing", false},
		{"grant not numeric keeps rec", "2001", "TBC", "2001", false},
		{"rec null grant text", "", "TBC", "TBC", false},
		{"decimal truncates", "2019.5", "2003", "2019", false},
		{"huge rec is still the max", "99999999999999999999", "2001", "99999999999999999999", false},
		{"huge grant is still the max", "2001", "1e30", "1e30", false},
		{"negative huge loses", "-99999999999999999999", "2001", "2001", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Normalize(RawRow{"Rec. end": tt.recEnd, "Grant end": tt.grantEnd})
			got := rec["any_end"]
			if got.IsNull() != tt.wantNull {
				t.Fatalf("any_end.IsNull() = %v, want %v", got.IsNull(), tt.wantNull)
			}
			if got.String() != tt.want && !tt.wantNull {
				t.Errorf("any_end = %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestNormalize_Status(t *testing.T) {
	rec := Normalize(RawRow{"Status": "3. In follow-up"})

	if got := rec["status"].Str; got != "in-follow-up" {
		t.Errorf("status = %q, want %q", got, "in-follow-up")
	}
	if got := rec["status_full"].Str; got != "3. In follow-up" {
		t.Errorf("status_full = %q, want %q", got, "3. In follow-up")
	}
}

func TestNormalize_Alias(t *testing.T) {
	t.Run("falls back to slugified title", func(t *testing.T) {
		rec := Normalize(RawRow{"Title": "A Trial, For Babies!"})
		if got := rec["alias"].Str; got != "a-trial-for-babies" {
			t.Errorf("alias = %q, want %q", got, "a-trial-for-babies")
		}
		if got := rec["web_home"]; got.IsNull() || got.Str != "" {
			t.Errorf("web_home = %#v, want empty text", got)
		}
	})

	t.Run("uses web alias when present", func(t *testing.T) {
		rec := Normalize(RawRow{"Title": "A Trial", "Web alias": " babies "})
		if got := rec["alias"].Str; got != "babies" {
			t.Errorf("alias = %q, want %q", got, "babies")
		}
	})

	t.Run("empty web alias column is kept", func(t *testing.T) {
		rec := Normalize(RawRow{"Title": "A Trial", "Web alias": ""})
		if got := rec["alias"].Str; got != "" {
			t.Errorf("alias = %q, want empty", got)
		}
	})
}

func TestNormalize_RecStartNoteMirrorsEndNote(t *testing.T) {
	rec := Normalize(RawRow{"Rec. end note": "Extended twice"})

	if got := rec["rec_start_note"].Str; got != "Extended twice" {
		t.Errorf("rec_start_note = %q, want %q", got, "Extended twice")
	}
	if rec["rec_start_note"] != rec["rec_end_note"] {
		t.Errorf("rec_start_note %#v != rec_end_note %#v", rec["rec_start_note"], rec["rec_end_note"])
	}
}

func TestNormalize_ObstetricHeaderSpellings(t *testing.T) {
	tests := []struct {
		name string
		row  RawRow
		want string
	}{
		{"compact header", RawRow{"Obstetric/Neonatal": "Neonatal"}, "Neonatal"},
		{"spaced header", RawRow{"Obstetric / Neonatal": "Obstetric"}, "Obstetric"},
		{"compact wins", RawRow{"Obstetric/Neonatal": "A", "Obstetric / Neonatal": "B"}, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.row)["obstetric-neonatal"].Str; got != tt.want {
				t.Errorf("obstetric-neonatal = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_MissingColumnsReadAsEmpty(t *testing.T) {
	rec := Normalize(RawRow{})

	if len(rec) != len(FieldSpecs) {
		t.Fatalf("len(record) = %d, want %d", len(rec), len(FieldSpecs))
	}
	for _, col := range Columns() {
		if _, ok := rec[col]; !ok {
			t.Errorf("column %q missing from record", col)
		}
	}

	checks := map[string]string{
		"id":                  "''",
		"title":               "''",
		"status":              "''",
		"supported_trial":     "'N'",
		"follow-up-only":      "'N'",
		"web_include":         "'Y'",
		"web_landing_include": "'Y'",
		"any_start":           "Null",
		"rec_end":             "Null",
		"any_end":             "Null",
		"rec_total":           "Null",
		"alias":               "''",
	}
	for col, want := range checks {
		if got := rec[col].Literal(); got != want {
			t.Errorf("%s = %s, want %s", col, got, want)
		}
	}
}

func TestNormalize_FullRow(t *testing.T) {
	row := RawRow{
		"ID":                 " T001 ",
		"Title":              "Baby Trial",
		"Long Title":         "The Baby Trial",
		"Status":             "1. Recruiting",
		"Supported Trial":    "y",
		"Follow-up only":     "",
		"Any start":          "2018",
		"Rec. start":         "2019",
		"Rec. end":           "2021",
		"Rec. end note":      "Paused for Covid",
		"Rec. total":         "1,500",
		"GRANT START DATE":   "2018",
		"Grant end":          "2022",
		"Web include":        "n",
		"Landing include":    "",
		"Sponsor":            "Oxford",
		"Data Controller":    "NPEU",
		"Summary of Results": "Positive",
	}

	rec := Normalize(row)

	want := map[string]string{
		"id":                  "T001",
		"title":               "Baby Trial",
		"long_title":          "The Baby Trial",
		"status":              "recruiting",
		"status_full":         "1. Recruiting",
		"supported_trial":     "Y",
		"follow-up-only":      "N",
		"any_start":           "2018",
		"rec_start":           "2019",
		"rec_end":             "2021",
		"rec_start_note":      "Paused for Covid",
		"rec_total":           "Null",
		"grant_start":         "2018",
		"grant_end":           "2022",
		"any_end":             "2022",
		"web_include":         "N",
		"web_landing_include": "Y",
		"sponser":             "Oxford",
		"controller":          "NPEU",
		"summary_of_results":  "Positive",
		"alias":               "baby-trial",
	}
	for col, w := range want {
		if got := rec[col].String(); got != w {
			t.Errorf("%s = %q, want %q", col, got, w)
		}
	}
	if got := rec.ID(); got != "T001" {
		t.Errorf("ID() = %q, want %q", got, "T001")
	}
}

func TestColumns(t *testing.T) {
	cols := Columns()

	if len(cols) != 43 {
		t.Fatalf("len(Columns()) = %d, want 43", len(cols))
	}
	if cols[0] != IDColumn {
		t.Errorf("Columns()[0] = %q, want %q", cols[0], IDColumn)
	}

	seen := make(map[string]bool)
	for _, c := range cols {
		if seen[c] {
			t.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
}

func TestSourceColumns_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range SourceColumns() {
		if seen[c] {
			t.Errorf("duplicate source column %q", c)
		}
		seen[c] = true
	}
	if !seen["Rec. end note"] || !seen["Web alias"] {
		t.Error("SourceColumns() missing shared source headers")
	}
}

func TestMissingColumns(t *testing.T) {
	all := SourceColumns()

	if got := MissingColumns(all); len(got) != 0 {
		t.Errorf("MissingColumns(all) = %v, want none", got)
	}

	// The alias spelling satisfies the primary header.
	withAlias := make([]string, 0, len(all))
	for _, c := range all {
		if c == "Obstetric/Neonatal" {
			c = "Obstetric / Neonatal"
		}
		withAlias = append(withAlias, c)
	}
	if got := MissingColumns(withAlias); len(got) != 0 {
		t.Errorf("MissingColumns(alias) = %v, want none", got)
	}

	got := MissingColumns([]string{"ID", "Title", "id", "title"})
	if len(got) != len(all)-2 {
		t.Fatalf("len(MissingColumns) = %d, want %d", len(got), len(all)-2)
	}
	if got[0] != "Long Title" {
		t.Errorf("MissingColumns()[0] = %q, want Long Title (source order)", got[0])
	}
}
