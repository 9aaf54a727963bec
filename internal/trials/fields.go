package trials

// DefaultTable is the target table for the trials export.
const DefaultTable = "trials_data"

// IDColumn is the primary key of the target table.
const IDColumn = "id"

// HeaderHints are the source headers that identify the header row of an
// export.
var HeaderHints = []string{"ID", "Title"}

// FieldSpec maps one target column to its source column and cleaning rule.
type FieldSpec struct {
	Column  string   // Target column in trials_data
	Source  string   // CSV header the value is read from
	Aliases []string // Alternate header spellings, tried when Source is absent
	Kind    Kind     // Cleaning rule
	Default string   // Substituted for empty yes/no values

	// Derive computes the value from the raw row and the fields cleaned so
	// far. Specs with Derive ignore Source and Kind.
	Derive func(row RawRow, rec Record) Value
}

// FieldSpecs lists every column of trials_data in table order.
// Derived fields come after the fields they read.
var FieldSpecs = []FieldSpec{
	{Column: "id", Source: "ID", Kind: KindText},
	{Column: "title", Source: "Title", Kind: KindText},
	{Column: "long_title", Source: "Long Title", Kind: KindText},
	{Column: "descriptor", Source: "Descriptor", Kind: KindText},
	{Column: "status", Source: "Status", Derive: deriveStatus},
	{Column: "status_full", Source: "Status", Kind: KindText},
	{Column: "supported_trial", Source: "Supported Trial", Kind: KindYesNo, Default: "N"},
	{Column: "support_role", Source: "Support Role", Kind: KindText},
	{Column: "follow-up-only", Source: "Follow-up only", Kind: KindYesNo, Default: "N"},
	{Column: "multi-single", Source: "Multi/single", Kind: KindText},
	{Column: "funder", Source: "Funder", Kind: KindText},
	{Column: "obstetric-neonatal", Source: "Obstetric/Neonatal", Aliases: []string{"Obstetric / Neonatal"}, Kind: KindText},
	{Column: "any_start", Source: "Any start", Kind: KindYear},
	{Column: "rec_start", Source: "Rec. start", Kind: KindYear},
	// The export has no start note column; the end note is reused.
	{Column: "rec_start_note", Source: "Rec. end note", Kind: KindText},
	{Column: "rec_end", Source: "Rec. end", Kind: KindYear},
	{Column: "rec_end_note", Source: "Rec. end note", Kind: KindText},
	{Column: "rec_target", Source: "Rec. target", Kind: KindText},
	{Column: "rec_total", Source: "Rec. total", Kind: KindInt},
	{Column: "rec_note", Source: "Rec. note", Kind: KindText},
	{Column: "grant_start", Source: "GRANT START DATE", Kind: KindYear},
	{Column: "grant_start_note", Source: "Grant start note", Kind: KindText},
	{Column: "grant_end", Source: "Grant end", Kind: KindYear},
	{Column: "grant_end_note", Source: "Grant end note", Kind: KindText},
	{Column: "any_end", Derive: deriveAnyEnd},
	{Column: "protocol_year", Source: "Protocol year", Kind: KindYear},
	{Column: "protocol_year_note", Source: "Protocol year note", Kind: KindText},
	{Column: "publications", Source: "Publications", Kind: KindText},
	{Column: "published_protocol", Source: "Published protocol", Kind: KindText},
	{Column: "initial_source", Source: "Initial source", Kind: KindText},
	{Column: "summary_of_results", Source: "Summary of Results", Kind: KindText},
	{Column: "web_include", Source: "Web include", Kind: KindYesNo, Default: "Y"},
	{Column: "web_landing_include", Source: "Landing include", Kind: KindYesNo, Default: "Y"},
	{Column: "web_home", Source: "Web alias", Kind: KindText},
	{Column: "alias", Source: "Web alias", Derive: deriveAlias},
	{Column: "eudract", Source: "EudraCT No.", Kind: KindText},
	{Column: "rec_ref", Source: "REC Reference", Kind: KindText},
	{Column: "isrctn", Source: "ISRCTN", Kind: KindText},
	{Column: "ctu", Source: "Clinical Trials Unit", Kind: KindText},
	{Column: "sponser", Source: "Sponsor", Kind: KindText},
	{Column: "controller", Source: "Data Controller", Kind: KindText},
	{Column: "duration", Source: "Duration of study", Kind: KindText},
	{Column: "logo_alt", Source: "Logo alt text", Kind: KindText},
}

// Columns returns the target column names in table order.
func Columns() []string {
	cols := make([]string, len(FieldSpecs))
	for i, spec := range FieldSpecs {
		cols[i] = spec.Column
	}
	return cols
}

// SourceColumns returns the distinct CSV headers the normalizer reads,
// in first-use order.
func SourceColumns() []string {
	seen := make(map[string]bool, len(FieldSpecs))
	var cols []string
	for _, spec := range FieldSpecs {
		if spec.Source == "" || seen[spec.Source] {
			continue
		}
		seen[spec.Source] = true
		cols = append(cols, spec.Source)
	}
	return cols
}

// MissingColumns returns the source headers absent from header, in
// SourceColumns order. A header counts as present when any of its aliases is.
// Missing columns still normalize, reading as empty.
func MissingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, src := range SourceColumns() {
		if present[src] || aliasPresent(src, present) {
			continue
		}
		missing = append(missing, src)
	}
	return missing
}

func aliasPresent(source string, present map[string]bool) bool {
	for _, spec := range FieldSpecs {
		if spec.Source != source {
			continue
		}
		for _, alias := range spec.Aliases {
			if present[alias] {
				return true
			}
		}
	}
	return false
}
