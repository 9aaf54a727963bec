// Package trials imports the clinical trials CSV export into the
// trials_data table.
//
// A run is triggered by a "CSV loaded" event carrying the parsed rows and
// the original file name. Only the configured export name is acted on. For
// that file the importer reads the ids already stored, normalizes each row
// into a fixed set of 43 columns, classifies each row as an insert or an
// update against that snapshot, and applies the batch in row order inside
// one transaction. The first failing statement aborts the run.
//
// Normalization never fails. Missing columns read as empty strings; empty
// years and non-integer totals become SQL NULL, while empty text stays an
// empty string.
package trials
