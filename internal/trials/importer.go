package trials

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/trialsdata/internal/logging"
)

// DefaultExpectedFilename is the only file name the importer acts on.
const DefaultExpectedFilename = "trials-data.csv"

// Options configures an Importer. Zero values take the defaults.
type Options struct {
	ExpectedFilename string        // Exact, case-sensitive match
	Timeout          time.Duration // Per run; 0 means no extra deadline
	Limiter          *RunLimiter   // Optional; nil runs without queueing
}

// Importer handles "CSV loaded" events for the trials export.
type Importer struct {
	store    *Store
	expected string
	timeout  time.Duration
	limiter  *RunLimiter
}

// NewImporter returns an importer writing through store.
func NewImporter(store *Store, opts Options) *Importer {
	if opts.ExpectedFilename == "" {
		opts.ExpectedFilename = DefaultExpectedFilename
	}
	return &Importer{
		store:    store,
		expected: opts.ExpectedFilename,
		timeout:  opts.Timeout,
		limiter:  opts.Limiter,
	}
}

// Result reports the outcome of one event.
// Handled is false when the file was not the trials export.
type Result struct {
	Handled  bool          `json:"handled"`
	RunID    uuid.UUID     `json:"run_id,omitempty"`
	Filename string        `json:"filename"`
	Rows     int           `json:"rows"`
	Inserted int           `json:"inserted"`
	Updated  int           `json:"updated"`
	Duration time.Duration `json:"duration_ns"`

	// MissingColumns lists source headers absent from the rows.
	MissingColumns []string `json:"missing_columns,omitempty"`
}

// PlanResult is a dry run: the operations a run would apply.
type PlanResult struct {
	Handled    bool        `json:"handled"`
	Filename   string      `json:"filename"`
	Operations []Operation `json:"-"`
	Summary    Summary     `json:"summary"`
	Script     string      `json:"script,omitempty"`

	MissingColumns []string `json:"missing_columns,omitempty"`
}

// Recognizes reports whether filename is the trials export.
func (im *Importer) Recognizes(filename string) bool {
	return filename == im.expected
}

// ExpectedFilename returns the file name the importer acts on.
func (im *Importer) ExpectedFilename() string {
	return im.expected
}

// HandleCSVLoaded imports rows when filename is the trials export.
//
// Any other filename is a no-op: the result has Handled=false and the error
// is nil. Otherwise the existing ids are read, every row is normalized and
// classified, and the batch is applied in one transaction. Storage failures
// wrap ErrStorageConnection or ErrStorageQuery.
func (im *Importer) HandleCSVLoaded(ctx context.Context, rows []RawRow, filename string) (*Result, error) {
	if !im.Recognizes(filename) {
		logging.FromContext(ctx).Debug("ignoring csv", "filename", filename, "expected", im.expected)
		return &Result{Handled: false, Filename: filename}, nil
	}

	if im.limiter != nil {
		if err := im.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer im.limiter.Release()
	}

	if im.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, im.timeout)
		defer cancel()
	}

	start := time.Now()
	result := &Result{
		Handled:  true,
		RunID:    uuid.New(),
		Filename: filename,
		Rows:     len(rows),
	}
	logger := logging.WithFields(ctx, "run_id", result.RunID, "filename", filename)
	logger.Info("import started", "rows", len(rows))

	ops, sum, err := im.plan(ctx, rows)
	if err != nil {
		logger.Error("import failed", "stage", "existing_ids", "error", err)
		return nil, err
	}
	result.MissingColumns = im.checkColumns(logger, rows)

	if err := im.store.Apply(ctx, ops); err != nil {
		logger.Error("import failed", "stage", "apply", "error", err)
		return nil, err
	}

	result.Inserted = sum.Inserts
	result.Updated = sum.Updates
	result.Duration = time.Since(start)

	logger.Info("import completed",
		"inserted", result.Inserted,
		"updated", result.Updated,
		"duration", result.Duration,
	)
	return result, nil
}

// Plan runs the gate, id snapshot, normalization and reconciliation without
// writing anything.
func (im *Importer) Plan(ctx context.Context, rows []RawRow, filename string) (*PlanResult, error) {
	if !im.Recognizes(filename) {
		return &PlanResult{Handled: false, Filename: filename}, nil
	}

	ops, sum, err := im.plan(ctx, rows)
	if err != nil {
		return nil, err
	}

	return &PlanResult{
		Handled:        true,
		Filename:       filename,
		Operations:     ops,
		Summary:        sum,
		Script:         im.store.Script(ops),
		MissingColumns: im.checkColumns(logging.FromContext(ctx), rows),
	}, nil
}

func (im *Importer) plan(ctx context.Context, rows []RawRow) ([]Operation, Summary, error) {
	existing, err := im.store.ExistingIDs(ctx)
	if err != nil {
		return nil, Summary{}, err
	}

	ops, sum := Reconcile(NormalizeAll(rows), existing)
	logging.FromContext(ctx).Debug("batch planned",
		"existing", len(existing),
		"inserts", sum.Inserts,
		"updates", sum.Updates,
	)
	return ops, sum, nil
}

// checkColumns logs the expected headers no row carries. The run still
// proceeds; those fields read as empty.
func (im *Importer) checkColumns(logger *slog.Logger, rows []RawRow) []string {
	if len(rows) == 0 {
		return nil
	}
	missing := MissingColumns(headerOf(rows))
	if len(missing) > 0 {
		logger.Warn("export is missing columns", "columns", missing)
	}
	return missing
}

// headerOf returns the union of keys across rows.
func headerOf(rows []RawRow) []string {
	seen := make(map[string]bool)
	var header []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	return header
}
