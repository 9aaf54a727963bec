package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/trialsdata/internal/config"
	"github.com/JonMunkholm/trialsdata/internal/csvfile"
	"github.com/JonMunkholm/trialsdata/internal/logging"
	"github.com/JonMunkholm/trialsdata/internal/trials"
)

var cfg *config.Config

var (
	filePath string
	fileName string
	encoding string
)

// openPool connects to the database. Tests replace it with a mock pool.
var openPool = func(ctx context.Context, c *config.Config) (trials.Pool, func(), error) {
	poolConfig, err := pgxpool.ParseConfig(c.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(c.Database.MaxConns)
	poolConfig.MinConns = int32(c.Database.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", trials.ErrStorageConnection, err)
	}
	return pool, pool.Close, nil
}

var rootCmd = &cobra.Command{
	Use:   "trialsctl",
	Short: "Import the trials data CSV export into Postgres",
	Long: `Reads a trials export from disk and raises the same "CSV loaded" event
the server handles: rows are normalized, matched against existing ids and
written as inserts or updates in one transaction.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		// stdout carries command output; logs go to stderr.
		logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "", "path to the CSV export (required)")
	rootCmd.PersistentFlags().StringVar(&fileName, "name", "", "filename to report with the event (default: base name of --file)")
	rootCmd.PersistentFlags().StringVar(&encoding, "encoding", "", "CSV encoding, e.g. utf-8, windows-1252, iso-8859-1 (default: IMPORT_ENCODING)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEvent reads the CSV named by the flags and returns the event filename
// and rows. A file other than the trials export is not parsed.
func loadEvent(im *trials.Importer) (string, []trials.RawRow, error) {
	if filePath == "" {
		return "", nil, fmt.Errorf("--file is required")
	}

	name := fileName
	if name == "" {
		name = filepath.Base(filePath)
	}
	if !im.Recognizes(name) {
		return name, nil, nil
	}

	enc := encoding
	if enc == "" {
		enc = cfg.Import.Encoding
	}

	file, err := csvfile.ReadFile(filePath, csvfile.Options{
		Encoding: enc,
		MaxSize:  cfg.Import.MaxFileSize,
		Required: trials.HeaderHints,
	})
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return name, trials.FromMaps(file.Rows), nil
}

// newImporter opens the pool and builds an importer from cfg.
func newImporter(ctx context.Context) (*trials.Importer, *trials.Store, func(), error) {
	pool, closePool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	store := trials.NewStore(pool, cfg.Import.Table)
	im := trials.NewImporter(store, trials.Options{
		ExpectedFilename: cfg.Import.ExpectedFilename,
		Timeout:          cfg.Import.Timeout,
	})
	return im, store, closePool, nil
}

// userError prefixes known failures with their user message and code.
// Anything else is returned as is.
func userError(err error) error {
	if !trials.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%s (%w)", trials.FormatUserError(err), err)
}
