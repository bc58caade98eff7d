// Command ingest replaces the job table with the contents of a clinic spreadsheet export.
//
//	ingest --file registro_lab.csv
//	ingest --s3-key imports/registro_lab.xlsx --dry-run
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kendall-kelly/lab-digital-api/config"
	"github.com/kendall-kelly/lab-digital-api/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type ingestOptions struct {
	file        string
	s3Key       string
	databaseURL string
	dryRun      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Reload the job table from a spreadsheet export",
		Long: `Reads a CSV (comma or semicolon separated, optional BOM) or XLSX export with the
14 job columns in order, removes blank rows, rows without a numeric identifier and
duplicate identifiers (the last row wins), then replaces the whole job table.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "local spreadsheet to load")
	cmd.Flags().StringVar(&opts.s3Key, "s3-key", "", "object key of a spreadsheet in AWS_S3_BUCKET")
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", "", "database to load into (defaults to DATABASE_URL)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "parse and report without touching the database")
	cmd.MarkFlagsMutuallyExclusive("file", "s3-key")
	cmd.MarkFlagsOneRequired("file", "s3-key")

	return cmd
}

func runIngest(ctx context.Context, opts *ingestOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.databaseURL != "" {
		if err := os.Setenv("DATABASE_URL", opts.databaseURL); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	name, source, err := openSource(ctx, opts, cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	db, err := config.ConnectDatabase(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	report, err := services.NewIngestService(db, logger).Ingest(ctx, name, source, opts.dryRun)
	if err != nil {
		var svcErr *services.Error
		if errors.As(err, &svcErr) {
			logger.Error("ingestion failed", zap.String("code", svcErr.Code), zap.String("source", name), zap.Error(err))
		}
		return fmt.Errorf("ingest %s: %w", name, err)
	}

	logger.Info("ingestion finished", zap.String("source", name), zap.Stringer("report", report))
	if report.DryRun {
		fmt.Fprintf(out, "dry run: %d rows would be loaded from %s\n", report.RowsRead-report.EmptyRowsDropped-report.InvalidIdentifiersDropped-report.DuplicatesRemoved, name)
	} else {
		fmt.Fprintf(out, "loaded %d rows from %s\n", report.RowsLoaded, name)
	}
	fmt.Fprintln(out, report.String())
	return nil
}

// openSource returns the spreadsheet named by --file or downloaded from --s3-key.
func openSource(ctx context.Context, opts *ingestOptions, cfg *config.Config) (string, io.ReadCloser, error) {
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return "", nil, fmt.Errorf("open %s: %w", opts.file, err)
		}
		return filepath.Base(opts.file), f, nil
	}

	storage := services.GetS3Service()
	if storage == nil {
		var err error
		if storage, err = services.InitS3Service(ctx, cfg); err != nil {
			return "", nil, err
		}
	}
	data, err := storage.DownloadObject(ctx, opts.s3Key)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(opts.s3Key), io.NopCloser(bytes.NewReader(data)), nil
}
