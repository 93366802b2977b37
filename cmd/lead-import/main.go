package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/leads"
	"leadscore_backend/internal/leads/importer"
	leadservice "leadscore_backend/internal/leads/service"
	"leadscore_backend/internal/leads/transport"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"

	"github.com/spf13/cobra"
)

// leadImporter is the slice of the leads service used by the command.
type leadImporter interface {
	ImportCSV(ctx context.Context, upload leadservice.Upload) (transport.UploadResponse, error)
	ImportParsed(ctx context.Context, result importer.Result, source string) (transport.UploadResponse, error)
}

var (
	filePath string
	dryRun   bool
)

var rootCmd = &cobra.Command{
	Use:   "lead-import",
	Short: "Import leads from a CSV or XLSX sheet",
	Long:  "Parses a lead sheet with the same rules as the upload endpoint and appends the rows to the leads table.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if dryRun {
			result, err := parseFile(filePath)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "parsed %d leads, skipped %d rows\n", len(result.Records), result.Skipped)
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log := logger.New(cfg.Env)

		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		bus := events.NewInMemoryBus(log)
		defer bus.Wait()

		svc := leads.NewModule(pool, nil, "", bus, 0, log).Service()
		resp, err := importFile(ctx, svc, filePath)
		if err != nil {
			return err
		}

		log.Info("lead import complete", "file", filePath, "count", resp.Count, "skipped", resp.Skipped)
		return report(cmd.OutOrStdout(), resp)
	},
}

func init() {
	rootCmd.Flags().StringVar(&filePath, "file", "", "path to a .csv or .xlsx lead sheet (required)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the sheet and print counts without writing")
	_ = rootCmd.MarkFlagRequired("file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// importFile routes the sheet to the CSV or XLSX import path by extension.
func importFile(ctx context.Context, svc leadImporter, path string) (transport.UploadResponse, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err := os.ReadFile(path)
		if err != nil {
			return transport.UploadResponse{}, fmt.Errorf("read %s: %w", path, err)
		}
		return svc.ImportCSV(ctx, leadservice.Upload{
			FileName:    filepath.Base(path),
			ContentType: "text/csv",
			Data:        data,
			Source:      leadservice.SourceCLI,
		})
	case ".xlsx":
		result, err := importer.ParseXLSX(path)
		if err != nil {
			return transport.UploadResponse{}, err
		}
		return svc.ImportParsed(ctx, result, leadservice.SourceCLI)
	default:
		return transport.UploadResponse{}, fmt.Errorf("unsupported file type %q: expected .csv or .xlsx", filepath.Ext(path))
	}
}

func parseFile(path string) (importer.Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return importer.Result{}, fmt.Errorf("open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		return importer.ParseCSV(f)
	case ".xlsx":
		return importer.ParseXLSX(path)
	default:
		return importer.Result{}, fmt.Errorf("unsupported file type %q: expected .csv or .xlsx", filepath.Ext(path))
	}
}

func report(w io.Writer, resp transport.UploadResponse) error {
	_, err := fmt.Fprintf(w, "%s: %d imported, %d skipped\n", resp.Message, resp.Count, resp.Skipped)
	return err
}
