package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/domain/migration"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/infrastructure/persistence"
	"github.com/Laurentvial/LeadFlow-sub003/modules/crm/services"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/configuration"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/eventbus"
	"github.com/Laurentvial/LeadFlow-sub003/pkg/tabular"
)

type runOptions struct {
	File           string
	BatchSize      int
	FirstRowData   bool
	DedupOnEmail   bool
	FailedOutPath  string
	UpdatedOutPath string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run --file <path>",
		Short: "Ingest a legacy export, auto-map it and commit it in batches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.File) == "" {
				return errors.New("--file is required")
			}
			return runMigration(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "CSV or xlsx export to migrate")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "rows per bulk request (defaults to MIGRATION_BATCH_SIZE)")
	cmd.Flags().BoolVar(&opts.FirstRowData, "first-row-data", false, "treat the first row as data instead of headers")
	cmd.Flags().BoolVar(&opts.DedupOnEmail, "dedup-email", true, "exclude rows duplicating an earlier email")
	cmd.Flags().StringVar(&opts.FailedOutPath, "failed-out", "", "write the failed-rows CSV here")
	cmd.Flags().StringVar(&opts.UpdatedOutPath, "updated-out", "", "write the updated-rows CSV here")
	return cmd
}

func runMigration(ctx context.Context, opts runOptions) error {
	conf := configuration.Use()
	log := conf.Logger()

	data, err := os.ReadFile(opts.File)
	if err != nil {
		return err
	}
	if int64(len(data)) > conf.Migration.MaxUploadSize {
		return fmt.Errorf("file exceeds the configured size limit of %d bytes", conf.Migration.MaxUploadSize)
	}

	tableOpts := tabular.Options{TreatFirstRowAsData: opts.FirstRowData}
	var table *tabular.Table
	if strings.EqualFold(filepath.Ext(opts.File), ".xlsx") {
		table, err = tabular.ParseWorkbook(data, tableOpts)
	} else {
		table, err = tabular.ParseCSV(data, tableOpts)
	}
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return err
	}
	defer pool.Close()

	references := persistence.NewPgReferenceRepository(pool)
	store := persistence.NewPgContactStore(pool)
	scheduler := persistence.NewPgAppointmentRepository(pool)

	fieldMapping := services.NewFieldMappingService(migration.ContactFields())
	valueMapping := services.NewValueMappingService(references, references, references, references)
	reconciler := services.NewReconciler(store, log)
	orchestrator := services.NewMigrationService(store, scheduler, log, eventbus.NewEventPublisher(log))
	export := services.NewExportService(migration.ContactFields())
	session := services.NewSessionService(fieldMapping, valueMapping, reconciler, orchestrator, export)

	session.SetTable(table)
	_, mapped, err := session.AutoMap()
	if err != nil {
		return err
	}
	fmt.Printf("mapped %d fields across %d columns\n", mapped, len(table.Headers))
	if _, err := session.AutoMapValues(ctx); err != nil {
		return err
	}

	duplicates, err := session.Prepare(ctx, opts.DedupOnEmail)
	if err != nil {
		return err
	}
	if duplicates > 0 {
		fmt.Printf("excluding %d duplicate rows found in the file\n", duplicates)
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = conf.Migration.BatchSize
	}
	report, err := session.Commit(ctx, batchSize, func(processed, total int) {
		fmt.Printf("\r%d/%d rows", processed, total)
	})
	if err != nil {
		return err
	}
	fmt.Println()

	fmt.Printf("total: %d  succeeded: %d (created %d, updated %d)  failed: %d\n",
		report.Total, report.Succeeded, report.Created, report.Updated, report.Failed)
	for reason, n := range report.FailureReasons {
		fmt.Printf("  %s: %d\n", reason, n)
	}

	if opts.FailedOutPath != "" && report.Failed > 0 {
		csvData, err := session.FailedRowsCSV()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.FailedOutPath, csvData, 0o644); err != nil {
			return err
		}
	}
	if opts.UpdatedOutPath != "" && report.Updated > 0 {
		csvData, err := session.UpdatedRowsCSV()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.UpdatedOutPath, csvData, 0o644); err != nil {
			return err
		}
	}

	orchestrator.WaitDetached()
	return nil
}
