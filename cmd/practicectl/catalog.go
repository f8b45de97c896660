package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pgRepo "github.com/yourusername/practice-api/internal/repository/postgres"
	"github.com/yourusername/practice-api/internal/service/catalog"
)

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Re-run the classifier over active questions and update their labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		report, err := catalog.Reclassify(cmd.Context(), pgRepo.NewQuestionRepo(e.db), catalog.ReclassifyOptions{
			DryRun:   dryRun,
			PageSize: pageSize,
		}, e.log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d changed=%d failed=%d dry_run=%t\n",
			report.Scanned, report.Changed, report.Failed, dryRun)
		return nil
	},
}

var importBankCmd = &cobra.Command{
	Use:   "import-bank FILE.xlsx",
	Short: "Import curated questions from a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		report, err := catalog.ImportBank(cmd.Context(), pgRepo.NewCuratedQuestionRepo(e.db), file, dryRun, e.log)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rows=%d imported=%d skipped=%d classified=%d dry_run=%t\n",
			report.Rows, report.Imported, report.Skipped, report.Classified, dryRun)
		return nil
	},
}

var exportStatsCmd = &cobra.Command{
	Use:   "export-stats OUT.xlsx",
	Short: "Export question catalog statistics by topic and difficulty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		stats, err := pgRepo.NewQuestionRepo(e.db).GetTopicStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("load stats: %w", err)
		}

		out, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := catalog.ExportStats(stats, out); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows to %s\n", len(stats), args[0])
		return nil
	},
}

func init() {
	reclassifyCmd.Flags().Bool("dry-run", false, "Only report label changes, do not write them")
	reclassifyCmd.Flags().Int("page-size", 200, "Questions per page")
	importBankCmd.Flags().Bool("dry-run", false, "Parse and classify rows without saving")
}
