package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsawler/finsight/ingest"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate [pdf-dir]",
	Short: "Re-extract tables from source PDFs and compare with the store",
	Long: `Validate re-runs table extraction against the original PDFs and compares
the result with the stored tables, reporting per-table match status and
overall accuracy. Each ingested document is looked up in pdf-dir by its
file name; documents whose PDF is missing are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the validation reports as JSON")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.Documents(cmd.Context())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Println("no documents ingested")
		return nil
	}

	var reports []*ingest.ValidationReport
	for _, doc := range docs {
		path := filepath.Join(args[0], doc.FileName)
		if _, err := os.Stat(path); err != nil {
			cmd.Printf("skipping %s: %s not found\n", doc.ID, path)
			continue
		}

		report, err := engine.ValidateDocument(cmd.Context(), doc.ID, path)
		if err != nil {
			cmd.Printf("skipping %s: %v\n", doc.ID, err)
			continue
		}
		reports = append(reports, report)

		if validateJSON {
			continue
		}
		printReport(cmd, doc.DisplayName, report)
	}

	if validateJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	if len(reports) > 1 {
		var tables, matched int
		for _, r := range reports {
			tables += r.StoredTables
			matched += r.Matched
		}
		accuracy := 0.0
		if tables > 0 {
			accuracy = float64(matched) / float64(tables) * 100
		}
		cmd.Printf("\noverall: %d documents, %d/%d tables matched (%.1f%%)\n",
			len(reports), matched, tables, accuracy)
	}
	return nil
}

func printReport(cmd *cobra.Command, name string, r *ingest.ValidationReport) {
	cmd.Printf("%s (%s)\n", name, r.DocumentID)
	cmd.Printf("  stored tables: %d, re-extracted: %d\n", r.StoredTables, r.FreshTables)
	for _, t := range r.Tables {
		switch t.Status {
		case ingest.ValidationNoMatch:
			cmd.Printf("  %s  page %d  no_match (nothing re-extracted at this position)\n", t.TableID, t.Page)
		case ingest.ValidationMismatch:
			cmd.Printf("  %s  page %d  mismatch (stored %d rows, fresh %d)\n",
				t.TableID, t.Page, t.StoredGridRows, t.FreshGridRows)
		default:
			cmd.Printf("  %s  page %d  match (%d rows, confidence %.2f)\n",
				t.TableID, t.Page, t.StoredGridRows, t.Confidence)
		}
	}
	cmd.Printf("  accuracy %.1f%%, average confidence %.2f\n", r.Accuracy, r.AvgConfidence)
}
