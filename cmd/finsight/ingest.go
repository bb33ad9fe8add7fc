package main

import (
	"github.com/spf13/cobra"

	"github.com/tsawler/finsight/ingest"
)

var (
	ingestName     string
	ingestCategory string
	ingestDate     string
	ingestTags     []string
	ingestReplace  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest PDF documents",
	Long: `Extracts text and tables from the given PDFs, generates embeddings and
stores everything locally. A file name that was already ingested is rejected
unless --replace is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "display name (single file only)")
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "", "document category")
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "document date (YYYY-MM-DD)")
	ingestCmd.Flags().StringSliceVar(&ingestTags, "tags", nil, "comma-separated tags")
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "replace an already ingested file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	meta := ingest.Meta{
		Category: ingestCategory,
		Date:     ingestDate,
		Tags:     ingestTags,
	}
	if len(args) == 1 {
		meta.DisplayName = ingestName
	}

	for _, path := range args {
		var run func() error
		if ingestReplace {
			run = func() error {
				doc, err := engine.Reingest(cmd.Context(), path, meta)
				if err == nil {
					cmd.Printf("replaced %s (%s, %d pages)\n", doc.FileName, doc.ID, doc.PageCount)
				}
				return err
			}
		} else {
			run = func() error {
				doc, err := engine.Ingest(cmd.Context(), path, meta)
				if err == nil {
					cmd.Printf("ingested %s (%s, %d pages)\n", doc.FileName, doc.ID, doc.PageCount)
				}
				return err
			}
		}
		if err := run(); err != nil {
			return err
		}
	}
	return nil
}
