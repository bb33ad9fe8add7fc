package main

import (
	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage ingested documents",
	RunE:  runDocumentsList,
}

var documentsTablesCmd = &cobra.Command{
	Use:   "tables [doc-id]",
	Short: "List a document's extracted tables",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsTables,
}

var documentsLogsCmd = &cobra.Command{
	Use:   "logs [doc-id]",
	Short: "Show a document's ingestion history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsLogs,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and all derived data",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

func init() {
	documentsCmd.AddCommand(documentsTablesCmd, documentsLogsCmd, documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
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
	for _, d := range docs {
		cmd.Printf("%s  %s  %d pages  %s\n", d.ID, d.DisplayName, d.PageCount, d.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func runDocumentsTables(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	tabs, err := engine.DocumentTables(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	for _, t := range tabs {
		name := string(t.Name)
		if name == "" {
			name = "-"
		}
		cmd.Printf("%s  page %d  %s  %s  %.2f  %s\n", t.TableID, t.Page, name, t.Unit, t.Confidence, t.Method)
	}
	return nil
}

func runDocumentsLogs(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	logs, err := engine.IngestionLogs(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	for _, l := range logs {
		cmd.Printf("%s  %s  chunks=%d tables=%d", l.StartedAt.Format("2006-01-02 15:04:05"), l.Status, l.ChunksExtracted, l.TablesExtracted)
		if l.Error != "" {
			cmd.Printf("  error=%s", l.Error)
		}
		cmd.Println()
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.DeleteDocument(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("deleted %s\n", args[0])
	return nil
}
