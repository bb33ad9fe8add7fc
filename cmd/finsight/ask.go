package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askDocIDs []string
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringSliceVar(&askDocIDs, "doc", nil, "restrict to the given document IDs")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	question := strings.Join(args, " ")
	answer := engine.Ask(cmd.Context(), question, askDocIDs...)

	if askJSON {
		out, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Println(answer.Text)
	if answer.Quote != "" {
		cmd.Printf("\n> %s\n", answer.Quote)
	}
	for _, v := range answer.Values {
		cmd.Printf("\n%s (page %d): %s", v.TableID, v.Page, v.RawText)
		if v.Unit != "" {
			cmd.Printf(" [%s]", v.Unit)
		}
		cmd.Println()
	}
	if len(answer.Citations) > 0 {
		cmd.Println("\nSources:")
		for _, c := range answer.Citations {
			cmd.Printf("  %s, page %d\n", c.DocumentName, c.Page)
		}
	}
	cmd.Printf("\nconfidence: %s\n", answer.Confidence)
	return nil
}
