package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Show the report passages most relevant to a query",
	Long: `Retrieve the passages of the current report nearest to the query, nearest first.

Examples:
  esgrag query -q "scope 3 emissions"
  esgrag query -q "board independence" --top-k 5 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of passages (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

type passageResult struct {
	Rank int    `json:"rank"`
	Text string `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	passages, err := a.assistant.Retrieve(cmd.Context(), queryText, queryTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]passageResult, 0, len(passages))
	for i, p := range passages {
		results = append(results, passageResult{Rank: i + 1, Text: p})
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No passages found. Run 'esgrag ingest <report>' first.")
		return nil
	}
	fmt.Printf("Found %d passages for: %s\n\n", len(results), queryText)
	for _, r := range results {
		fmt.Printf("--- [%d] ---\n", r.Rank)
		text := []rune(r.Text)
		if len(text) > 500 {
			text = append(text[:500], []rune("...")...)
		}
		fmt.Println(string(text))
		fmt.Println()
	}
	return nil
}
