package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askQuery string
	askMode  string
	askWeb   bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask the ESG analyst a question about the current report",
	Long: `Answer a question with the report passages as context. Questions mentioning
recent events (latest, news, regulation, 2025...) also use web search results.
"calculate score", "esg score", "show score" and "analyze score" print the ESG score.

Examples:
  esgrag ask -q "What is the company's carbon reduction target?"
  esgrag ask -q "Latest ESG regulations?" --mode detailed
  esgrag ask -q "esg score"`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question (required)")
	askCmd.Flags().StringVar(&askMode, "mode", "concise", "response mode (concise, detailed)")
	askCmd.Flags().BoolVar(&askWeb, "web", true, "enable web search for questions about recent events")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(askMode)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("web") {
		GetConfig().Search.Enabled = askWeb
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.assistant.Ask(cmd.Context(), askQuery, mode)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}
