package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"esgrag/internal/domain"
)

var (
	promptQuery string
	promptMode  string
)

var runpromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the analyst prompt for a question without calling the model",
	Long: `Assemble the analyst prompt for a question from the report passages and, for
questions about recent events, web search results. The prompt is printed so it can
be fed to any LLM by hand.

Examples:
  esgrag prompt -q "What are the governance weaknesses?"
  esgrag prompt -q "Latest ESG regulation in the EU" --mode detailed`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(runpromptCmd)
	runpromptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "question (required)")
	runpromptCmd.Flags().StringVar(&promptMode, "mode", string(domain.ModeConcise), "response mode (concise, detailed)")
	runpromptCmd.MarkFlagRequired("query")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(promptMode)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	prompt, err := a.assistant.BuildPrompt(cmd.Context(), promptQuery, mode)
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}
	fmt.Println(prompt)
	return nil
}

func parseMode(s string) (domain.ResponseMode, error) {
	switch domain.ResponseMode(s) {
	case domain.ModeConcise, domain.ModeDetailed:
		return domain.ResponseMode(s), nil
	}
	return "", fmt.Errorf("unknown response mode %q (want concise or detailed)", s)
}
