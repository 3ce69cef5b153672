package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"esgrag/internal/domain"
	"esgrag/internal/usecase"
)

var sessionHistory bool

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or reset the stored session",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current report, its score and the chat history size",
	RunE:  runSessionShow,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the current report, its score and the chat history",
	RunE:  runSessionClear,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionClearCmd.Flags().BoolVar(&sessionHistory, "history", false, "only clear the chat history")
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.assistant.Document()
	switch {
	case errors.Is(err, domain.ErrNoDocument):
		fmt.Println("No report loaded.")
	case err != nil:
		return err
	default:
		fmt.Printf("Report:    %s\n", doc.Name)
		fmt.Printf("Uploaded:  %s\n", doc.UploadedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Size:      %d characters\n", len([]rune(doc.Text)))
	}

	if result, ok, err := a.assistant.StoredScore(); err != nil {
		return err
	} else if ok {
		fmt.Printf("Score:     %s/5.0 %s %s\n", usecase.FormatScore(result.Overall), usecase.TierEmoji(result.Tier), result.Tier)
	} else {
		fmt.Println("Score:     not calculated")
	}

	history, err := a.assistant.History()
	if err != nil {
		return err
	}
	fmt.Printf("Messages:  %d\n", len(history))
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if sessionHistory {
		if err := a.assistant.ClearHistory(); err != nil {
			return err
		}
		fmt.Println("🗑️ Chat history cleared.")
		return nil
	}

	if err := a.assistant.Reset(); err != nil {
		return err
	}
	fmt.Println("🗑️ Session cleared.")
	return nil
}
