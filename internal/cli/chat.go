package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"esgrag/internal/domain"
	"esgrag/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the analyst about the current report",
	Long: `Open an interactive chat. Type "ESG score" to score the current report,
Ctrl+T switches between concise and detailed answers, Esc quits.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	name := ""
	doc, err := a.assistant.Document()
	switch {
	case errors.Is(err, domain.ErrNoDocument):
	case err != nil:
		return fmt.Errorf("failed to load session: %w", err)
	default:
		name = doc.Name
	}

	p := tea.NewProgram(tui.New(cmd.Context(), a.assistant, name), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}
