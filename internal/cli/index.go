package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"esgrag/internal/adapter/extract"
	"esgrag/internal/adapter/fs"
	"esgrag/internal/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <report>",
	Short: "Extract and index an ESG report",
	Long: `Extract the text of an ESG report and build the retrieval index for it.
The report becomes the current document of the session stored in .esgrag/session.db.
Supported formats: PDF, DOCX, XLSX, TXT and Markdown.

A directory argument must contain exactly one report.

Examples:
  esgrag ingest sustainability-2024.pdf
  esgrag ingest ./reports/acme`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	walker := fs.NewWalker(cfg.Extract.Includes, cfg.Extract.Excludes)
	path, err := walker.Resolve(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Processing %s...\n", filepath.Base(path))
	start := time.Now()

	text, err := extract.NewRegistry().Extract(path)
	if err != nil {
		return fmt.Errorf("failed to process report: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.assistant.LoadDocument(cmd.Context(), domain.Document{
		Name:   filepath.Base(path),
		Source: path,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	fmt.Printf("✅ Processed: %s\n", filepath.Base(path))
	fmt.Printf("📊 Created %d text chunks\n", result.Chunks)
	fmt.Printf("  Characters:   %d\n", result.Runes)
	fmt.Printf("  Model:        %s (%d dimensions)\n", result.Model, result.Dimension)
	fmt.Printf("  Took:         %s\n", formatDuration(time.Since(start)))
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
