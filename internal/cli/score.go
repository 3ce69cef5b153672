package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"esgrag/internal/domain"
	"esgrag/internal/port"
	"esgrag/internal/usecase"
)

var (
	scoreJSON     bool
	scoreHTML     bool
	scoreParallel bool
	scoreForce    bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the ESG risk score of the current report",
	Long: `Scan the report for weighted ESG keywords and compute environmental, social
and governance scores on a 1-5 scale (1 = high risk, 5 = low risk). The score is
stored in the session and reused until the report or the scoring rules change.

Examples:
  esgrag score
  esgrag score --json
  esgrag score --html > summary.html
  esgrag score --parallel --force`,
	RunE: runScore,
}

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "List ESG gaps and recommendations for the current report",
	RunE:  runGaps,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(gapsCmd)
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "output as JSON")
	scoreCmd.Flags().BoolVar(&scoreHTML, "html", false, "output the summary as HTML")
	scoreCmd.Flags().BoolVar(&scoreParallel, "parallel", false, "scan analysis blocks in parallel")
	scoreCmd.Flags().BoolVar(&scoreForce, "force", false, "recompute even if a stored score exists")
}

// newScoreBar renders scoring progress events on stderr.
func newScoreBar() (*progressbar.ProgressBar, port.ProgressObserver) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Scoring[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
	obs := port.ProgressFunc(func(ev domain.ProgressEvent) {
		bar.Describe(ev.Message)
		bar.Set(ev.Percent)
	})
	return bar, obs
}

func scoreDocument(cmd *cobra.Command, a *app, force bool) (*domain.ScoreResult, error) {
	_, obs := newScoreBar()
	result, err := a.assistant.Score(cmd.Context(), obs, force)
	switch {
	case errors.Is(err, domain.ErrNoDocument):
		return nil, errors.New("please upload an ESG report first: run 'esgrag ingest <report>'")
	case errors.Is(err, domain.ErrScoringFailure):
		return nil, fmt.Errorf("failed to calculate ESG score, please try again: %w", err)
	case err != nil:
		return nil, err
	}
	return result, nil
}

func runScore(cmd *cobra.Command, args []string) error {
	if scoreJSON && scoreHTML {
		return errors.New("cannot specify both --json and --html")
	}
	if cmd.Flags().Changed("parallel") {
		GetConfig().Scoring.Parallel = scoreParallel
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := scoreDocument(cmd, a, scoreForce)
	if err != nil {
		return err
	}

	switch {
	case scoreJSON:
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	case scoreHTML:
		html, err := usecase.RenderSummaryHTML(result)
		if err != nil {
			return err
		}
		fmt.Print(html)
	default:
		fmt.Print(usecase.RenderSummary(result))
		fmt.Printf("\nAnalysis blocks: %d\n", result.Blocks)
	}
	return nil
}

func runGaps(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := scoreDocument(cmd, a, false)
	if err != nil {
		return err
	}

	fmt.Println("### 📋 Recommendations:")
	fmt.Println(strings.Join(usecase.AnalyzeGaps(result), "\n"))
	return nil
}
