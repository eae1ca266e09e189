package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/returnlens-cli/internal/analysis"
	"github.com/KaramelBytes/returnlens-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	anaQuestions []string
	anaFormat    string
	anaSummary   bool
	anaList      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [question-id...]",
	Short: "Answer return-rate questions over the dataset",
	Long: `Answer one or more questions from the analysis catalog. With no IDs every
question is answered; analyses whose columns are missing are skipped with a
warning. Use --list to print the catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if anaList {
			printCatalog(out)
			return nil
		}
		qs, err := selectQuestions(append(append([]string(nil), anaQuestions...), args...))
		if err != nil {
			return err
		}
		format := strings.ToLower(anaFormat)
		switch format {
		case "table", "md", "markdown", "json", "csv":
		default:
			return fmt.Errorf("unsupported --format: %s (use table|md|json|csv)", anaFormat)
		}

		ds, err := loadDataset()
		if err != nil {
			return err
		}
		runner := analysis.NewRunner(nil)
		results, skips, err := runner.RunAll(ds, qs)
		if err != nil {
			return err
		}
		reportSkips(cmd.ErrOrStderr(), skips)

		switch format {
		case "json":
			views := make([]analysis.View, 0, len(results))
			for _, r := range results {
				views = append(views, r.View())
			}
			var payload any = views
			if anaSummary {
				payload = struct {
					Analyses []analysis.View  `json:"analyses"`
					Summary  analysis.Summary `json:"summary"`
				}{views, analysis.FinalSummary()}
			}
			b, err := utils.PrettyJSON(payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		case "csv":
			for i, r := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "# %s\n", r.Question.Export)
				if err := r.WriteCSV(out); err != nil {
					return err
				}
			}
		case "md", "markdown":
			for _, r := range results {
				fmt.Fprintln(out, r.Markdown())
			}
		default:
			for _, r := range results {
				fmt.Fprintf(out, "%s\n", r.Question.Heading())
				if r.Empty() {
					fmt.Fprintln(out, "  (no data)")
				} else {
					r.WriteTable(out)
				}
				for _, w := range r.Warnings {
					fmt.Fprintf(out, "⚠ Warning: %s\n", w)
				}
				fmt.Fprintln(out)
			}
		}
		if anaSummary {
			fmt.Fprintln(out, analysis.FinalSummary().Markdown())
		}
		return nil
	},
}

// selectQuestions resolves IDs against the catalog; no IDs selects everything.
func selectQuestions(ids []string) ([]analysis.Question, error) {
	if len(ids) == 0 {
		return analysis.Catalog(), nil
	}
	var qs []analysis.Question
	seen := map[string]bool{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		q, ok := analysis.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown question %q (see 'returnlens analyze --list')", id)
		}
		seen[id] = true
		qs = append(qs, q)
	}
	return qs, nil
}

func reportSkips(w io.Writer, skips []analysis.Skip) {
	for _, s := range skips {
		fmt.Fprintf(w, "⚠ Warning: skipping %s: %v\n", s.Question.Heading(), s.Err)
		logger.Warn("analysis skipped", zap.String("id", s.Question.ID), zap.Error(s.Err))
	}
}

func printCatalog(w io.Writer) {
	for _, q := range analysis.Catalog() {
		fmt.Fprintf(w, "%-18s %s\n", q.ID, q.Heading())
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringSliceVarP(&anaQuestions, "question", "q", nil, "question IDs to answer (repeatable, comma-separated)")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "table", "output format: table|md|json|csv")
	analyzeCmd.Flags().BoolVar(&anaSummary, "summary", false, "append the final summary and action plan")
	analyzeCmd.Flags().BoolVar(&anaList, "list", false, "list the question catalog and exit")
}
