package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/returnlens-cli/internal/analysis"
	"github.com/KaramelBytes/returnlens-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	repOutDir    string
	repQuestions []string
	repPNG       bool
	repXLSX      bool
	repQuiet     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export every analysis to CSV and Markdown, with optional charts and workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		qs, err := selectQuestions(repQuestions)
		if err != nil {
			return err
		}
		dir := repOutDir
		if dir == "" {
			dir = cfg.ExportDir
		}
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		ds, err := loadDataset()
		if err != nil {
			return err
		}
		results, skips, err := analysis.NewRunner(nil).RunAll(ds, qs)
		if err != nil {
			return err
		}
		reportSkips(cmd.ErrOrStderr(), skips)

		chartOpt := analysis.ChartOptions{Width: cfg.ChartWidth, Height: cfg.ChartHeight}
		total := len(results)
		for i, r := range results {
			if !repQuiet {
				fmt.Fprintf(out, "[%d/%d] Writing %s...\n", i+1, total, r.Question.Export)
			}
			written, err := writeResult(dir, r, chartOpt)
			if err != nil {
				return err
			}
			for _, p := range written {
				if p.renamed && !repQuiet {
					fmt.Fprintf(out, "⚠ Detected existing file, writing to %s to avoid overwrite.\n", filepath.Base(p.path))
				}
			}
		}

		summaryPath := utils.UniquePath(filepath.Join(dir, "summary.md"))
		if err := utils.SafeWriteFile(summaryPath, []byte(analysis.FinalSummary().Markdown())); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}

		if repXLSX {
			if len(results) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Warning: no analyses to export, skipping workbook")
			} else {
				wb := utils.UniquePath(filepath.Join(dir, "returns.xlsx"))
				if err := analysis.WriteWorkbook(wb, results); err != nil {
					return err
				}
				if !repQuiet {
					fmt.Fprintf(out, "✓ Wrote workbook %s\n", wb)
				}
			}
		}
		logger.Info("report written", zap.String("dir", dir), zap.Int("analyses", total), zap.Int("skipped", len(skips)))
		if !repQuiet {
			fmt.Fprintf(out, "✓ Exported %d analyses to %s (%d skipped)\n", total, dir, len(skips))
		}
		return nil
	},
}

type writtenFile struct {
	path    string
	renamed bool
}

// writeResult writes the CSV and Markdown (and PNG when enabled) for r,
// never overwriting an existing file.
func writeResult(dir string, r *analysis.Result, chartOpt analysis.ChartOptions) ([]writtenFile, error) {
	stem := strings.TrimSuffix(r.Question.Export, filepath.Ext(r.Question.Export))
	var files []writtenFile
	put := func(name string, data []byte) error {
		want := filepath.Join(dir, name)
		path := utils.UniquePath(want)
		if err := utils.SafeWriteFile(path, data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		files = append(files, writtenFile{path: path, renamed: path != want})
		return nil
	}

	var buf bytes.Buffer
	if err := r.WriteCSV(&buf); err != nil {
		return nil, err
	}
	if err := put(stem+".csv", buf.Bytes()); err != nil {
		return nil, err
	}
	if err := put(stem+".md", []byte(r.Markdown())); err != nil {
		return nil, err
	}
	if repPNG {
		buf.Reset()
		if err := r.RenderPNG(&buf, chartOpt); err != nil {
			// A missing chart does not fail the export.
			logger.Warn("chart skipped", zap.String("id", r.Question.ID), zap.Error(err))
		} else if err := put(stem+".png", buf.Bytes()); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repOutDir, "out", "o", "", "output directory (default from config export_dir)")
	reportCmd.Flags().StringSliceVarP(&repQuestions, "question", "q", nil, "question IDs to export (default all)")
	reportCmd.Flags().BoolVar(&repPNG, "png", false, "also render a PNG chart per analysis")
	reportCmd.Flags().BoolVar(&repXLSX, "xlsx", false, "also write every analysis into returns.xlsx")
	reportCmd.Flags().BoolVar(&repQuiet, "quiet", false, "suppress progress output")
}
