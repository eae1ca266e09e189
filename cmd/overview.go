package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/returnlens-cli/internal/analysis"
	"github.com/KaramelBytes/returnlens-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	ovFormat   string
	ovHeadRows int
	ovOutput   string
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show dataset shape, first rows, column types and summary statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		head := cfg.HeadRows
		if ovHeadRows > 0 {
			head = ovHeadRows
		}
		p := analysis.NewProfile(ds, head)

		var out []byte
		switch strings.ToLower(ovFormat) {
		case "table", "":
			if ovOutput != "" {
				return fmt.Errorf("--output requires --format md or json")
			}
			p.WriteTables(cmd.OutOrStdout())
			return nil
		case "md", "markdown":
			out = []byte(p.Markdown())
		case "json":
			b, err := utils.PrettyJSON(p)
			if err != nil {
				return err
			}
			out = append(b, '\n')
		default:
			return fmt.Errorf("unsupported --format: %s (use table|md|json)", ovFormat)
		}
		if ovOutput != "" {
			if err := utils.SafeWriteFile(ovOutput, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote overview to %s\n", ovOutput)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd)
	overviewCmd.Flags().StringVarP(&ovFormat, "format", "f", "table", "output format: table|md|json")
	overviewCmd.Flags().IntVar(&ovHeadRows, "head", 0, "number of leading rows to show (default from config)")
	overviewCmd.Flags().StringVarP(&ovOutput, "output", "o", "", "write the overview to a file instead of stdout")
}
