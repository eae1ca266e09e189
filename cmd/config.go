package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/returnlens-cli/internal/config"
	"github.com/KaramelBytes/returnlens-cli/internal/dataset"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set ReturnLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "data_path: %s\n", cfg.DataPath)
		if cfg.SheetName != "" {
			fmt.Fprintf(out, "sheet_name: %s\n", cfg.SheetName)
		}
		fmt.Fprintf(out, "sheet_index: %d\n", cfg.SheetIndex)
		if cfg.CSVDelimiter != "" {
			fmt.Fprintf(out, "csv_delimiter: %q\n", cfg.CSVDelimiter)
		}
		if cfg.MaxRows > 0 {
			fmt.Fprintf(out, "max_rows: %d\n", cfg.MaxRows)
		}
		fmt.Fprintf(out, "head_rows: %d\n", cfg.HeadRows)
		fmt.Fprintf(out, "model_path: %s\n", cfg.ModelPath)
		fmt.Fprintf(out, "server_addr: %s\n", cfg.ServerAddr)
		fmt.Fprintf(out, "cors_origins: %s\n", strings.Join(cfg.CORSOrigins, ","))
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		fmt.Fprintf(out, "dataset_cache_size: %d\n", cfg.DatasetCacheSize)
		fmt.Fprintf(out, "export_dir: %s\n", cfg.ExportDir)
		fmt.Fprintf(out, "chart_width: %d\n", cfg.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", cfg.ChartHeight)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long:  "Set a config value and save to disk. Keys: " + strings.Join(cfgpkg.Keys, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// Persist only file + defaults, not one-off flag overrides.
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		switch key {
		case "data_path":
			c.DataPath = val
		case "sheet_name":
			c.SheetName = val
		case "sheet_index":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid sheet_index: %s (must be >= 1)", val)
			}
			c.SheetIndex = i
		case "csv_delimiter":
			if _, err := dataset.ParseDelimiter(val); err != nil {
				return err
			}
			c.CSVDelimiter = val
		case "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for max_rows: %v", val)
			}
			c.MaxRows = i
		case "head_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for head_rows: %v", val)
			}
			c.HeadRows = i
		case "model_path":
			c.ModelPath = val
		case "server_addr":
			c.ServerAddr = val
		case "cors_origins":
			var origins []string
			for _, o := range strings.Split(val, ",") {
				if o = strings.TrimSpace(o); o != "" {
					origins = append(origins, o)
				}
			}
			c.CORSOrigins = origins
		case "log_level":
			if _, err := zapcore.ParseLevel(val); err != nil {
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
			c.LogLevel = strings.ToLower(val)
		case "log_format":
			switch strings.ToLower(val) {
			case "console", "json":
				c.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use console or json)", val)
			}
		case "dataset_cache_size":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for dataset_cache_size: %v", val)
			}
			c.DatasetCacheSize = i
		case "export_dir":
			c.ExportDir = val
		case "chart_width", "chart_height":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			if key == "chart_width" {
				c.ChartWidth = i
			} else {
				c.ChartHeight = i
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
