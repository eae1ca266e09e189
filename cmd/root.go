package cmd

import (
	"errors"
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/returnlens-cli/internal/config"
	"github.com/KaramelBytes/returnlens-cli/internal/dataset"
	"github.com/KaramelBytes/returnlens-cli/internal/derive"
	"github.com/KaramelBytes/returnlens-cli/internal/logging"
	"github.com/KaramelBytes/returnlens-cli/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags (override config if set)
	cfgFile        string
	debug          bool
	flagDataPath   string
	flagModelPath  string
	flagSheetName  string
	flagSheetIndex int

	// Loaded configuration
	cfg *cfgpkg.Global

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "returnlens",
	Short: "ReturnLens CLI: explore product returns and predict return risk",
	Long: `ReturnLens loads a retail orders dataset (CSV/TSV/XLSX), answers a fixed
catalog of return-rate questions, exports tables and charts, and scores new
orders with a trained return classifier.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, format := "info", "console"
		if cfg != nil {
			level, format = cfg.LogLevel, cfg.LogFormat
		}
		if debug {
			level = "debug"
		}
		l, err := logging.New(level, format)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.returnlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDataPath, "data", "", "dataset path: .csv, .tsv or .xlsx (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModelPath, "model", "", "classifier artifact: .yaml, .yml or .json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to load (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagSheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index, used if no sheet name is set (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("data") && flagDataPath != "" {
		cfg.DataPath = flagDataPath
	}
	if f.Changed("model") && flagModelPath != "" {
		cfg.ModelPath = flagModelPath
	}
	if f.Changed("sheet-name") {
		cfg.SheetName = flagSheetName
	}
	if f.Changed("sheet-index") && flagSheetIndex > 0 {
		cfg.SheetIndex = flagSheetIndex
	}
}

// loadOptions maps the dataset section of the config onto loader options.
func loadOptions() (dataset.Options, error) {
	opt := dataset.Options{
		SheetName:  cfg.SheetName,
		SheetIndex: cfg.SheetIndex,
		MaxRows:    cfg.MaxRows,
	}
	if cfg.CSVDelimiter != "" {
		d, err := dataset.ParseDelimiter(cfg.CSVDelimiter)
		if err != nil {
			return opt, err
		}
		opt.Delimiter = d
	}
	return opt, nil
}

// loadDataset reads the configured dataset and logs any loader warnings.
func loadDataset() (*dataset.Dataset, error) {
	if cfg.DataPath == "" {
		return nil, errors.New("no dataset configured: pass --data or run 'returnlens config set data_path <file>'")
	}
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Load(cfg.DataPath, opt)
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded",
		zap.String("path", ds.Path),
		zap.String("sheet", ds.Sheet),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", len(ds.Columns)),
	)
	for _, w := range ds.Warnings {
		logger.Warn("dataset", zap.String("warning", w))
	}
	return ds, nil
}

// newCache builds the dataset cache used by long-running commands. Evicted
// datasets drop their derived columns too.
func newCache(d *derive.Deriver) (*dataset.Cache, error) {
	return dataset.NewCache(cfg.DatasetCacheSize, func(ds *dataset.Dataset) {
		d.Forget(ds.ID)
		logger.Debug("dataset evicted", zap.String("path", ds.Path))
	})
}

// loadModel reads the configured classifier artifact.
func loadModel() (*model.Model, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("no model configured: pass --model or run 'returnlens config set model_path <file>'")
	}
	m, err := model.Load(cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("model loaded", zap.String("path", m.Path), zap.String("name", m.Name), zap.Int("features", len(m.Features())))
	return m, nil
}
