package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Dataset
	DataPath     string `mapstructure:"data_path" yaml:"data_path"`
	SheetName    string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex   int    `mapstructure:"sheet_index" yaml:"sheet_index"`
	CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	MaxRows      int    `mapstructure:"max_rows" yaml:"max_rows"`
	HeadRows     int    `mapstructure:"head_rows" yaml:"head_rows"`

	// Classifier artifact
	ModelPath string `mapstructure:"model_path" yaml:"model_path"`

	// HTTP server
	ServerAddr  string   `mapstructure:"server_addr" yaml:"server_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	DatasetCacheSize int `mapstructure:"dataset_cache_size" yaml:"dataset_cache_size"`

	// Reports and charts
	ExportDir   string `mapstructure:"export_dir" yaml:"export_dir"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`
}

// Keys lists every configuration key accepted by `config set`.
var Keys = []string{
	"data_path", "sheet_name", "sheet_index", "csv_delimiter", "max_rows", "head_rows",
	"model_path", "server_addr", "cors_origins", "log_level", "log_format",
	"dataset_cache_size", "export_dir", "chart_width", "chart_height",
}

// Dir returns ~/.returnlens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".returnlens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.returnlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.returnlens/config.yaml) > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("RETURNLENS")
	v.AutomaticEnv()

	setDefaults(v)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; a present but malformed file is an error
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DatasetCacheSize <= 0 {
		c.DatasetCacheSize = 1
	}
	return &c, nil
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_path", filepath.Join("data", "Fresco_Retailerr.xlsx"))
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 1)
	v.SetDefault("csv_delimiter", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("head_rows", 5)
	v.SetDefault("model_path", filepath.Join("model", "Final_Model.yaml"))
	// HTTP defaults
	v.SetDefault("server_addr", ":8501")
	v.SetDefault("cors_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("dataset_cache_size", 4)
	v.SetDefault("export_dir", "exports")
	v.SetDefault("chart_width", 1024)
	v.SetDefault("chart_height", 512)
}
