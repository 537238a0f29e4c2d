/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the FLS commands. Provides configuration loading,
logging setup, system selection and input value parsing used across all command
implementations.
*/

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kleascm/akaylee-fls/pkg/definition"
	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/kleascm/akaylee-fls/pkg/logging"
	"github.com/kleascm/akaylee-fls/pkg/presets"
	"github.com/kleascm/akaylee-fls/pkg/reporting"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("FLS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	return nil
}

// SetupLogging configures the logging system from the bound log_* keys
func SetupLogging() (*logging.Logger, error) {
	config := logging.DefaultConfig()
	if level := viper.GetString("log_level"); level != "" {
		config.Level = logging.LogLevel(strings.ToLower(level))
	}
	if format := viper.GetString("log_format"); format != "" {
		config.Format = logging.LogFormat(strings.ToLower(format))
	}
	config.OutputDir = viper.GetString("log_dir")
	if n := viper.GetInt("log_max_files"); n > 0 {
		config.MaxFiles = n
	}
	config.Compress = viper.GetBool("log_compress")

	logger, err := logging.NewLogger(config)
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// setup runs LoadConfig and SetupLogging, the prologue of every command
func setup() (*logging.Logger, error) {
	if err := LoadConfig(); err != nil {
		return nil, err
	}
	return SetupLogging()
}

// loadSystem builds the system named by --preset or --definition. Exactly one must be set.
func loadSystem(preset, path string, logger *logging.Logger) (*definition.System, error) {
	var (
		def *definition.Definition
		err error
	)
	switch {
	case preset != "" && path != "":
		return nil, errors.New("--preset and --definition are mutually exclusive")
	case preset != "":
		def, err = presets.Lookup(preset)
	case path != "":
		def, err = definition.Load(path)
	default:
		return nil, fmt.Errorf("no system selected: use --preset (%s) or --definition", strings.Join(presets.Names(), ", "))
	}
	if err != nil {
		return nil, err
	}

	var opts []fuzzy.Option
	if logger != nil {
		opts = append(opts, fuzzy.WithLogger(logger.GetLogger()))
	}
	return definition.Build(def, opts...)
}

// selectedSystem builds the system selected by the bound preset and definition keys
func selectedSystem(logger *logging.Logger) (*definition.System, error) {
	return loadSystem(viper.GetString("preset"), viper.GetString("definition"), logger)
}

// parseAssignments turns name=value pairs into input values
func parseAssignments(pairs []string) (fuzzy.Values, error) {
	values := make(fuzzy.Values, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected name=value", pair)
		}
		if _, dup := values[name]; dup {
			return nil, fmt.Errorf("input %q set more than once", name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

// outputFormat is a table mode or JSON
type outputFormat struct {
	json  bool
	table reporting.Mode
}

func parseOutputFormat(s string) (outputFormat, error) {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return outputFormat{json: true}, nil
	}
	mode, err := reporting.ParseMode(s)
	if err != nil {
		return outputFormat{}, err
	}
	return outputFormat{table: mode}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openOutput returns stdout for "-" or "", otherwise a created file
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
