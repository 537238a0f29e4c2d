/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for the Akaylee fuzzy logic system. Evaluates,
describes, samples, batches, validates, exports and serves fuzzy systems defined by
built-in presets or YAML/JSON definition files.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/akaylee-fls/cmd/fls/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	logLevel   string

	// Logging configuration
	logDir      string
	logFormat   string
	logMaxFiles int
	logCompress bool

	// System selection
	presetName     string
	definitionPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fls",
		Short: "Akaylee FLS - type-1 fuzzy inference engine",
		Long: `Akaylee FLS evaluates type-1 fuzzy rule systems. Systems are built from
triangular and gauangle membership functions, combined with min-AND rules, and
defuzzified by height or discretized centroid. Systems come from built-in presets or
from YAML/JSON definition files, and can be evaluated once, in batch, or over HTTP.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Log output directory (empty disables file logging)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().IntVar(&logMaxFiles, "log-max-files", 10, "Maximum number of log files to keep")
	rootCmd.PersistentFlags().BoolVar(&logCompress, "log-compress", false, "Compress rotated log files")

	rootCmd.PersistentFlags().StringVar(&presetName, "preset", "", "Built-in system (dementia, tipping)")
	rootCmd.PersistentFlags().StringVar(&definitionPath, "definition", "", "Path to a YAML or JSON system definition")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("log_compress", rootCmd.PersistentFlags().Lookup("log-compress"))
	viper.BindPFlag("preset", rootCmd.PersistentFlags().Lookup("preset"))
	viper.BindPFlag("definition", rootCmd.PersistentFlags().Lookup("definition"))

	// evaluate
	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a system for one set of input values",
		Long: `Set every input with --set name=value and print the crisp value of every output.
--trace also prints the firing strength of every rule.`,
		Example: `  fls evaluate --preset tipping --set food=7 --set service=9 --mode centroid`,
		RunE:    commands.RunEvaluate,
	}
	evaluateCmd.Flags().StringArray("set", nil, "Input value as name=value (repeatable)")
	evaluateCmd.Flags().String("mode", "height", "Defuzzification mode (height, centroid)")
	evaluateCmd.Flags().Bool("trace", false, "Print per-rule firing strengths")
	evaluateCmd.Flags().Bool("all-rules", false, "Include rules that did not fire in the trace")
	evaluateCmd.Flags().String("format", "ascii", "Output format (ascii, markdown, csv, json)")
	viper.BindPFlag("evaluate.set", evaluateCmd.Flags().Lookup("set"))
	viper.BindPFlag("evaluate.mode", evaluateCmd.Flags().Lookup("mode"))
	viper.BindPFlag("evaluate.trace", evaluateCmd.Flags().Lookup("trace"))
	viper.BindPFlag("evaluate.all_rules", evaluateCmd.Flags().Lookup("all-rules"))
	viper.BindPFlag("evaluate.format", evaluateCmd.Flags().Lookup("format"))
	rootCmd.AddCommand(evaluateCmd)

	// describe
	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the variables, terms and rules of a system",
		RunE:  commands.RunDescribe,
	}
	describeCmd.Flags().String("format", "ascii", "Output format (ascii, markdown, csv, json)")
	viper.BindPFlag("describe.format", describeCmd.Flags().Lookup("format"))
	rootCmd.AddCommand(describeCmd)

	// sample
	sampleCmd := &cobra.Command{
		Use:     "sample",
		Short:   "Sample the membership functions of one variable",
		Example: `  fls sample --preset dementia --variable mmse --points 31 --format csv`,
		RunE:    commands.RunSample,
	}
	sampleCmd.Flags().String("variable", "", "Variable to sample (required)")
	sampleCmd.Flags().Int("points", 21, "Number of evenly spaced sample points")
	sampleCmd.Flags().String("format", "ascii", "Output format (ascii, markdown, csv, json)")
	sampleCmd.MarkFlagRequired("variable")
	viper.BindPFlag("sample.variable", sampleCmd.Flags().Lookup("variable"))
	viper.BindPFlag("sample.points", sampleCmd.Flags().Lookup("points"))
	viper.BindPFlag("sample.format", sampleCmd.Flags().Lookup("format"))
	rootCmd.AddCommand(sampleCmd)

	// batch
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate every row of a CSV file",
		Long: `Evaluate every row of a CSV file whose header names the system inputs. Rows are
evaluated concurrently; a failing row is reported in the error column and does not stop
the batch.`,
		Example: `  fls batch --preset dementia --input patients.csv --output results.json --output-format json`,
		RunE:    commands.RunBatch,
	}
	batchCmd.Flags().String("input", "-", "Input CSV path (- for stdin)")
	batchCmd.Flags().String("output", "-", "Output path (- for stdout)")
	batchCmd.Flags().String("output-format", "csv", "Output format (csv, json)")
	batchCmd.Flags().String("mode", "height", "Defuzzification mode (height, centroid)")
	batchCmd.Flags().Int("workers", 0, "Number of concurrent evaluations (0 = number of CPUs)")
	batchCmd.Flags().Duration("timeout", 0, "Abort the batch after this long (0 = no limit)")
	batchCmd.Flags().String("profile-dir", "", "Write CPU, heap and goroutine profiles of the run here")
	batchCmd.Flags().String("summary-dir", "", "Archive a JSON summary of the run here")
	viper.BindPFlag("batch.input", batchCmd.Flags().Lookup("input"))
	viper.BindPFlag("batch.output", batchCmd.Flags().Lookup("output"))
	viper.BindPFlag("batch.output_format", batchCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("batch.mode", batchCmd.Flags().Lookup("mode"))
	viper.BindPFlag("batch.workers", batchCmd.Flags().Lookup("workers"))
	viper.BindPFlag("batch.timeout", batchCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("batch.profile_dir", batchCmd.Flags().Lookup("profile-dir"))
	viper.BindPFlag("batch.summary_dir", batchCmd.Flags().Lookup("summary-dir"))
	rootCmd.AddCommand(batchCmd)

	// validate
	rootCmd.AddCommand(&cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate and build definition files",
		Long: `Parse, validate and build each definition file without evaluating it. Exits
non-zero when any file is invalid, which makes it suitable for CI.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunValidate,
	})

	// export
	exportCmd := &cobra.Command{
		Use:   "export [PRESET]",
		Short: "Write a built-in preset as a definition file",
		Long: `Write a built-in preset as a YAML or JSON definition, ready to edit and load with
--definition. Without arguments the available presets are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: commands.RunExport,
	}
	exportCmd.Flags().String("output", "-", "Output path (- for stdout); the extension selects the format")
	exportCmd.Flags().String("format", "", "Definition format (yaml, json); overrides the output extension")
	viper.BindPFlag("export.output", exportCmd.Flags().Lookup("output"))
	viper.BindPFlag("export.format", exportCmd.Flags().Lookup("format"))
	rootCmd.AddCommand(exportCmd)

	// serve
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve evaluations over HTTP",
		Long: `Start the HTTP evaluation service. With --watch the definition file is reloaded
whenever it changes; a definition that fails to build leaves the running system in place.`,
		Example: `  fls serve --definition system.yaml --watch --addr :8080`,
		RunE:    commands.RunServe,
	}
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Int("cache-size", 1024, "Result cache entries (0 disables caching)")
	serveCmd.Flags().Bool("watch", false, "Reload the definition file when it changes")
	serveCmd.Flags().Duration("debounce", 200*time.Millisecond, "Quiet period before a reload")
	serveCmd.Flags().String("mode", "height", "Default defuzzification mode")
	serveCmd.Flags().String("profile-dir", "", "Profile the server until shutdown and write profiles here")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.cache_size", serveCmd.Flags().Lookup("cache-size"))
	viper.BindPFlag("server.watch", serveCmd.Flags().Lookup("watch"))
	viper.BindPFlag("server.debounce", serveCmd.Flags().Lookup("debounce"))
	viper.BindPFlag("server.mode", serveCmd.Flags().Lookup("mode"))
	viper.BindPFlag("server.profile_dir", serveCmd.Flags().Lookup("profile-dir"))
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
