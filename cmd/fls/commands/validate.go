/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: validate.go
Description: Definition validation and preset export commands.
*/

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/kleascm/akaylee-fls/pkg/definition"
	"github.com/kleascm/akaylee-fls/pkg/presets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunValidate loads, validates and builds every definition file given as an argument
func RunValidate(cmd *cobra.Command, args []string) error {
	logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	failed := validateFiles(cmd.OutOrStdout(), args)
	if failed > 0 {
		return fmt.Errorf("%d of %d definitions invalid", failed, len(args))
	}
	return nil
}

// validateFiles reports each file on w and returns how many failed
func validateFiles(w io.Writer, paths []string) int {
	failed := 0
	for _, path := range paths {
		def, err := definition.Load(path)
		if err == nil {
			var sys *definition.System
			if sys, err = definition.Build(def); err == nil {
				fmt.Fprintf(w, "✅ %s: %s (%d inputs, %d outputs, %d rules)\n",
					path, sys.Name, len(sys.Inputs), len(sys.Outputs), sys.Rulebase.Len())
				continue
			}
		}
		failed++
		fmt.Fprintf(w, "❌ %s: %v\n", path, err)
	}
	return failed
}

// RunExport writes a preset as a definition file, or lists presets without arguments
func RunExport(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Available presets: %s\n", strings.Join(presets.Names(), ", "))
		return nil
	}
	return exportPreset(cmd.OutOrStdout(), args[0], viper.GetString("export.output"), viper.GetString("export.format"))
}

func exportPreset(stdout io.Writer, name, path, format string) error {
	def, err := presets.Lookup(name)
	if err != nil {
		return err
	}

	f := definition.FormatYAML
	if path != "" && path != "-" {
		f = definition.FormatFromPath(path)
	}
	switch strings.ToLower(format) {
	case "":
	case "yaml", "yml":
		f = definition.FormatYAML
	case "json":
		f = definition.FormatJSON
	default:
		return fmt.Errorf("unknown definition format %q (yaml, json)", format)
	}

	data, err := definition.Marshal(def, f)
	if err != nil {
		return err
	}
	w, closeOut, err := openOutput(path, stdout)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}
