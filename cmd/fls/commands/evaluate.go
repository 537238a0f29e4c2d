/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: evaluate.go
Description: Single evaluation command. Sets inputs from --set assignments, evaluates
every output and prints the results with an optional rule trace.
*/

package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/kleascm/akaylee-fls/pkg/definition"
	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/kleascm/akaylee-fls/pkg/monitoring"
	"github.com/kleascm/akaylee-fls/pkg/reporting"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// evaluation is the JSON shape printed by evaluate --format json
type evaluation struct {
	System    string             `json:"system"`
	Mode      string             `json:"mode"`
	Inputs    fuzzy.Values       `json:"inputs"`
	Outputs   map[string]float64 `json:"outputs"`
	Fallbacks []string           `json:"fallbacks,omitempty"`
	Trace     []fuzzy.RuleFiring `json:"trace,omitempty"`
}

// RunEvaluate evaluates the selected system once
func RunEvaluate(cmd *cobra.Command, args []string) error {
	logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	sys, err := selectedSystem(logger)
	if err != nil {
		return err
	}
	pairs, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return err
	}
	values, err := parseAssignments(pairs)
	if err != nil {
		return err
	}
	mode, err := fuzzy.ParseMode(viper.GetString("evaluate.mode"))
	if err != nil {
		return err
	}
	format, err := parseOutputFormat(viper.GetString("evaluate.format"))
	if err != nil {
		return err
	}

	recorder := monitoring.NewRecorder(nil, logger.GetLogger())
	start := time.Now()
	exp, err := recorder.Explain(cmd.Context(), sys.Name, sys.Rulebase, values, mode)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	logger.LogEvaluation(sys.Name, mode.String(), values, exp.Result(), time.Since(start))

	return printEvaluation(cmd.OutOrStdout(), sys, exp, format,
		viper.GetBool("evaluate.trace"), viper.GetBool("evaluate.all_rules"))
}

func printEvaluation(w io.Writer, sys *definition.System, exp *fuzzy.Explanation, format outputFormat, trace, all bool) error {
	if format.json {
		out := evaluation{
			System:  sys.Name,
			Mode:    exp.Mode,
			Inputs:  exp.Values,
			Outputs: exp.Result(),
		}
		for _, o := range exp.Outputs {
			if o.Fallback {
				out.Fallbacks = append(out.Fallbacks, o.Output)
			}
		}
		if trace {
			out.Trace = exp.Firings
		}
		return writeJSON(w, out)
	}

	if trace {
		_, err := fmt.Fprintln(w, reporting.Trace(exp, all, format.table))
		return err
	}
	_, err := fmt.Fprintln(w, reporting.Result(fmt.Sprintf("%s (%s)", sys.Name, exp.Mode), exp.Result(), format.table))
	return err
}
