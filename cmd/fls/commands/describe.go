/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: describe.go
Description: Describe and sample commands. Print the structure of a system and the
sampled membership curves of its variables.
*/

package commands

import (
	"fmt"
	"io"

	"github.com/kleascm/akaylee-fls/pkg/definition"
	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/kleascm/akaylee-fls/pkg/reporting"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunDescribe prints the variables, terms and rules of the selected system
func RunDescribe(cmd *cobra.Command, args []string) error {
	logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	sys, err := selectedSystem(logger)
	if err != nil {
		return err
	}
	format, err := parseOutputFormat(viper.GetString("describe.format"))
	if err != nil {
		return err
	}
	return printDescription(cmd.OutOrStdout(), sys, format)
}

func printDescription(w io.Writer, sys *definition.System, format outputFormat) error {
	sum := sys.Summarize()
	if format.json {
		return writeJSON(w, sum)
	}
	if sum.Description != "" && format.table != reporting.CSV {
		fmt.Fprintf(w, "%s: %s\n\n", sum.Name, sum.Description)
	}
	fmt.Fprintln(w, reporting.Variables(sum, format.table))
	fmt.Fprintln(w)
	_, err := fmt.Fprintln(w, reporting.Rules(sum, format.table))
	return err
}

// samples is the JSON shape printed by sample --format json
type samples struct {
	Variable string                   `json:"variable"`
	Domain   fuzzy.Domain             `json:"domain"`
	Terms    map[string][]fuzzy.Point `json:"terms"`
}

// RunSample prints the membership curves of one variable
func RunSample(cmd *cobra.Command, args []string) error {
	logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	sys, err := selectedSystem(logger)
	if err != nil {
		return err
	}
	format, err := parseOutputFormat(viper.GetString("sample.format"))
	if err != nil {
		return err
	}
	return printSamples(cmd.OutOrStdout(), sys, viper.GetString("sample.variable"), viper.GetInt("sample.points"), format)
}

func printSamples(w io.Writer, sys *definition.System, variable string, points int, format outputFormat) error {
	names, curves, err := sys.Sample(variable, points)
	if err != nil {
		return err
	}
	if format.json {
		domain, _ := sys.Domain(variable)
		out := samples{Variable: variable, Domain: domain, Terms: make(map[string][]fuzzy.Point, len(names))}
		for i, name := range names {
			out.Terms[name] = curves[i]
		}
		return writeJSON(w, out)
	}
	_, err = fmt.Fprintln(w, reporting.Samples(variable, names, curves, format.table))
	return err
}
