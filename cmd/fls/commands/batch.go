/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: batch.go
Description: Batch evaluation command. Reads rows of input values from CSV, evaluates
them concurrently on a bounded worker group and writes per-row outputs as CSV or JSON.
A failing row is reported in place and never aborts the run.
*/

package commands

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/akaylee-fls/pkg/definition"
	"github.com/kleascm/akaylee-fls/pkg/fuzzy"
	"github.com/kleascm/akaylee-fls/pkg/monitoring"
	"github.com/kleascm/akaylee-fls/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// batchRow is one evaluated CSV row
type batchRow struct {
	Row       int                `json:"row"`
	Inputs    fuzzy.Values       `json:"inputs"`
	Outputs   map[string]float64 `json:"outputs,omitempty"`
	Fallbacks []string           `json:"fallbacks,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// batchReport is the JSON shape written by batch --output-format json
type batchReport struct {
	RunID  string     `json:"run_id"`
	System string     `json:"system"`
	Mode   string     `json:"mode"`
	Rows   []batchRow `json:"rows"`
	Failed int        `json:"failed"`
}

// batchSummary is archived per run by --summary-dir
type batchSummary struct {
	RunID     string                     `json:"run_id"`
	System    string                     `json:"system"`
	Mode      string                     `json:"mode"`
	Rows      int                        `json:"rows"`
	Failed    int                        `json:"failed"`
	Duration  time.Duration              `json:"duration"`
	Metrics   monitoring.Snapshot        `json:"metrics"`
	Profiles  []monitoring.ProfileResult `json:"profiles,omitempty"`
	StartedAt time.Time                  `json:"started_at"`
}

// RunBatch evaluates every row of the input CSV
func RunBatch(cmd *cobra.Command, args []string) error {
	logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Close()

	sys, err := selectedSystem(logger)
	if err != nil {
		return err
	}
	mode, err := fuzzy.ParseMode(viper.GetString("batch.mode"))
	if err != nil {
		return err
	}
	outFormat := strings.ToLower(viper.GetString("batch.output_format"))
	if outFormat != "csv" && outFormat != "json" {
		return fmt.Errorf("unknown output format %q (csv, json)", outFormat)
	}

	in := io.Reader(cmd.InOrStdin())
	if path := viper.GetString("batch.input"); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	header, rows, err := readRows(in)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if timeout := viper.GetDuration("batch.timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	recorder := monitoring.NewRecorder(nil, logger.GetLogger())
	var profiler *monitoring.Profiler
	if dir := viper.GetString("batch.profile_dir"); dir != "" {
		profiler = monitoring.NewProfiler(dir, "batch", logger.GetLogger())
		if err := profiler.Start(); err != nil {
			return err
		}
	}

	start := time.Now()
	evalErr := evaluateRows(ctx, sys, rows, mode, viper.GetInt("batch.workers"), recorder)
	elapsed := time.Since(start)
	var profiles []monitoring.ProfileResult
	if profiler != nil {
		if profiles, err = profiler.Stop(); err != nil {
			return err
		}
	}
	if evalErr != nil {
		return fmt.Errorf("batch %s aborted: %w", runID, evalErr)
	}
	failed := countFailed(rows)
	logger.LogBatch(runID, len(rows), failed, elapsed)

	if dir := viper.GetString("batch.summary_dir"); dir != "" {
		path, err := utils.WriteRunSummary(dir, sys.Name, runID, batchSummary{
			RunID:     runID,
			System:    sys.Name,
			Mode:      mode.String(),
			Rows:      len(rows),
			Failed:    failed,
			Duration:  elapsed,
			Metrics:   recorder.Snapshot(),
			Profiles:  profiles,
			StartedAt: start,
		})
		if err != nil {
			return err
		}
		logger.GetLogger().WithField("file", path).Info("Batch summary written")
	}

	w, closeOut, err := openOutput(viper.GetString("batch.output"), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if outFormat == "json" {
		err = writeJSON(w, batchReport{RunID: runID, System: sys.Name, Mode: mode.String(), Rows: rows, Failed: failed})
	} else {
		err = writeRowsCSV(w, header, sys, rows)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}

// readRows parses a CSV whose header names inputs. Cells that are not numbers mark
// their row as failed instead of failing the read.
func readRows(r io.Reader) ([]string, []batchRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("input is empty: expected a header row naming the inputs")
		}
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []batchRow
	for n := 1; ; n++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row %d: %w", n, err)
		}
		row := batchRow{Row: n, Inputs: make(fuzzy.Values, len(header))}
		for i, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				row.Error = fmt.Sprintf("column %q: %v", header[i], err)
				break
			}
			row.Inputs[header[i]] = v
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// evaluateRows fills in the outputs of every row using at most workers goroutines.
// Outputs that fell back to their domain midpoint are listed per row and counted by
// the recorder. Only cancellation of ctx is returned as an error.
func evaluateRows(ctx context.Context, sys *definition.System, rows []batchRow, mode fuzzy.Mode, workers int, recorder *monitoring.Recorder) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rows {
		if rows[i].Error != "" {
			recorder.ObserveBatchRow(errors.New(rows[i].Error))
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			exp, err := recorder.Explain(gctx, sys.Name, sys.Rulebase, rows[i].Inputs, mode)
			recorder.ObserveBatchRow(err)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				rows[i].Error = err.Error()
				return nil
			}
			rows[i].Outputs = exp.Result()
			for _, o := range exp.Outputs {
				if o.Fallback {
					rows[i].Fallbacks = append(rows[i].Fallbacks, o.Output)
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func countFailed(rows []batchRow) int {
	failed := 0
	for _, r := range rows {
		if r.Error != "" {
			failed++
		}
	}
	return failed
}

// writeRowsCSV writes row, the input columns in header order, every output and error
func writeRowsCSV(w io.Writer, header []string, sys *definition.System, rows []batchRow) error {
	outputs := make([]string, len(sys.Outputs))
	for i, o := range sys.Outputs {
		outputs[i] = o.Name()
	}

	cw := csv.NewWriter(w)
	cols := append(append([]string{"row"}, header...), outputs...)
	if err := cw.Write(append(cols, "error")); err != nil {
		return err
	}
	for _, r := range rows {
		record := make([]string, 0, len(cols)+1)
		record = append(record, strconv.Itoa(r.Row))
		for _, name := range header {
			if v, ok := r.Inputs[name]; ok {
				record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
			} else {
				record = append(record, "")
			}
		}
		for _, name := range outputs {
			if v, ok := r.Outputs[name]; ok {
				record = append(record, strconv.FormatFloat(v, 'f', 6, 64))
			} else {
				record = append(record, "")
			}
		}
		record = append(record, r.Error)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
