/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics_writer.go
Description: Utility for archiving run summaries. Writes one timestamped JSON file per
batch run under a per-system subdirectory so runs can be compared over time.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteRunSummary writes result to <dir>/<system>/<timestamp>_<system>_<runID>.json
func WriteRunSummary(dir, system, runID string, result interface{}) (string, error) {
	return writeRunSummary(dir, system, runID, result, time.Now())
}

func writeRunSummary(dir, system, runID string, result interface{}, now time.Time) (string, error) {
	if system == "" || runID == "" {
		return "", fmt.Errorf("system and run ID are required")
	}

	systemDir := filepath.Join(dir, system)
	if err := os.MkdirAll(systemDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	// 2024-06-11_01-30-00_dementia_<uuid>.json
	timestamp := now.Format("2006-01-02_15-04-05")
	filePath := filepath.Join(systemDir, fmt.Sprintf("%s_%s_%s.json", timestamp, system, runID))

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return filePath, nil
}
