/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: profiler.go
Description: pprof capture for long running evaluations. Records a CPU profile for
the lifetime of a batch or server run and writes heap and goroutine snapshots when it
stops, so evaluation hot spots can be inspected with go tool pprof.
*/

package monitoring

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ProfilerType represents the type of profile written
type ProfilerType string

const (
	ProfilerTypeCPU       ProfilerType = "cpu"
	ProfilerTypeMemory    ProfilerType = "memory"
	ProfilerTypeGoroutine ProfilerType = "goroutine"
)

// ProfileResult describes one written profile
type ProfileResult struct {
	Type       ProfilerType  `json:"type"`
	OutputFile string        `json:"output_file"`
	Duration   time.Duration `json:"duration"`
	Size       int64         `json:"size"`
}

// Profiler writes pprof profiles into OutputDir
type Profiler struct {
	outputDir string
	label     string
	logger    *logrus.Logger

	mu        sync.Mutex
	running   bool
	startTime time.Time
	cpuFile   *os.File
	cpuPath   string
}

// NewProfiler creates a profiler writing <label>_<type>_<unix>.prof files to outputDir
func NewProfiler(outputDir, label string, logger *logrus.Logger) *Profiler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Profiler{outputDir: outputDir, label: label, logger: logger}
}

func (p *Profiler) path(t ProfilerType) string {
	return filepath.Join(p.outputDir, fmt.Sprintf("%s_%s_%d.prof", p.label, t, p.startTime.Unix()))
}

// Start begins CPU profiling
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("profiler already running")
	}
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	p.startTime = time.Now()
	p.cpuPath = p.path(ProfilerTypeCPU)
	file, err := os.Create(p.cpuPath)
	if err != nil {
		return fmt.Errorf("failed to create CPU profile file: %w", err)
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		file.Close()
		os.Remove(p.cpuPath)
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}
	p.cpuFile = file
	p.running = true
	p.logger.WithField("file", p.cpuPath).Info("CPU profiling started")
	return nil
}

// Stop ends CPU profiling and writes heap and goroutine profiles
func (p *Profiler) Stop() ([]ProfileResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil, fmt.Errorf("profiler not running")
	}
	p.running = false
	elapsed := time.Since(p.startTime)

	pprof.StopCPUProfile()
	if err := p.cpuFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close CPU profile: %w", err)
	}
	results := []ProfileResult{{Type: ProfilerTypeCPU, OutputFile: p.cpuPath, Duration: elapsed}}

	runtime.GC()
	for _, t := range []ProfilerType{ProfilerTypeMemory, ProfilerTypeGoroutine} {
		path := p.path(t)
		if err := writeProfile(t, path); err != nil {
			return results, err
		}
		results = append(results, ProfileResult{Type: t, OutputFile: path, Duration: elapsed})
	}

	for i := range results {
		if info, err := os.Stat(results[i].OutputFile); err == nil {
			results[i].Size = info.Size()
		}
		p.logger.WithFields(logrus.Fields{
			"type": results[i].Type,
			"file": results[i].OutputFile,
			"size": results[i].Size,
		}).Info("Profile written")
	}
	return results, nil
}

// IsRunning reports whether CPU profiling is active
func (p *Profiler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func writeProfile(t ProfilerType, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s profile file: %w", t, err)
	}
	defer file.Close()

	switch t {
	case ProfilerTypeMemory:
		err = pprof.WriteHeapProfile(file)
	case ProfilerTypeGoroutine:
		err = pprof.Lookup("goroutine").WriteTo(file, 0)
	default:
		err = fmt.Errorf("unsupported profile type %q", t)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s profile: %w", t, err)
	}
	return nil
}
