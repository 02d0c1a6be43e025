// Package cliconfig holds the chtrun CLI configuration: defaults, the
// TOML config file, CHTRUN_* environment variables, and flag precedence.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
)

// Defaults for the simulation folder conventions.
const (
	DefaultCoolantDir    = "coolant"
	DefaultCombustionDir = "combustion"
	DefaultDoneMarker    = "converge.done"
	DefaultOutputGlob    = "*.out"
	DefaultRecordFile    = "run-record.yaml"
	DefaultLogDir        = "logs"
)

// Config holds CLI configuration for chtrun.
type Config struct {
	SimRoot string

	CoolantDir    string
	CombustionDir string

	MappingBinary string
	SurfaceFile   string
	Boundaries    []string

	IterationBudget      int
	ConvergenceThreshold float64

	SolverCmd     string
	MPIExe        string
	MPIOptions    string
	SolverTimeout time.Duration

	DoneMarker string
	OutputGlob string
	RecordFile string
	LogDir     string

	Once    bool
	Verbose bool
}

// DefaultConfig returns a Config with default values. The solver command
// and MPI task count honor the scheduler environment when present.
func DefaultConfig() Config {
	cfg := Config{
		CoolantDir:           DefaultCoolantDir,
		CombustionDir:        DefaultCombustionDir,
		IterationBudget:      10,
		ConvergenceThreshold: 0.01,
		MPIExe:               "mpirun",
		SolverCmd:            os.Getenv("CMD"),
		DoneMarker:           DefaultDoneMarker,
		OutputGlob:           DefaultOutputGlob,
		RecordFile:           DefaultRecordFile,
		LogDir:               DefaultLogDir,
	}
	if n := os.Getenv("SLURM_NTASKS"); n != "" {
		cfg.MPIOptions = "-np " + n
	}
	return cfg
}

// Validate checks the configuration for errors and sets derived defaults.
// Relative folder paths are anchored at the simulation root.
func (c *Config) Validate() error {
	if c.SimRoot == "" {
		return fmt.Errorf("%w: sim-root is required", domain.ErrConfigInvalid)
	}
	if c.MappingBinary == "" {
		return fmt.Errorf("%w: mapping-binary is required", domain.ErrConfigInvalid)
	}
	if c.SurfaceFile == "" {
		return fmt.Errorf("%w: surface-file is required", domain.ErrConfigInvalid)
	}
	if len(c.Boundaries) == 0 {
		return fmt.Errorf("%w: at least one boundary is required", domain.ErrConfigInvalid)
	}
	if c.SolverCmd == "" {
		return fmt.Errorf("%w: solver-cmd is required (flag, file, or $CMD)", domain.ErrConfigInvalid)
	}
	if c.IterationBudget <= 0 {
		return fmt.Errorf("%w: iteration budget must be positive", domain.ErrConfigInvalid)
	}
	if c.ConvergenceThreshold <= 0 {
		return fmt.Errorf("%w: convergence threshold must be positive", domain.ErrConfigInvalid)
	}
	if c.SolverTimeout < 0 {
		return fmt.Errorf("%w: solver timeout must not be negative", domain.ErrConfigInvalid)
	}

	c.CoolantDir = c.anchor(c.CoolantDir)
	c.CombustionDir = c.anchor(c.CombustionDir)
	c.LogDir = c.anchor(c.LogDir)
	return nil
}

func (c *Config) anchor(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.SimRoot, path)
}

// RecordPath returns the run record location under the simulation root.
func (c *Config) RecordPath() string {
	return filepath.Join(c.SimRoot, c.RecordFile)
}

// SolverArgv assembles the solver launch command: MPI launcher, its
// options, then the solver command, each split on whitespace.
func (c *Config) SolverArgv() []string {
	var argv []string
	if c.MPIExe != "" {
		argv = append(argv, c.MPIExe)
		argv = append(argv, strings.Fields(c.MPIOptions)...)
	}
	return append(argv, strings.Fields(c.SolverCmd)...)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a string slice if non-empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setStringsFromString splits a comma-separated list and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
