package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	SimRoot       string   `toml:"sim_root"`
	CoolantDir    string   `toml:"coolant_dir"`
	CombustionDir string   `toml:"combustion_dir"`
	MappingBinary string   `toml:"mapping_binary"`
	SurfaceFile   string   `toml:"surface_file"`
	Boundaries    []string `toml:"boundaries"`

	IterationBudget      int     `toml:"iteration_budget"`
	ConvergenceThreshold float64 `toml:"convergence_threshold"`

	SolverCmd     string `toml:"solver_cmd"`
	MPIExe        string `toml:"mpi_exe"`
	MPIOptions    string `toml:"mpi_options"`
	SolverTimeout string `toml:"solver_timeout"`

	DoneMarker string `toml:"done_marker"`
	OutputGlob string `toml:"output_glob"`
	RecordFile string `toml:"record_file"`
	LogDir     string `toml:"log_dir"`

	Once    *bool `toml:"once"`
	Verbose *bool `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the configuration file the run loop watches:
// chtrun.toml at the simulation root.
func DefaultConfigPath(simRoot string) string {
	if simRoot == "" {
		return ""
	}
	return filepath.Join(simRoot, "chtrun.toml")
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("sim-root", fc.SimRoot, &cfg.SimRoot)
	s.setString("coolant-dir", fc.CoolantDir, &cfg.CoolantDir)
	s.setString("combustion-dir", fc.CombustionDir, &cfg.CombustionDir)
	s.setString("mapping-binary", fc.MappingBinary, &cfg.MappingBinary)
	s.setString("surface-file", fc.SurfaceFile, &cfg.SurfaceFile)
	s.setString("solver-cmd", fc.SolverCmd, &cfg.SolverCmd)
	s.setString("mpi-exe", fc.MPIExe, &cfg.MPIExe)
	s.setString("mpi-options", fc.MPIOptions, &cfg.MPIOptions)
	s.setString("done-marker", fc.DoneMarker, &cfg.DoneMarker)
	s.setString("output-glob", fc.OutputGlob, &cfg.OutputGlob)
	s.setString("record-file", fc.RecordFile, &cfg.RecordFile)
	s.setString("log-dir", fc.LogDir, &cfg.LogDir)

	s.setStrings("boundaries", fc.Boundaries, &cfg.Boundaries)
	s.setInt("budget", fc.IterationBudget, &cfg.IterationBudget)
	s.setFloat("threshold", fc.ConvergenceThreshold, &cfg.ConvergenceThreshold)

	if err := s.setDuration("solver-timeout", fc.SolverTimeout, &cfg.SolverTimeout); err != nil {
		return err
	}

	s.setBool("once", fc.Once, &cfg.Once)
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
