package cliconfig

import "os"

// ApplyEnvConfig applies CHTRUN_* environment variables to the Config.
// It respects flags that have been explicitly set (changed map).
// Environment values rank above the config file and below flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("sim-root", os.Getenv("CHTRUN_SIM_ROOT"), &cfg.SimRoot)
	s.setString("coolant-dir", os.Getenv("CHTRUN_COOLANT_DIR"), &cfg.CoolantDir)
	s.setString("combustion-dir", os.Getenv("CHTRUN_COMBUSTION_DIR"), &cfg.CombustionDir)
	s.setString("mapping-binary", os.Getenv("CHTRUN_MAPPING_BINARY"), &cfg.MappingBinary)
	s.setString("surface-file", os.Getenv("CHTRUN_SURFACE_FILE"), &cfg.SurfaceFile)
	s.setString("solver-cmd", os.Getenv("CHTRUN_SOLVER_CMD"), &cfg.SolverCmd)
	s.setString("mpi-exe", os.Getenv("CHTRUN_MPI_EXE"), &cfg.MPIExe)
	s.setString("mpi-options", os.Getenv("CHTRUN_MPI_OPTIONS"), &cfg.MPIOptions)
	s.setString("done-marker", os.Getenv("CHTRUN_DONE_MARKER"), &cfg.DoneMarker)
	s.setString("output-glob", os.Getenv("CHTRUN_OUTPUT_GLOB"), &cfg.OutputGlob)
	s.setString("record-file", os.Getenv("CHTRUN_RECORD_FILE"), &cfg.RecordFile)
	s.setString("log-dir", os.Getenv("CHTRUN_LOG_DIR"), &cfg.LogDir)

	s.setStringsFromString("boundaries", os.Getenv("CHTRUN_BOUNDARIES"), &cfg.Boundaries)

	if err := s.setIntFromString("budget", os.Getenv("CHTRUN_ITERATION_BUDGET"), &cfg.IterationBudget); err != nil {
		return err
	}
	if err := s.setFloatFromString("threshold", os.Getenv("CHTRUN_CONVERGENCE_THRESHOLD"), &cfg.ConvergenceThreshold); err != nil {
		return err
	}
	if err := s.setDuration("solver-timeout", os.Getenv("CHTRUN_SOLVER_TIMEOUT"), &cfg.SolverTimeout); err != nil {
		return err
	}

	s.setBoolFromString("once", os.Getenv("CHTRUN_ONCE"), &cfg.Once)
	s.setBoolFromString("verbose", os.Getenv("CHTRUN_VERBOSE"), &cfg.Verbose)

	return nil
}
