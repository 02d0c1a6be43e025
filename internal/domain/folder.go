package domain

// FolderCondition is the three-way classification of a domain folder's
// on-disk artifacts for an expected phase.
type FolderCondition int

const (
	// FolderAbsent means no run for this phase has ever started.
	FolderAbsent FolderCondition = iota

	// FolderPartial means the solver started but did not finish, or
	// finished with an error the inspector does not itself interpret.
	FolderPartial

	// FolderComplete means the solver's terminal success markers are
	// present and self-consistent for the expected phase.
	FolderComplete
)

// String returns a human-readable name for the condition.
func (c FolderCondition) String() string {
	switch c {
	case FolderAbsent:
		return "absent"
	case FolderPartial:
		return "partial"
	case FolderComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// DomainFolder is a handle to one of the two simulation working
// directories. The folder is owned externally; the runner only reads and
// writes within it, never creates or deletes the folder itself.
type DomainFolder struct {
	// Name is "coolant" or "combustion", used in logs and log sink names.
	Name string

	// Path is the folder location on disk.
	Path string

	// DoneMarker is the file whose presence marks a clean solver
	// completion (solver contract).
	DoneMarker string

	// OutputGlob matches solver output files; a match without the done
	// marker means the run is partial.
	OutputGlob string
}
