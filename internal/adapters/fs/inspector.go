package fs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
)

// MarkerInspector classifies a solver domain folder by the byproducts the
// solver leaves behind: a done marker means the run finished, transient
// output files without the marker mean it died partway through.
type MarkerInspector struct {
	fs afero.Fs
}

// NewMarkerInspector creates an inspector over fsys.
func NewMarkerInspector(fsys afero.Fs) *MarkerInspector {
	return &MarkerInspector{fs: fsys}
}

// Inspect reports the condition of folder for a solver phase. Mapping
// phases have no inspectable output; callers re-run them unconditionally.
func (in *MarkerInspector) Inspect(ctx context.Context, folder domain.DomainFolder, phase domain.Phase) (domain.FolderCondition, error) {
	if phase.IsMapping() {
		return domain.FolderAbsent, nil
	}

	exists, err := afero.DirExists(in.fs, folder.Path)
	if err != nil {
		return domain.FolderAbsent, fmt.Errorf("inspect %s: %w", folder.Path, err)
	}
	if !exists {
		return domain.FolderAbsent, nil
	}

	done, err := afero.Exists(in.fs, filepath.Join(folder.Path, folder.DoneMarker))
	if err != nil {
		return domain.FolderAbsent, fmt.Errorf("inspect %s: %w", folder.Path, err)
	}
	if done {
		return domain.FolderComplete, nil
	}

	partial, err := in.hasTransientOutput(folder)
	if err != nil {
		return domain.FolderAbsent, fmt.Errorf("inspect %s: %w", folder.Path, err)
	}
	if partial {
		return domain.FolderPartial, nil
	}
	return domain.FolderAbsent, nil
}

// hasTransientOutput reports whether the folder holds solver output files
// or restart checkpoints, either of which proves a run was started.
func (in *MarkerInspector) hasTransientOutput(folder domain.DomainFolder) (bool, error) {
	patterns := []string{folder.OutputGlob, "restart*.rst"}
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		matches, err := afero.Glob(in.fs, filepath.Join(folder.Path, pat))
		if err != nil {
			return false, err
		}
		if len(matches) > 0 {
			return true, nil
		}
	}
	return false, nil
}
