package fs

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

const sampleInputs = `# solver controls
restart_flag: 0
restart_number: 0
# mapping
map_flag: 0
end_time: 0.04
`

func TestReadEntry(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/sim/coolant/inputs.in", []byte(sampleInputs), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadEntry(fsys, "/sim/coolant/inputs.in", "end_time")
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if got != "0.04" {
		t.Errorf("ReadEntry = %q, want %q", got, "0.04")
	}

	if _, err := ReadEntry(fsys, "/sim/coolant/inputs.in", "no_such_key"); err == nil {
		t.Error("ReadEntry of missing key succeeded")
	}
}

func TestUpdateEntries(t *testing.T) {
	fsys := afero.NewMemMapFs()
	path := "/sim/coolant/inputs.in"
	if err := afero.WriteFile(fsys, path, []byte(sampleInputs), 0o644); err != nil {
		t.Fatal(err)
	}

	err := UpdateEntries(fsys, path, map[string]string{
		"restart_flag":   "1",
		"restart_number": "3",
		"map_flag":       "1",
	})
	if err != nil {
		t.Fatalf("UpdateEntries: %v", err)
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"restart_flag: 1", "restart_number: 3", "map_flag: 1", "end_time: 0.04"} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in:\n%s", want, content)
		}
	}
	// Comments and ordering survive the rewrite.
	if !strings.HasPrefix(content, "# solver controls\n") {
		t.Errorf("leading comment lost:\n%s", content)
	}
	if !strings.Contains(content, "# mapping\n") {
		t.Errorf("interior comment lost:\n%s", content)
	}
}

func TestUpdateEntriesMissingKey(t *testing.T) {
	fsys := afero.NewMemMapFs()
	path := "/sim/coolant/inputs.in"
	if err := afero.WriteFile(fsys, path, []byte(sampleInputs), 0o644); err != nil {
		t.Fatal(err)
	}

	err := UpdateEntries(fsys, path, map[string]string{"restart_flag": "1", "bogus": "7"})
	if err == nil {
		t.Fatal("UpdateEntries with missing key succeeded")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("error does not name the missing key: %v", err)
	}

	// The file is untouched on failure.
	data, _ := afero.ReadFile(fsys, path)
	if string(data) != sampleInputs {
		t.Error("file modified despite missing key")
	}
}
