package emu

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// findROMs recursively collects .gb files under dir.
func findROMs(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".gb") {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// runBlargg drives a test ROM via its serial "Passed"/"Failed" convention.
func runBlargg(t *testing.T, romPath string, maxFrames int) {
	t.Helper()
	m := New(Config{})
	if err := m.LoadROMFromFile(romPath); err != nil {
		t.Fatalf("load ROM: %v", err)
	}
	var buf bytes.Buffer
	m.SetSerialWriter(&buf)

	for i := 0; i < maxFrames; i++ {
		m.StepFrame()
		out := buf.String()
		if strings.Contains(out, "Passed") {
			return
		}
		if strings.Contains(out, "Failed") {
			t.Fatalf("%s reported failure via serial:\n%s", filepath.Base(romPath), out)
		}
	}
	t.Fatalf("timeout waiting for serial Passed from %s; last output:\n%s", filepath.Base(romPath), buf.String())
}

// TestBlargg runs every .gb ROM under BLARGG_DIR (or testroms/blargg by
// default) and requires each to report Passed over serial. Skipped when the
// directory doesn't exist, since these ROMs aren't checked into the repo.
func TestBlargg(t *testing.T) {
	if os.Getenv("RUN_BLARGG") == "" {
		t.Skip("set RUN_BLARGG=1 to run blargg test ROM suites")
	}
	dir := os.Getenv("BLARGG_DIR")
	if dir == "" {
		dir = "testroms/blargg"
	}
	roms, err := findROMs(dir)
	if err != nil || len(roms) == 0 {
		t.Skipf("no test ROMs found under %s", dir)
	}
	for _, rom := range roms {
		rom := rom
		t.Run(filepath.Base(rom), func(t *testing.T) {
			runBlargg(t, rom, 3600)
		})
	}
}
