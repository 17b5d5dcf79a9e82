package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// UpdateGoldenEnv rewrites golden files instead of comparing when set.
const UpdateGoldenEnv = "GANTTVIEW_UPDATE_GOLDEN"

// MatchGolden compares CLI output with testdata/<name>.golden, reporting the
// first differing line.
func MatchGolden(t *testing.T, name string, got []byte) {
	t.Helper()

	file := filepath.Join("testdata", name+".golden")
	if os.Getenv(UpdateGoldenEnv) != "" {
		if err := os.WriteFile(file, got, 0644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
		return
	}

	want, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read %s: %v (set %s=1 to create it)", file, err, UpdateGoldenEnv)
	}
	if string(got) == string(want) {
		return
	}

	gotLines := strings.Split(string(got), "\n")
	wantLines := strings.Split(string(want), "\n")
	for i := 0; i < len(gotLines) || i < len(wantLines); i++ {
		var g, w string
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if i < len(wantLines) {
			w = wantLines[i]
		}
		if g != w {
			t.Errorf("%s: line %d differs\nwant: %q\ngot:  %q\nfull output:\n%s", file, i+1, w, g, got)
			return
		}
	}
}
