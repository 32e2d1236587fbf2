package testutils

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var update bool

func init() {
	flag.BoolVar(&update, "update", false, "update golden files")
}

// UpdateEnabled reports whether the -update flag was passed to the test run.
func UpdateEnabled() bool {
	return update
}

// GoldenPath returns the golden file path for the current test.
func GoldenPath(t *testing.T) string {
	t.Helper()

	return filepath.Join("testdata", "golden", t.Name())
}

// LoadWithUpdateFromGolden loads the golden file content for the current test.
// When -update is passed, the golden file is first overwritten with want.
func LoadWithUpdateFromGolden(t *testing.T, want string) string {
	t.Helper()

	goldenPath := GoldenPath(t)

	if update {
		t.Logf("updating golden file %s", goldenPath)
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0750), "Cannot create golden directory")
		require.NoError(t, os.WriteFile(goldenPath, []byte(want), 0600), "Cannot write golden file")
	}

	content, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "Cannot load golden file")

	return string(content)
}

// LoadWithUpdateFromGoldenYAML loads the golden file for the current test as
// the same type as want. When -update is passed, the golden file is first
// refreshed with the YAML serialization of want.
func LoadWithUpdateFromGoldenYAML[E any](t *testing.T, want E) E {
	t.Helper()

	t.Logf("Read golden file %s", GoldenPath(t))

	var serialized string
	if update {
		b, err := yaml.Marshal(want)
		require.NoError(t, err, "Cannot marshal object to YAML")
		serialized = string(b)
	}

	var got E
	err := yaml.Unmarshal([]byte(LoadWithUpdateFromGolden(t, serialized)), &got)
	require.NoError(t, err, "Cannot unmarshal golden file to object")

	return got
}
