package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdpost/internal/importance"
)

func TestWriteFeatureImportances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "random_forest_Feature_Importances.csv")
	fi := importance.FeatureImportance{"A1 A2": 0.123456, "A2 A3": 0.9}

	require.NoError(t, WriteFeatureImportances(path, fi, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	assert.Equal(t, "Feature,Importance", lines[0])
	assert.Equal(t, "A2 A3,0.9", lines[1])
	assert.Equal(t, "A1 A2,0.1235", lines[2], "scores round to 4 decimals")
}

func TestWriteFeatureImportancesRankedOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	fi := importance.FeatureImportance{"A1 A2": 0.2, "A2 A3": 0.8}

	require.NoError(t, WriteFeatureImportances(path, fi, []string{"A1 A2", "A2 A3"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "A1 A2,0.2", lines[1], "explicit ranked order wins over score order")
}

func TestWriteFeatureImportancesMissingRankedName(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	err := WriteFeatureImportances(path, importance.FeatureImportance{}, []string{"A1 A2"})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial file may be left behind")
}

func TestWriteResidueImportances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Per_Residue_Importances.csv")
	ranked := []importance.ResidueScore{
		{Residue: 2, Score: 1.0},
		{Residue: 3, Score: 0.8},
		{Residue: 1, Score: 0.33333},
	}

	require.NoError(t, WriteResidueImportances(path, ranked))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	assert.Equal(t, "Residue Number,Normalised Score", lines[0])
	assert.Equal(t, []string{"2,1", "3,0.8", "1,0.33333"}, lines[1:])
}

func TestWriteFeatureDirections(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feature_direction_estimates.csv")
	directions := map[string]string{"A1 A2": "bound", "A2 A3": "unbound"}

	require.NoError(t, WriteFeatureDirections(path, directions, []string{"A1 A2", "A2 A3"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	assert.Equal(t, "Feature Name,Predicted Direction", lines[0])
	assert.Equal(t, "A1 A2,bound", lines[1])
	assert.Equal(t, "A2 A3,unbound", lines[2])
}

func TestWriteOverwritesExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	ranked := []importance.ResidueScore{{Residue: 7, Score: 1.0}}
	require.NoError(t, WriteResidueImportances(path, ranked))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.Contains(t, string(data), "7,1")
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, WriteResidueImportances(path, []importance.ResidueScore{{Residue: 1, Score: 1}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.csv", entries[0].Name())
}
