// Package report writes the persisted CSV artifacts: per-feature
// importances, per-residue projections and direction estimates. Every
// writer stages the file next to its destination and renames it into
// place, so a failed write never leaves a truncated file behind.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"mdpost/internal/importance"
)

// WriteFeatureImportances writes a "Feature,Importance" CSV, one row
// per feature in ranked order, scores rounded to 4 decimals.
func WriteFeatureImportances(path string, fi importance.FeatureImportance, ranked []string) error {
	if ranked == nil {
		ranked = fi.RankedNames()
	}
	rows := make([][]string, 0, len(ranked)+1)
	rows = append(rows, []string{"Feature", "Importance"})
	for _, name := range ranked {
		score, ok := fi[name]
		if !ok {
			return fmt.Errorf("feature importances: ranked name %q missing from map", name)
		}
		rows = append(rows, []string{name, formatScore(importance.Round4(score))})
	}
	return writeAtomic(path, rows)
}

// WriteResidueImportances writes a "Residue Number,Normalised Score"
// CSV in ranked (descending-score) order. Scores arrive already rounded
// to 5 decimals by the aggregator.
func WriteResidueImportances(path string, ranked []importance.ResidueScore) error {
	rows := make([][]string, 0, len(ranked)+1)
	rows = append(rows, []string{"Residue Number", "Normalised Score"})
	for _, rs := range ranked {
		rows = append(rows, []string{strconv.Itoa(rs.Residue), formatScore(rs.Score)})
	}
	return writeAtomic(path, rows)
}

// WriteFeatureDirections writes a "Feature Name,Predicted Direction"
// CSV, features in the given order.
func WriteFeatureDirections(path string, directions map[string]string, order []string) error {
	rows := make([][]string, 0, len(order)+1)
	rows = append(rows, []string{"Feature Name", "Predicted Direction"})
	for _, name := range order {
		direction, ok := directions[name]
		if !ok {
			return fmt.Errorf("directions: feature %q missing from map", name)
		}
		rows = append(rows, []string{name, direction})
	}
	return writeAtomic(path, rows)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to publish %s: %w", path, err)
	}

	log.Info().Str("file", path).Int("rows", len(rows)-1).Msg("Report written")
	return nil
}
