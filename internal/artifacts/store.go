package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	importancesBucket    = "importances"
	decompositionsBucket = "decompositions"
	distributionsBucket  = "distributions"
)

// Store persists model artifacts between runs using BoltDB. Records are
// JSON-encoded and keyed "model_timestamp", so range scans over a model
// prefix return its versions in chronological order.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the artifact database under dataPath and
// ensures all buckets exist.
func Open(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "mdpost-artifacts.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{importancesBucket, decompositionsBucket, distributionsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("create %s bucket: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveImportances stores a model's importance artifact.
func (s *Store) SaveImportances(a ImportanceArtifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return s.put(importancesBucket, a.Model, a.CreatedAt, a)
}

// LatestImportances returns the most recent importance artifact stored
// for the model, or an error when none exists.
func (s *Store) LatestImportances(model string) (*ImportanceArtifact, error) {
	var a ImportanceArtifact
	if err := s.latest(importancesBucket, model, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SavePCA stores a decomposition artifact.
func (s *Store) SavePCA(a PCAArtifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return s.put(decompositionsBucket, a.Model, a.CreatedAt, a)
}

// LatestPCA returns the most recent decomposition stored for the model.
func (s *Store) LatestPCA(model string) (*PCAArtifact, error) {
	var a PCAArtifact
	if err := s.latest(decompositionsBucket, model, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveDistributions stores a per-class distributions artifact under the
// given name.
func (s *Store) SaveDistributions(name string, a DistributionsArtifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return s.put(distributionsBucket, name, a.CreatedAt, a)
}

// LatestDistributions returns the most recent distributions artifact
// stored under the name.
func (s *Store) LatestDistributions(name string) (*DistributionsArtifact, error) {
	var a DistributionsArtifact
	if err := s.latest(distributionsBucket, name, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Models lists the distinct model names present in the importances
// bucket.
func (s *Store) Models() ([]string, error) {
	seen := make(map[string]bool)
	var models []string

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(importancesBucket)).ForEach(func(k, _ []byte) error {
			name := modelFromKey(k)
			if !seen[name] {
				seen[name] = true
				models = append(models, name)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return models, nil
}

func (s *Store) put(bucket, model string, ts time.Time, v any) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))

		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal artifact: %w", err)
		}

		key := fmt.Sprintf("%s_%020d", model, ts.UnixNano())
		return b.Put([]byte(key), data)
	})
}

func (s *Store) latest(bucket, model string, v any) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()
		prefix := []byte(model + "_")

		var newest []byte
		for k, data := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, data = c.Next() {
			newest = data
		}
		if newest == nil {
			return fmt.Errorf("no artifact stored for %q in %s", model, bucket)
		}
		return json.Unmarshal(newest, v)
	})
}

func modelFromKey(k []byte) string {
	if i := bytes.LastIndexByte(k, '_'); i >= 0 {
		return string(k[:i])
	}
	return string(k)
}
