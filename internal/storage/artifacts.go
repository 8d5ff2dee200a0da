// Package storage keeps snapshots and plans as JSON artifacts on disk.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/logger"
	"github.com/shiftplan/shiftplan/pkg/model"
)

const (
	snapshotsDir   = "snapshots"
	plansDir       = "plans"
	manifestFile   = "manifest.json"
	latestFile     = "latest.json"
	snapshotFile   = "snapshot.json"
	planFile       = "plan.json"
	defaultListMax = 20
)

// SnapshotCounts are the record counts of a stored snapshot.
type SnapshotCounts struct {
	Employees      int `json:"employees"`
	ExistingShifts int `json:"existing_shifts"`
	OpenSlots      int `json:"open_slots"`
	Absences       int `json:"absences"`
}

// SnapshotManifest describes a stored snapshot.
type SnapshotManifest struct {
	SnapshotID  string         `json:"snapshot_id"`
	Venue       string         `json:"venue,omitempty"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	GeneratedAt string         `json:"generated_at"`
	StoredAt    time.Time      `json:"stored_at"`
	Counts      SnapshotCounts `json:"counts"`
	Path        string         `json:"path"`
}

// PlanManifest describes a stored plan.
type PlanManifest struct {
	PlanID         string               `json:"plan_id"`
	SnapshotID     string               `json:"snapshot_id"`
	GeneratedAt    time.Time            `json:"generated_at"`
	Profile        string               `json:"profile"`
	Mechanism      string               `json:"mechanism"`
	ConstraintMode model.ConstraintMode `json:"constraint_mode"`
	Range          model.DateRange      `json:"range"`
	Counts         model.PlanMetrics    `json:"counts"`
	Path           string               `json:"path"`
}

// ArtifactStore reads and writes artifacts under a root directory:
// snapshots/<id>/{snapshot,manifest}.json, plans/<id>/{plan,manifest}.json
// and a latest.json pointer per kind.
type ArtifactStore struct {
	root string
	now  func() time.Time
}

// NewArtifactStore creates the directory layout under root.
func NewArtifactStore(root string) (*ArtifactStore, error) {
	for _, dir := range []string{snapshotsDir, plansDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "create artifact directory")
		}
	}
	return &ArtifactStore{root: root, now: time.Now}, nil
}

// Root returns the artifact root directory.
func (s *ArtifactStore) Root() string {
	return s.root
}

// SaveSnapshot stores a snapshot and makes it the latest one.
func (s *ArtifactStore) SaveSnapshot(snapshot *model.Snapshot) (*SnapshotManifest, error) {
	if err := checkID("snapshot", snapshot.SnapshotID); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, snapshotsDir, snapshot.SnapshotID)
	if err := writeJSON(filepath.Join(dir, snapshotFile), snapshot); err != nil {
		return nil, err
	}

	m := &SnapshotManifest{
		SnapshotID:  snapshot.SnapshotID,
		Venue:       snapshot.Venue,
		From:        snapshot.Range.From,
		To:          snapshot.Range.To,
		GeneratedAt: snapshot.GeneratedAt,
		StoredAt:    s.now().UTC(),
		Counts: SnapshotCounts{
			Employees:      len(snapshot.Employees),
			ExistingShifts: len(snapshot.ExistingShifts),
			OpenSlots:      len(snapshot.OpenSlots),
			Absences:       len(snapshot.Absences),
		},
		Path: absPath(dir),
	}
	if m.GeneratedAt == "" {
		m.GeneratedAt = m.StoredAt.Format(time.RFC3339)
	}
	if err := writeJSON(filepath.Join(dir, manifestFile), m); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(s.root, snapshotsDir, latestFile), m); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadSnapshot loads a snapshot by id, or the latest one when id is empty.
func (s *ArtifactStore) LoadSnapshot(id string) (*model.Snapshot, error) {
	var m SnapshotManifest
	if err := s.manifest(snapshotsDir, "snapshot", id, &m); err != nil {
		return nil, err
	}
	var snapshot model.Snapshot
	if err := readJSON(filepath.Join(s.root, snapshotsDir, m.SnapshotID, snapshotFile), "snapshot", m.SnapshotID, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListSnapshots returns up to limit manifests, newest first.
func (s *ArtifactStore) ListSnapshots(limit int) ([]SnapshotManifest, error) {
	out, err := listManifests[SnapshotManifest](filepath.Join(s.root, snapshotsDir))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GeneratedAt != out[j].GeneratedAt {
			return out[i].GeneratedAt > out[j].GeneratedAt
		}
		return out[i].SnapshotID < out[j].SnapshotID
	})
	return truncate(out, limit), nil
}

// SavePlan stores a plan and makes it the latest one.
func (s *ArtifactStore) SavePlan(plan *model.Plan) (*PlanManifest, error) {
	if err := checkID("plan", plan.PlanID); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, plansDir, plan.PlanID)
	if err := writeJSON(filepath.Join(dir, planFile), plan); err != nil {
		return nil, err
	}

	m := &PlanManifest{
		PlanID:         plan.PlanID,
		SnapshotID:     plan.SnapshotID,
		GeneratedAt:    plan.GeneratedAt,
		Profile:        plan.Profile,
		Mechanism:      plan.Mechanism,
		ConstraintMode: plan.ConstraintMode,
		Range:          plan.Range,
		Counts:         plan.Metrics,
		Path:           absPath(dir),
	}
	if err := writeJSON(filepath.Join(dir, manifestFile), m); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(s.root, plansDir, latestFile), m); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadPlan loads a plan by id, or the latest one when id is empty.
func (s *ArtifactStore) LoadPlan(id string) (*model.Plan, error) {
	var m PlanManifest
	if err := s.manifest(plansDir, "plan", id, &m); err != nil {
		return nil, err
	}
	var plan model.Plan
	if err := readJSON(filepath.Join(s.root, plansDir, m.PlanID, planFile), "plan", m.PlanID, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlans returns up to limit manifests, newest first.
func (s *ArtifactStore) ListPlans(limit int) ([]PlanManifest, error) {
	out, err := listManifests[PlanManifest](filepath.Join(s.root, plansDir))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].GeneratedAt.Equal(out[j].GeneratedAt) {
			return out[i].GeneratedAt.After(out[j].GeneratedAt)
		}
		return out[i].PlanID < out[j].PlanID
	})
	return truncate(out, limit), nil
}

func (s *ArtifactStore) manifest(kind, resource, id string, v interface{}) error {
	path := filepath.Join(s.root, kind, latestFile)
	if id != "" {
		if err := checkID(resource, id); err != nil {
			return err
		}
		path = filepath.Join(s.root, kind, id, manifestFile)
	} else {
		id = "latest"
	}
	return readJSON(path, resource, id, v)
}

// listManifests reads every <dir>/<id>/manifest.json. Unreadable
// manifests are skipped with a warning.
func listManifests[T any](dir string) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "list "+dir)
	}

	out := make([]T, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name(), manifestFile)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var m T
		if err := json.Unmarshal(data, &m); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable manifest")
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func truncate[T any](items []T, limit int) []T {
	if limit <= 0 {
		limit = defaultListMax
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

// checkID rejects ids that would escape their artifact directory.
func checkID(resource, id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return apperrors.InvalidInput(resource+"_id", fmt.Sprintf("%q is not a valid id", id))
	}
	return nil
}

// writeJSON writes v indented through a temp file and a rename.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "create "+filepath.Dir(path))
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "encode "+filepath.Base(path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "write "+path)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return apperrors.Wrap(err, apperrors.CodeStorageError, "write "+path)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "write "+path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "write "+path)
	}
	return nil
}

func readJSON(path, resource, id string, v interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.NotFound(resource, id)
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "read "+path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "decode "+path)
	}
	return nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
