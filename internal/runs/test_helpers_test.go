package runs

import (
	"encoding/json"
	"testing"
	"time"

	"isotope-backend/internal/datasets"
)

func validInputMap() map[string]any {
	return map[string]any{
		"metadata": map[string]any{
			"caseNumber":     "2026-0412",
			"analystName":    "T. Okada",
			"elementSampled": "femur",
		},
		"comparison": map[string]any{
			"referenceSample": "png-modern-2026-01",
			"numberOfGroups":  "two",
			"classifier":      "lda",
			"stepwise":        "none",
			"populations":     []string{"Japan", "SEA"},
		},
		"isotopeInputs": map[string]any{
			"collagen": map[string]any{
				"col13c": -19.4,
				"col15n": 9.8,
				"col34s": nil,
			},
			"apatite": map[string]any{
				"a13c": -12.1,
				"a18o": nil,
			},
			"enamel": map[string]any{
				"e13c": nil,
				"e18o": 26.3,
			},
		},
	}
}

func validInputJSON(t *testing.T, mutate func(map[string]any)) json.RawMessage {
	t.Helper()
	payload := validInputMap()
	if mutate != nil {
		mutate(payload)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal input payload: %v", err)
	}
	return raw
}

func validResultJSON(t *testing.T, mutate func(map[string]any)) json.RawMessage {
	t.Helper()
	payload := map[string]any{
		"summary": map[string]any{
			"predictedGroup": "Japan",
			"probability":    0.87,
			"decision":       "likely",
		},
		"scores": []map[string]any{
			{"group": "Japan", "score": 0.87},
			{"group": "SEA", "score": 0.13},
		},
	}
	if mutate != nil {
		mutate(payload)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal result payload: %v", err)
	}
	return raw
}

func seededDatasetRepo(t *testing.T) (*datasets.MemoryRepo, datasets.ReferenceDataset) {
	t.Helper()
	repo := datasets.NewMemoryRepo()
	ds := repo.Seed(datasets.ReferenceDataset{
		Name:       "modern_png",
		Version:    "2026-01",
		StorageURI: "/reference_datasets/modern_png/2026-01/dataset.csv",
		IsActive:   true,
	})
	return repo, ds
}

func newTestService(t *testing.T) (*Service, datasets.ReferenceDataset) {
	t.Helper()
	dsRepo, ds := seededDatasetRepo(t)
	svc := &Service{
		Repo:        NewMemoryRepo(dsRepo),
		Datasets:    dsRepo,
		MaxTake:     100,
		DefaultTake: 20,
	}
	return svc, ds
}

func fieldPaths(t *testing.T, err error) []string {
	t.Helper()
	vErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	paths := make([]string, 0, len(vErr.Fields))
	for _, f := range vErr.Fields {
		paths = append(paths, f.Path)
	}
	return paths
}

func containsPath(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}
