package runs

import (
	"fmt"
	"sort"
)

// DatasetRef names a concrete reference dataset by its unique
// (name, version) pair.
type DatasetRef struct {
	Name    string
	Version string
}

// datasetLookup is the compiled-in mapping from user-facing reference-sample
// ids to dataset records. The UI enumeration and this table ship together;
// a miss indicates a deploy-time mismatch, not a user error.
var datasetLookup = map[string]DatasetRef{
	"png-modern-2026-01": {Name: "modern_png", Version: "2026-01"},
}

// KnownReferenceSamples returns the reference-sample ids this build accepts,
// sorted for stable error messages.
func KnownReferenceSamples() []string {
	ids := make([]string, 0, len(datasetLookup))
	for id := range datasetLookup {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolveReferenceDataset maps a reference-sample id to its dataset. The
// mapping is total over the validated enumeration; failure is a
// ConfigError.
func ResolveReferenceDataset(referenceSample string) (DatasetRef, error) {
	ref, ok := datasetLookup[referenceSample]
	if !ok {
		return DatasetRef{}, &ConfigError{
			Op:  "reference dataset resolution",
			Err: fmt.Errorf("no dataset entry for reference sample %q", referenceSample),
		}
	}
	return ref, nil
}
