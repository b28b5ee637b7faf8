package datasets

import "time"

// ReferenceDataset is a versioned, named collection of comparison data an
// analysis run is evaluated against. Rows are seeded by migrations and other
// operational tooling; this service only reads them.
type ReferenceDataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description *string   `json:"description,omitempty"`
	StorageURI  string    `json:"storageUri"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
