package reports

import "time"

// Report is the persisted record of one prediction batch. It is written
// exactly once per successful prediction and never mutated; only the
// owning identity can read it back.
type Report struct {
	ID          string
	Owner       string
	CreatedAt   time.Time
	SourceName  string
	Predictions []int
	SampleCount int

	// StorageKey points at the archived raw upload in object storage.
	// Empty when the archive is disabled or the upload failed.
	StorageKey string
}
