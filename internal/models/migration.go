package models

// MigrationCandidate is one story whose cover image still lives on the
// automation platform's temporary hosting.
type MigrationCandidate struct {
	ID         string  `json:"id"`
	Title      *string `json:"title,omitempty"`
	CurrentURL string  `json:"currentUrl"`
}

// MigrationResult records the outcome for one migrated story.
type MigrationResult struct {
	ID     string  `json:"id"`
	Title  *string `json:"title,omitempty"`
	Status string  `json:"status"` // success or error
	OldURL string  `json:"oldUrl,omitempty"`
	NewURL string  `json:"newUrl,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// MigrationStats summarizes a finished migration batch.
type MigrationStats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Errors     int `json:"errors"`
}

// MigrationReport is the answer of POST /api/migrate-images. A dry run
// fills Candidates; a real run fills Results and Stats.
type MigrationReport struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	DryRun     bool                 `json:"dryRun"`
	Candidates []MigrationCandidate `json:"storiesToMigrate,omitempty"`
	Results    []MigrationResult    `json:"results,omitempty"`
	Stats      *MigrationStats      `json:"stats,omitempty"`
}

// MigrationStatus is the answer of GET /api/migrate-images.
type MigrationStatus struct {
	Total      int64 `json:"total"`
	Migrated   int64 `json:"migrated"`
	Pending    int64 `json:"pending"`
	Percentage int   `json:"percentage"`
	Ready      bool  `json:"ready"`
}

// MigrateImagesRequest is the body of POST /api/migrate-images. DryRun
// defaults to true so an empty body never moves data.
type MigrateImagesRequest struct {
	DryRun    *bool `json:"dryRun,omitempty"`
	BatchSize int   `json:"batchSize,omitempty"`
}
