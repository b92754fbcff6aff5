package domain

import "time"

// Manifest summarizes one pipeline run. It is written next to the tables and
// published to the notification topic when one is configured.
type Manifest struct {
	RunID          string         `json:"run_id"`
	InputDir       string         `json:"input_dir"`
	OutputDir      string         `json:"output_dir"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Files          []string       `json:"files"`
	RecordsRead    int            `json:"records_read"`
	RecordsSkipped int            `json:"records_skipped"`
	Deduplicated   bool           `json:"deduplicated"`
	Tables         map[string]int `json:"tables"`
}

// StartManifest stamps a new manifest with the package clock.
func StartManifest(runID, inputDir, outputDir string) Manifest {
	return Manifest{
		RunID:     runID,
		InputDir:  inputDir,
		OutputDir: outputDir,
		StartedAt: clock.Now().UTC(),
		Tables:    map[string]int{},
	}
}

// Finish records the final table sizes and the finish time.
func (m *Manifest) Finish(t Tables) {
	m.Tables = t.Counts()
	m.FinishedAt = clock.Now().UTC()
}

// Duration is the wall time between start and finish.
func (m Manifest) Duration() time.Duration {
	return m.FinishedAt.Sub(m.StartedAt)
}
