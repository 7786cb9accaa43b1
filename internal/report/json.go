package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type serializedReport struct {
	Generator         string    `json:"generator"`
	Created           time.Time `json:"created"`
	SourceRoot        string    `json:"source_root"`
	TargetRoot        string    `json:"target_root"`
	SourceFingerprint string    `json:"source_fingerprint"`
	TargetFingerprint string    `json:"target_fingerprint"`
	Sheets            []Sheet   `json:"sheets"`
}

// WriteJSON saves the workbook tables along with the run metadata.
func WriteJSON(w *Workbook, meta Meta, path string) error {
	serialized := serializedReport{
		Generator:         "folder-delta",
		Created:           time.Now(),
		SourceRoot:        meta.SourceRoot,
		TargetRoot:        meta.TargetRoot,
		SourceFingerprint: meta.SourceFingerprint,
		TargetFingerprint: meta.TargetFingerprint,
		Sheets:            w.Sheets,
	}

	data, err := json.MarshalIndent(serialized, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Meta identifies the trees a report was produced from.
type Meta struct {
	SourceRoot        string
	TargetRoot        string
	SourceFingerprint string
	TargetFingerprint string
}
