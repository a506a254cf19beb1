package batch

import (
	"encoding/json"
	"os"
)

// Summary totals a batch run.
type Summary struct {
	Jobs          int `json:"jobs"`
	Succeeded     int `json:"succeeded"`
	Failed        int `json:"failed"`
	Clean         int `json:"clean"`
	MissingBones  int `json:"missing_bones"`
	MissingMeshes int `json:"missing_meshes"`
}

// Summarize counts outcomes; a clean scene has nothing missing.
func Summarize(results []Result) Summary {
	s := Summary{Jobs: len(results)}
	for _, r := range results {
		if !r.Success {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.MissingBones += r.MissingBones
		s.MissingMeshes += r.MissingMeshes
		if r.MissingBones == 0 && r.MissingMeshes == 0 {
			s.Clean++
		}
	}
	return s
}

type manifest struct {
	Summary Summary  `json:"summary"`
	Results []Result `json:"results"`
}

// WriteManifest writes the results and their summary as JSON.
func WriteManifest(path string, results []Result) error {
	data, err := json.MarshalIndent(manifest{Summary: Summarize(results), Results: results}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
