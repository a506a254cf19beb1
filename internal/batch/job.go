package batch

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Job pairs one damaged scene with its reference asset.
type Job struct {
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	Scene     string `yaml:"scene" json:"scene"`
	Reference string `yaml:"reference" json:"reference"`
	// Root optionally overrides the skeleton root with a path in the scene.
	Root string `yaml:"root,omitempty" json:"root,omitempty"`
}

type jobFile struct {
	Jobs []Job `yaml:"jobs"`
}

// LoadJobs reads a YAML or JSON job list.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: read jobs: %w", err)
	}
	var f jobFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("batch: parse jobs %s: %w", path, err)
	}
	for i, j := range f.Jobs {
		if j.Scene == "" || j.Reference == "" {
			return nil, fmt.Errorf("batch: job %d: scene and reference are required", i)
		}
		if j.Name == "" {
			f.Jobs[i].Name = j.Scene
		}
	}
	return f.Jobs, nil
}
