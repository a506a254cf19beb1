// Package asset reads and writes hierarchy documents and instantiates
// reference assets from them.
//
// A document is YAML or JSON. Skinned renderers store bones as paths relative
// to the document root; a null entry is an empty slot.
package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tells reference assets apart from editable scenes.
type Kind string

const (
	KindAsset Kind = "asset"
	KindScene Kind = "scene"
)

// Document is one serialized hierarchy.
type Document struct {
	Kind Kind    `yaml:"kind" json:"kind"`
	Name string  `yaml:"name,omitempty" json:"name,omitempty"`
	Root NodeDoc `yaml:"root" json:"root"`
}

// NodeDoc is one node. Rotation is a quaternion (x, y, z, w); Euler, in
// degrees, is accepted as an alternative on input.
type NodeDoc struct {
	Name     string       `yaml:"name" json:"name"`
	Position *[3]float64  `yaml:"position,omitempty" json:"position,omitempty"`
	Rotation *[4]float64  `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	Euler    *[3]float64  `yaml:"euler,omitempty" json:"euler,omitempty"`
	Scale    *[3]float64  `yaml:"scale,omitempty" json:"scale,omitempty"`
	Renderer *RendererDoc `yaml:"renderer,omitempty" json:"renderer,omitempty"`
	Skin     *SkinDoc     `yaml:"skin,omitempty" json:"skin,omitempty"`
	Children []NodeDoc    `yaml:"children,omitempty" json:"children,omitempty"`
}

type MaterialDoc struct {
	Name    string `yaml:"name" json:"name"`
	Shader  string `yaml:"shader,omitempty" json:"shader,omitempty"`
	Texture string `yaml:"texture,omitempty" json:"texture,omitempty"`
}

type RendererDoc struct {
	Mesh      string         `yaml:"mesh" json:"mesh"`
	Vertices  int            `yaml:"vertices,omitempty" json:"vertices,omitempty"`
	Materials []*MaterialDoc `yaml:"materials,omitempty" json:"materials,omitempty"`
	Disabled  bool           `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

type BoundsDoc struct {
	Center  [3]float64 `yaml:"center" json:"center"`
	Extents [3]float64 `yaml:"extents" json:"extents"`
}

// SkinDoc is a skinned renderer. An empty Mesh means the renderer lost its
// mesh reference.
type SkinDoc struct {
	Mesh                string         `yaml:"mesh,omitempty" json:"mesh,omitempty"`
	Vertices            int            `yaml:"vertices,omitempty" json:"vertices,omitempty"`
	Materials           []*MaterialDoc `yaml:"materials,omitempty" json:"materials,omitempty"`
	Bones               []*string      `yaml:"bones,omitempty" json:"bones,omitempty"`
	RootBone            *string        `yaml:"root_bone,omitempty" json:"root_bone,omitempty"`
	Bounds              *BoundsDoc     `yaml:"bounds,omitempty" json:"bounds,omitempty"`
	UpdateWhenOffscreen bool           `yaml:"update_when_offscreen,omitempty" json:"update_when_offscreen,omitempty"`
	Disabled            bool           `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// Decode parses a YAML or JSON document.
func Decode(data []byte) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("asset: decode: %w", err)
	}
	if doc.Kind == "" {
		doc.Kind = KindAsset
	}
	if doc.Kind != KindAsset && doc.Kind != KindScene {
		return Document{}, fmt.Errorf("asset: unknown document kind %q", doc.Kind)
	}
	if doc.Root.Name == "" {
		return Document{}, fmt.Errorf("asset: document has no root node")
	}
	return doc, nil
}

// Encode writes doc as JSON when asJSON is set, YAML otherwise.
func Encode(doc Document, asJSON bool) ([]byte, error) {
	if asJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("asset: encode json: %w", err)
		}
		return append(data, '\n'), nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("asset: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("asset: encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads a document file.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("asset: read %s: %w", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return Document{}, fmt.Errorf("asset: %s: %w", path, err)
	}
	return doc, nil
}

// Save writes doc to path; a .json extension selects JSON.
func Save(path string, doc Document) error {
	data, err := Encode(doc, isJSON(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("asset: create dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("asset: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("asset: write %s: %w", path, err)
	}
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
