package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a graph table. JSON documents parse too,
// since JSON is a subset of YAML.
type File struct {
	Locations []Location `yaml:"locations"`
	Links     []Link     `yaml:"links"`
	// Bidirectional adds the reverse record of every link when true.
	Bidirectional bool `yaml:"bidirectional"`
}

// Parse decodes a graph table and builds the graph from it.
func Parse(data []byte) (*Graph, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("graph.Parse: %w", err)
	}
	if len(f.Locations) == 0 {
		return nil, fmt.Errorf("graph.Parse: no locations")
	}
	links := f.Links
	if f.Bidirectional {
		links = Bidirectional(links)
	}
	return New(f.Locations, links)
}

// LoadFile reads and parses the graph table at path.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read graph file: %w", err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return g, nil
}
