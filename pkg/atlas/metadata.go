package atlas

import (
	"fmt"
	"sort"
)

// Size counts the entities of an atlas by kind.
type Size struct {
	Nodes     int `yaml:"nodes"`
	Points    int `yaml:"points"`
	Edges     int `yaml:"edges"`
	Lines     int `yaml:"lines"`
	Areas     int `yaml:"areas"`
	Relations int `yaml:"relations"`
}

// Total returns the number of entities.
func (s Size) Total() int {
	return s.Nodes + s.Points + s.Edges + s.Lines + s.Areas + s.Relations
}

// MetaData describes where an atlas comes from.
type MetaData struct {
	// Original is true when the atlas was built directly from OSM data
	// rather than derived from another atlas.
	Original bool `yaml:"original"`

	CodeVersion string `yaml:"codeVersion"`
	DataVersion string `yaml:"dataVersion"`
	Country     string `yaml:"country"`
	Shard       string `yaml:"shard"`

	Tags map[string]string `yaml:"tags"`
}

// Lines renders the metadata as "key: value" lines, tags sorted by key.
func (m MetaData) Lines() []string {
	lines := []string{
		fmt.Sprintf("original: %t", m.Original),
		"codeVersion: " + m.CodeVersion,
		"dataVersion: " + m.DataVersion,
		"country: " + m.Country,
		"shard: " + m.Shard,
	}

	keys := make([]string, 0, len(m.Tags))
	for k := range m.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, k+": "+m.Tags[k])
	}
	return lines
}
