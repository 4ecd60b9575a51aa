// Package glossary explains plan operator types for legends.
package glossary

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed glossary.yaml
var glossaryYAML []byte

type Entry struct {
	Type        string `yaml:"-" json:"type"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type document struct {
	NodeTypes map[string]Entry `yaml:"node_types"`
}

var entries = mustParse(glossaryYAML)

func parse(data []byte) (map[string]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing glossary: %w", err)
	}
	for nodeType, e := range doc.NodeTypes {
		e.Type = nodeType
		if e.Title == "" {
			e.Title = nodeType
		}
		doc.NodeTypes[nodeType] = e
	}
	return doc.NodeTypes, nil
}

func mustParse(data []byte) map[string]Entry {
	m, err := parse(data)
	if err != nil {
		panic(err)
	}
	return m
}

func Lookup(nodeType string) (Entry, bool) {
	e, ok := entries[nodeType]
	return e, ok
}

// Legend returns one entry per type in the given order. Types without a
// glossary entry get their own name as title and an empty description.
func Legend(types []string) []Entry {
	legend := make([]Entry, 0, len(types))
	for _, t := range types {
		e, ok := entries[t]
		if !ok {
			e = Entry{Type: t, Title: t}
		}
		legend = append(legend, e)
	}
	return legend
}
