package schema

import (
	"fmt"
	"regexp"
	"strings"
)

var ErrUnknownRenderer = func(name string) error { return fmt.Errorf("unknown graph format %q", name) }

// Renderer draws the dependency graph of a database.
type Renderer func(db *Database) string

func ParseRenderer(name string) (Renderer, error) {
	switch strings.ToLower(name) {
	case "mermaid", "":
		return RenderMermaid, nil
	case "text", "string":
		return RenderText, nil
	}
	return nil, ErrUnknownRenderer(name)
}

// RenderText lists the dependencies of every definition.
func RenderText(db *Database) string {
	var sb strings.Builder
	sb.WriteString("Table Dependencies:\n\n")
	for _, def := range db.definitions {
		if len(def.DependsOn) == 0 {
			fmt.Fprintf(&sb, "%s has no dependencies.\n", def.Name)
			continue
		}
		fmt.Fprintf(&sb, "%s depends on: %s\n", def.Name, strings.Join(def.DependsOn, ", "))
	}
	return sb.String()
}

const mermaidConfig = `---
config:
  layout: elk
  elk:
    mergeEdges: true
    nodePlacementStrategy: LINEAR_SEGMENTS
  theme: dark
---
`

var nonWord = regexp.MustCompile(`\W`)

func mermaidNode(name string) string {
	return nonWord.ReplaceAllString(name, "_")
}

// RenderMermaid draws a left to right Mermaid flowchart with one subgraph
// per dependency level.
func RenderMermaid(db *Database) string {
	var sb strings.Builder
	sb.WriteString(mermaidConfig)
	sb.WriteString("graph LR\n")

	for i, names := range db.Levels() {
		fmt.Fprintf(&sb, "  subgraph Level%d\n", i+1)
		for _, name := range names {
			node := mermaidNode(name)
			fmt.Fprintf(&sb, "    %s[%s]\n", node, node)
		}
		sb.WriteString("  end\n")
	}

	for _, def := range db.definitions {
		for _, dep := range def.DependsOn {
			fmt.Fprintf(&sb, "  %s --> %s\n", mermaidNode(dep), mermaidNode(def.Name))
		}
	}
	return sb.String()
}
