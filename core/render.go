package core

import (
	"fmt"
	"strings"
)

// RenderSnapshot formats the links and every node's source table for the console.
func RenderSnapshot(snap NetworkSnapshot) string {
	sb := strings.Builder{}
	sb.WriteString("Links:\n")
	if len(snap.Edges) == 0 {
		sb.WriteString(" (none)\n")
	}
	for _, e := range snap.Edges {
		sb.WriteString(fmt.Sprintf(" - %s\n", e))
	}

	sb.WriteString("\nRoute Tables:\n")
	for _, n := range snap.Nodes {
		sb.WriteString(fmt.Sprintf(" - %s\n", n.Id))
		if len(n.Sources) == 0 {
			sb.WriteString("    (none)\n")
			continue
		}
		for _, dst := range n.Sources.Destinations() {
			sb.WriteString(fmt.Sprintf("    - %s via %s\n", dst, n.Sources[dst]))
		}
	}
	return sb.String()
}
