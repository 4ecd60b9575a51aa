package analyzer

import (
	"strconv"
	"strings"
)

// Label renders the one-line caption of a node, e.g.
// "Node 3 | Index Scan on users using users_pkey".
func Label(n Node) string {
	var b strings.Builder
	b.WriteString("Node ")
	b.WriteString(strconv.Itoa(n.ID))
	b.WriteString(" | ")
	b.WriteString(n.Type)

	// index-only scans are fully described by their index
	if strings.Contains(strings.ToLower(n.Type), "only") {
		if n.Index != "" {
			b.WriteString(" on ")
			b.WriteString(n.Index)
		}
		return b.String()
	}

	if n.Relation != "" {
		b.WriteString(" on ")
		b.WriteString(n.Relation)
	}
	if n.Index != "" {
		b.WriteString(" using ")
		b.WriteString(n.Index)
	}
	return b.String()
}
