package catchment

import (
	"fmt"
	"strings"
)

// DOTGraph renders the catchment's topology as Graphviz DOT text, a
// diagnostic convenience standing in for the source's direct-to-graphviz
// rendering. The core never shells out to `dot`; callers pipe the text
// through it themselves.
func (c *Catchment) DOTGraph() string {
	var b strings.Builder
	b.WriteString("digraph catchment {\n")
	for _, id := range c.order {
		n := c.nodesByID[id]
		b.WriteString(fmt.Sprintf("  %q [state=%q];\n", id, n.state))
	}
	for _, id := range c.order {
		n := c.nodesByID[id]
		for _, d := range n.downstreamIDs {
			b.WriteString(fmt.Sprintf("  %q -> %q;\n", id, d))
		}
	}
	b.WriteString("}\n")
	return b.String()
}
