package inspector

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/decpomdp-go/domain/inspector"
)

// MermaidFormatter renders controllers as flowcharts and the statechart as
// a state diagram.
type MermaidFormatter struct{}

// NewMermaidFormatter creates a Mermaid formatter.
func NewMermaidFormatter() *MermaidFormatter {
	return &MermaidFormatter{}
}

// Format renders a *SnapshotExport or *StateMachineExport.
func (f *MermaidFormatter) Format(data any) ([]byte, error) {
	switch v := data.(type) {
	case *inspector.SnapshotExport:
		return f.formatSnapshot(v), nil
	case *inspector.StateMachineExport:
		return f.formatStateMachine(v), nil
	default:
		return nil, fmt.Errorf("%w: mermaid cannot render %T", inspector.ErrInvalidFormat, data)
	}
}

// FormatType returns inspector.FormatMermaid.
func (f *MermaidFormatter) FormatType() inspector.ExportFormat {
	return inspector.FormatMermaid
}

func (f *MermaidFormatter) formatSnapshot(s *inspector.SnapshotExport) []byte {
	var b strings.Builder

	b.WriteString("flowchart LR\n")
	for i, c := range s.Controllers {
		fmt.Fprintf(&b, "  subgraph a%d[\"%s\"]\n", i, mermaidText(c.Agent))
		for _, n := range c.Nodes {
			fmt.Fprintf(&b, "    %s([\"%s<br/>%s\"])\n", mermaidID(i, n.ID), mermaidText(n.ID), mermaidText(actionLabel(n.Actions)))
		}
		for _, e := range c.Edges {
			fmt.Fprintf(&b, "    %s -->|\"%s\"| %s\n", mermaidID(i, e.From), mermaidText(edgeLabel(e)), mermaidID(i, e.To))
		}
		b.WriteString("  end\n")
	}
	return []byte(b.String())
}

func (f *MermaidFormatter) formatStateMachine(sm *inspector.StateMachineExport) []byte {
	var b strings.Builder

	b.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&b, "  [*] --> %s\n", sm.Initial)
	for _, t := range sm.Transitions {
		if t.Label != "" {
			fmt.Fprintf(&b, "  %s --> %s: %s\n", t.From, t.To, t.Label)
		} else {
			fmt.Fprintf(&b, "  %s --> %s\n", t.From, t.To)
		}
	}
	for _, terminal := range sm.Terminal {
		fmt.Fprintf(&b, "  %s --> [*]\n", terminal)
	}
	return []byte(b.String())
}

// mermaidID builds an identifier from the agent index and node name, since
// Mermaid IDs cannot carry dashes or slashes safely.
func mermaidID(agent int, node string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "a%d_", agent)
	for _, r := range node {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func mermaidText(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

var _ inspector.Formatter = (*MermaidFormatter)(nil)
