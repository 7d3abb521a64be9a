package inspector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/decpomdp-go/domain/inspector"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// DOTFormatter renders controllers and the statechart as Graphviz DOT.
type DOTFormatter struct{}

// NewDOTFormatter creates a DOT formatter.
func NewDOTFormatter() *DOTFormatter {
	return &DOTFormatter{}
}

// Format renders a *SnapshotExport or *StateMachineExport.
func (f *DOTFormatter) Format(data any) ([]byte, error) {
	switch v := data.(type) {
	case *inspector.SnapshotExport:
		return f.formatSnapshot(v), nil
	case *inspector.StateMachineExport:
		return f.formatStateMachine(v), nil
	default:
		return nil, fmt.Errorf("%w: dot cannot render %T", inspector.ErrInvalidFormat, data)
	}
}

// FormatType returns inspector.FormatDOT.
func (f *DOTFormatter) FormatType() inspector.ExportFormat {
	return inspector.FormatDOT
}

func (f *DOTFormatter) formatSnapshot(s *inspector.SnapshotExport) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "digraph %s {\n", strconv.Quote(s.Problem))
	fmt.Fprintf(&b, "  label=%s;\n", strconv.Quote(fmt.Sprintf("%s iteration %d value %.6g", s.Problem, s.Iteration, s.Value)))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=ellipse];\n")

	for i, c := range s.Controllers {
		fmt.Fprintf(&b, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&b, "    label=%s;\n", strconv.Quote(c.Agent))
		for _, n := range c.Nodes {
			fmt.Fprintf(&b, "    %s [label=%s];\n", dotID(c.Agent, n.ID), strconv.Quote(n.ID+"\n"+actionLabel(n.Actions)))
		}
		for _, e := range c.Edges {
			fmt.Fprintf(&b, "    %s -> %s [label=%s];\n",
				dotID(c.Agent, e.From), dotID(c.Agent, e.To), strconv.Quote(edgeLabel(e)))
		}
		b.WriteString("  }\n")
	}

	b.WriteString("}\n")
	return []byte(b.String())
}

func (f *DOTFormatter) formatStateMachine(sm *inspector.StateMachineExport) []byte {
	var b strings.Builder

	b.WriteString("digraph SolverPhases {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [shape=box, style=rounded];\n\n")

	for _, state := range sm.States {
		attrs := []string{"label=" + strconv.Quote(string(state.Name))}
		if state.IsTerminal {
			color := "lightgreen"
			if state.Name == run.PhaseFailed {
				color = "lightcoral"
			}
			attrs = append(attrs, `style="rounded,filled"`, "fillcolor="+color)
		}
		fmt.Fprintf(&b, "  %s [%s];\n", strconv.Quote(string(state.Name)), strings.Join(attrs, ", "))
	}

	b.WriteString("\n")
	for _, t := range sm.Transitions {
		attrs := ""
		if t.Label != "" {
			attrs = " [label=" + strconv.Quote(t.Label) + "]"
		}
		fmt.Fprintf(&b, "  %s -> %s%s;\n", strconv.Quote(string(t.From)), strconv.Quote(string(t.To)), attrs)
	}

	b.WriteString("}\n")
	return []byte(b.String())
}

// dotID scopes a node to its agent so clusters never share vertices.
func dotID(agent, node string) string {
	return strconv.Quote(agent + "/" + node)
}

func actionLabel(actions []inspector.WeightedLabel) string {
	if len(actions) == 1 {
		return actions[0].Label
	}
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = fmt.Sprintf("%s %.3g", a.Label, a.Prob)
	}
	return strings.Join(parts, ", ")
}

func edgeLabel(e inspector.EdgeExport) string {
	label := e.Action + " / " + e.Observation
	if e.Prob < 1 {
		label += fmt.Sprintf(" (%.3g)", e.Prob)
	}
	return label
}

var _ inspector.Formatter = (*DOTFormatter)(nil)
