package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/decpomdp-go/infrastructure/problems"
)

// problemInfo summarizes a built-in problem.
type problemInfo struct {
	Name     string      `json:"name"`
	Summary  string      `json:"summary"`
	States   int         `json:"states"`
	Discount float64     `json:"discount"`
	Agents   []agentInfo `json:"agents"`
}

type agentInfo struct {
	Name         string   `json:"name"`
	Actions      []string `json:"actions"`
	Observations []string `json:"observations"`
}

func (a *App) newProblemsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "problems",
		Short: "List the built-in problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := describeProblems(problems.Default())
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tAGENTS\tSTATES\tDISCOUNT\tSUMMARY")
			for _, p := range infos {
				names := make([]string, len(p.Agents))
				for i, ag := range p.Agents {
					names[i] = ag.Name
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%s\n", p.Name, strings.Join(names, ","), p.States, p.Discount, p.Summary)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func describeProblems(reg *problems.Registry) ([]problemInfo, error) {
	var infos []problemInfo
	for _, name := range reg.Names() {
		p, err := reg.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", name, err)
		}
		info := problemInfo{
			Name:     name,
			Summary:  reg.Summary(name),
			States:   len(p.States()),
			Discount: p.Discount(),
		}
		for _, ag := range p.Agents() {
			ai := agentInfo{Name: ag.Name()}
			for _, act := range ag.Actions() {
				ai.Actions = append(ai.Actions, string(act))
			}
			for _, o := range ag.Observations() {
				ai.Observations = append(ai.Observations, string(o))
			}
			info.Agents = append(info.Agents, ai)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
