package controller

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
)

type nodeJSON struct {
	Name        symbol.Node                                `json:"name"`
	Actions     *distribution.Distribution[symbol.Action] `json:"actions"`
	Transitions []transitionJSON                           `json:"transitions"`
}

type transitionJSON struct {
	Action      symbol.Action                            `json:"action"`
	Observation symbol.Observation                       `json:"observation"`
	Next        *distribution.Distribution[symbol.Node] `json:"next"`
}

type controllerJSON struct {
	Nodes   []nodeJSON `json:"nodes"`
	Version uint64     `json:"version"`
	NextID  int        `json:"next_id"`
}

// MarshalJSON encodes the controller with nodes in insertion order.
func (c *Controller) MarshalJSON() ([]byte, error) {
	out := controllerJSON{
		Nodes:   make([]nodeJSON, 0, len(c.nodes)),
		Version: c.version,
		NextID:  c.nextID,
	}
	for _, n := range c.nodes {
		nj := nodeJSON{Name: n, Actions: c.actions[n]}
		for _, e := range c.Edges(n) {
			nj.Transitions = append(nj.Transitions, transitionJSON{
				Action:      e.Action,
				Observation: e.Observation,
				Next:        c.transitions[n][e],
			})
		}
		out.Nodes = append(out.Nodes, nj)
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds a controller from its encoded form.
func (c *Controller) UnmarshalJSON(data []byte) error {
	var in controllerJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	decoded := New()
	for _, nj := range in.Nodes {
		if nj.Actions == nil {
			return fmt.Errorf("node %s: missing actions", nj.Name)
		}
		if err := decoded.AddNode(nj.Name, nj.Actions); err != nil {
			return err
		}
	}
	for _, nj := range in.Nodes {
		for _, tj := range nj.Transitions {
			if tj.Next == nil {
				return fmt.Errorf("node %s: missing follow nodes", nj.Name)
			}
			if err := decoded.AddTransition(nj.Name, tj.Action, tj.Observation, tj.Next); err != nil {
				return err
			}
		}
	}
	decoded.version = in.Version
	decoded.nextID = in.NextID
	*c = *decoded
	return nil
}
