// Package controller implements stochastic finite-state controllers: each
// node selects an action distribution, and each (node, action, observation)
// triple selects a distribution over follow nodes.
package controller

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
)

// Edge identifies an outgoing transition of a node.
type Edge struct {
	Action      symbol.Action
	Observation symbol.Observation
}

// Controller is a single agent's policy. It is not safe for concurrent
// mutation; phases that mutate a controller own it exclusively.
type Controller struct {
	nodes       []symbol.Node
	actions     map[symbol.Node]*distribution.Distribution[symbol.Action]
	transitions map[symbol.Node]map[Edge]*distribution.Distribution[symbol.Node]
	version     uint64
	nextID      int
}

// New creates an empty controller.
func New() *Controller {
	return &Controller{
		actions:     make(map[symbol.Node]*distribution.Distribution[symbol.Action]),
		transitions: make(map[symbol.Node]map[Edge]*distribution.Distribution[symbol.Node]),
	}
}

// Seed creates a one-node controller that always plays action and loops
// back to itself on every observation.
func Seed(node symbol.Node, action symbol.Action, observations []symbol.Observation) *Controller {
	c := New()
	if err := c.AddDeterministicNode(node, action); err != nil {
		panic(err)
	}
	for _, o := range observations {
		if err := c.AddDeterministicTransition(node, action, o, node); err != nil {
			panic(err)
		}
	}
	return c
}

// AddNode adds a node with the given action distribution.
func (c *Controller) AddNode(node symbol.Node, actions *distribution.Distribution[symbol.Action]) error {
	if actions == nil {
		panic("controller: nil action distribution")
	}
	if c.Has(node) {
		return fmt.Errorf("%w: %s", ErrNodeExists, node)
	}
	c.nodes = append(c.nodes, node)
	c.actions[node] = actions.Clone()
	c.transitions[node] = make(map[Edge]*distribution.Distribution[symbol.Node])
	c.version++
	return nil
}

// AddDeterministicNode adds a node that always selects action.
func (c *Controller) AddDeterministicNode(node symbol.Node, action symbol.Action) error {
	return c.AddNode(node, distribution.Single(action))
}

// AddTransition sets the follow-node distribution for (node, action,
// observation). The source and every target must already exist.
func (c *Controller) AddTransition(node symbol.Node, action symbol.Action, observation symbol.Observation, next *distribution.Distribution[symbol.Node]) error {
	if next == nil {
		panic("controller: nil follow-node distribution")
	}
	if !c.Has(node) {
		return fmt.Errorf("%w: %s", ErrUnknownNode, node)
	}
	for target := range next.All() {
		if !c.Has(target) {
			return fmt.Errorf("%w: transition target %s", ErrUnknownNode, target)
		}
	}
	c.transitions[node][Edge{Action: action, Observation: observation}] = next.Clone()
	c.version++
	return nil
}

// AddDeterministicTransition sets a single follow node for (node, action, observation).
func (c *Controller) AddDeterministicTransition(node symbol.Node, action symbol.Action, observation symbol.Observation, next symbol.Node) error {
	return c.AddTransition(node, action, observation, distribution.Single(next))
}

// Action returns the action distribution of node. The returned
// distribution is owned by the controller and must not be modified.
func (c *Controller) Action(node symbol.Node) (*distribution.Distribution[symbol.Action], bool) {
	d, ok := c.actions[node]
	return d, ok
}

// FollowNode returns the follow-node distribution for (node, action,
// observation). The returned distribution must not be modified.
func (c *Controller) FollowNode(node symbol.Node, action symbol.Action, observation symbol.Observation) (*distribution.Distribution[symbol.Node], bool) {
	edges, ok := c.transitions[node]
	if !ok {
		return nil, false
	}
	d, ok := edges[Edge{Action: action, Observation: observation}]
	return d, ok
}

// Edges returns the outgoing edges of node.
func (c *Controller) Edges(node symbol.Node) []Edge {
	edges := make([]Edge, 0, len(c.transitions[node]))
	for e := range c.transitions[node] {
		edges = append(edges, e)
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		return cmp.Or(cmp.Compare(a.Action, b.Action), cmp.Compare(a.Observation, b.Observation))
	})
	return edges
}

// Has reports whether node is present.
func (c *Controller) Has(node symbol.Node) bool {
	_, ok := c.actions[node]
	return ok
}

// Nodes returns the nodes in insertion order.
func (c *Controller) Nodes() []symbol.Node {
	return slices.Clone(c.nodes)
}

// Len returns the number of nodes.
func (c *Controller) Len() int {
	return len(c.nodes)
}

// Version counts mutations. It changes whenever a node or transition is
// added or a node is pruned.
func (c *Controller) Version() uint64 {
	return c.version
}

// NextNodeName returns a node name not used by this controller before.
func (c *Controller) NextNodeName() symbol.Node {
	for {
		name := symbol.Node(fmt.Sprintf("n%d", c.nextID))
		c.nextID++
		if !c.Has(name) {
			return name
		}
	}
}

// PruneNode removes node and redirects every transition mass that pointed
// at it onto replacement. Replacements that reference node itself or any
// node not in the controller panic.
func (c *Controller) PruneNode(node symbol.Node, replacement *distribution.Distribution[symbol.Node]) error {
	if !c.Has(node) {
		return fmt.Errorf("%w: %s", ErrUnknownNode, node)
	}
	if replacement.Contains(node) {
		panic(fmt.Sprintf("controller: replacement for pruned node %s references it", node))
	}
	for target := range replacement.All() {
		if !c.Has(target) {
			panic(fmt.Sprintf("controller: replacement for %s references unknown node %s", node, target))
		}
	}

	c.nodes = slices.DeleteFunc(c.nodes, func(n symbol.Node) bool { return n == node })
	delete(c.actions, node)
	delete(c.transitions, node)

	for _, n := range c.nodes {
		for _, next := range c.transitions[n] {
			if next.Contains(node) {
				next.ReplaceEntryWithDistribution(node, replacement)
			}
		}
	}
	c.version++
	return nil
}

// Validate checks that every action is in actions, that every reachable
// (action, observation) pair has a follow-node distribution and that every
// target exists.
func (c *Controller) Validate(actions []symbol.Action, observations []symbol.Observation) error {
	if len(c.nodes) == 0 {
		return ErrEmptyController
	}
	for _, n := range c.nodes {
		for a := range c.actions[n].All() {
			if !slices.Contains(actions, a) {
				return fmt.Errorf("%w: node %s selects %s", ErrUnknownAction, n, a)
			}
			for _, o := range observations {
				next, ok := c.FollowNode(n, a, o)
				if !ok {
					return fmt.Errorf("%w: node %s action %s observation %s", ErrMissingTransition, n, a, o)
				}
				for target := range next.All() {
					if !c.Has(target) {
						return fmt.Errorf("%w: node %s follows to %s", ErrUnknownNode, n, target)
					}
				}
			}
		}
	}
	return nil
}

// Clone returns a deep copy sharing no state with c.
func (c *Controller) Clone() *Controller {
	out := &Controller{
		nodes:       slices.Clone(c.nodes),
		actions:     make(map[symbol.Node]*distribution.Distribution[symbol.Action], len(c.actions)),
		transitions: make(map[symbol.Node]map[Edge]*distribution.Distribution[symbol.Node], len(c.transitions)),
		version:     c.version,
		nextID:      c.nextID,
	}
	for n, d := range c.actions {
		out.actions[n] = d.Clone()
	}
	for n, edges := range c.transitions {
		m := make(map[Edge]*distribution.Distribution[symbol.Node], len(edges))
		for e, d := range edges {
			m[e] = d.Clone()
		}
		out.transitions[n] = m
	}
	return out
}
