// Package value stores the joint value function V(state, joint node).
package value

import (
	"encoding/json"
	"iter"
	"maps"
	"math"

	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
)

// Key identifies one entry of the value function.
type Key struct {
	State symbol.State
	Nodes vector.Vector[symbol.Node]
}

// Function maps (state, joint node) pairs to expected discounted return.
// Missing entries mean the pair still needs evaluation.
type Function struct {
	values map[Key]float64
}

// New creates an empty value function.
func New() *Function {
	return &Function{values: make(map[Key]float64)}
}

// Get returns V(s, q).
func (f *Function) Get(s symbol.State, q vector.Vector[symbol.Node]) (float64, bool) {
	v, ok := f.values[Key{s, q}]
	return v, ok
}

// Has reports whether V(s, q) is defined.
func (f *Function) Has(s symbol.State, q vector.Vector[symbol.Node]) bool {
	_, ok := f.values[Key{s, q}]
	return ok
}

// Set defines V(s, q).
func (f *Function) Set(s symbol.State, q vector.Vector[symbol.Node], v float64) {
	f.values[Key{s, q}] = v
}

// Delete removes V(s, q).
func (f *Function) Delete(s symbol.State, q vector.Vector[symbol.Node]) {
	delete(f.values, Key{s, q})
}

// Len returns the number of defined entries.
func (f *Function) Len() int {
	return len(f.values)
}

// Clear removes every entry.
func (f *Function) Clear() {
	clear(f.values)
}

// Clone returns an independent copy.
func (f *Function) Clone() *Function {
	return &Function{values: maps.Clone(f.values)}
}

// All iterates over every defined entry in unspecified order.
func (f *Function) All() iter.Seq2[Key, float64] {
	return maps.All(f.values)
}

// RemoveNode drops every entry whose slot agent holds node.
func (f *Function) RemoveNode(agent int, node symbol.Node) int {
	removed := 0
	for k := range f.values {
		if k.Nodes.At(agent) == node {
			delete(f.values, k)
			removed++
		}
	}
	return removed
}

// BeliefValue returns the sum over b(s) * V(s, q). It reports false when an
// entry in the belief's support is undefined.
func (f *Function) BeliefValue(b *distribution.Distribution[symbol.State], q vector.Vector[symbol.Node]) (float64, bool) {
	var sum float64
	for s, p := range b.All() {
		v, ok := f.values[Key{s, q}]
		if !ok {
			return 0, false
		}
		sum += p * v
	}
	return sum, true
}

// Best returns the joint node with the highest belief value among
// candidates. The first candidate wins ties. Candidates with undefined
// entries are skipped.
func (f *Function) Best(b *distribution.Distribution[symbol.State], candidates iter.Seq[vector.Vector[symbol.Node]]) (vector.Vector[symbol.Node], float64, bool) {
	var (
		best  vector.Vector[symbol.Node]
		value = math.Inf(-1)
		found bool
	)
	for q := range candidates {
		v, ok := f.BeliefValue(b, q)
		if !ok {
			continue
		}
		if !found || v > value {
			best, value, found = q, v, true
		}
	}
	return best, value, found
}

type entryJSON struct {
	State symbol.State               `json:"state"`
	Nodes vector.Vector[symbol.Node] `json:"nodes"`
	Value float64                    `json:"value"`
}

// MarshalJSON encodes the entries as a list.
func (f *Function) MarshalJSON() ([]byte, error) {
	out := make([]entryJSON, 0, len(f.values))
	for k, v := range f.values {
		out = append(out, entryJSON{State: k.State, Nodes: k.Nodes, Value: v})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a list of entries.
func (f *Function) UnmarshalJSON(data []byte) error {
	var in []entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	f.values = make(map[Key]float64, len(in))
	for _, e := range in {
		f.values[Key{e.State, e.Nodes}] = e.Value
	}
	return nil
}
