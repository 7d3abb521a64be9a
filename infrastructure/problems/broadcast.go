package problems

import (
	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
)

// BroadcastName is the registry name of the broadcast channel problem.
const BroadcastName = "broadcast"

// Broadcast channel symbols.
const (
	Wait symbol.Action = "wait"
	Send symbol.Action = "send"

	BufferEmpty symbol.Observation = "empty"
	BufferFull  symbol.Observation = "full"
)

// arrivalRates is the probability that an empty buffer receives a message
// in one step, per agent.
var arrivalRates = [2]float64{0.9, 0.1}

// buffers is the state of both agents' message buffers.
type buffers [2]bool

func (b buffers) state() symbol.State {
	switch b {
	case buffers{false, false}:
		return "empty"
	case buffers{true, false}:
		return "full-1"
	case buffers{false, true}:
		return "full-2"
	default:
		return "full-both"
	}
}

func parseBuffers(s symbol.State) buffers {
	switch s {
	case "full-1":
		return buffers{true, false}
	case "full-2":
		return buffers{false, true}
	case "full-both":
		return buffers{true, true}
	default:
		return buffers{}
	}
}

// Broadcast builds the two-agent broadcast channel problem. A message is
// delivered when exactly one agent sends from a full buffer; simultaneous
// sends collide and both messages stay queued. Each agent observes only its
// own buffer.
func Broadcast() (*decpomdp.Problem, error) {
	all := []buffers{{false, false}, {true, false}, {false, true}, {true, true}}
	states := make([]symbol.State, len(all))
	for i, b := range all {
		states[i] = b.state()
	}
	actions := []symbol.Action{Wait, Send}
	observations := []symbol.Observation{BufferEmpty, BufferFull}

	return decpomdp.NewBuilder(BroadcastName).
		States(states...).
		Agent("sender-1", actions, observations).
		Agent("sender-2", actions, observations).
		Discount(0.9).
		InitialBelief(distribution.Single(buffers{true, true}.state())).
		TransitionFunc(func(s symbol.State, a decpomdp.JointAction) *distribution.Distribution[symbol.State] {
			after := parseBuffers(s)
			if i, ok := delivered(after, a); ok {
				after[i] = false
			}

			var entries []distribution.Entry[symbol.State]
			for _, next := range all {
				p := 1.0
				for i := range next {
					switch {
					case after[i] && !next[i]:
						p = 0
					case after[i]:
					case next[i]:
						p *= arrivalRates[i]
					default:
						p *= 1 - arrivalRates[i]
					}
				}
				if p > 0 {
					entries = append(entries, distribution.E(next.state(), p))
				}
			}
			return distribution.MustFromEntries(entries...)
		}).
		RewardFunc(func(s symbol.State, a decpomdp.JointAction) float64 {
			if _, ok := delivered(parseBuffers(s), a); ok {
				return 1
			}
			return 0
		}).
		ObservationFunc(func(_ decpomdp.JointAction, next symbol.State) *distribution.Distribution[decpomdp.JointObservation] {
			b := parseBuffers(next)
			return distribution.Product(
				distribution.Single(bufferObservation(b[0])),
				distribution.Single(bufferObservation(b[1])),
			)
		}).
		Build()
}

// delivered returns the agent whose message goes through, if any.
func delivered(b buffers, a decpomdp.JointAction) (int, bool) {
	senders := 0
	who := -1
	for i, act := range a.Elements() {
		if act == Send {
			senders++
			who = i
		}
	}
	if senders != 1 || !b[who] {
		return 0, false
	}
	return who, true
}

func bufferObservation(full bool) symbol.Observation {
	if full {
		return BufferFull
	}
	return BufferEmpty
}
