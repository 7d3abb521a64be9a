package problems

import (
	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
)

// TwoStateName is the registry name of the two-state problem.
const TwoStateName = "twostate"

// Two-state symbols.
const (
	StateZero symbol.State = "s0"
	StateOne  symbol.State = "s1"

	Stay symbol.Action = "stay"
	Go   symbol.Action = "go"

	ObserveZero symbol.Observation = "o0"
	ObserveOne  symbol.Observation = "o1"
)

// TwoStateOptimum is the optimal discounted value of TwoState at its
// initial belief: always playing go earns 1 per step on average.
const TwoStateOptimum = 10.0

// TwoState builds a single-agent problem with two states and uninformative
// observations. Every action moves to a uniformly random state. go earns 2
// in s0 and nothing in s1; stay earns 0.5 anywhere. The seed controller
// plays stay, so one improvement step is needed to reach the optimum.
func TwoState() (*decpomdp.Problem, error) {
	states := []symbol.State{StateZero, StateOne}
	observations := []symbol.Observation{ObserveZero, ObserveOne}

	next, err := distribution.Uniform(states)
	if err != nil {
		return nil, err
	}
	noise, err := distribution.Uniform([]decpomdp.JointObservation{
		vector.Of(ObserveZero),
		vector.Of(ObserveOne),
	})
	if err != nil {
		return nil, err
	}

	return decpomdp.NewBuilder(TwoStateName).
		States(states...).
		Agent("agent", []symbol.Action{Stay, Go}, observations).
		Discount(0.9).
		TransitionFunc(func(symbol.State, decpomdp.JointAction) *distribution.Distribution[symbol.State] {
			return next
		}).
		RewardFunc(func(s symbol.State, a decpomdp.JointAction) float64 {
			switch {
			case a.At(0) == Stay:
				return 0.5
			case s == StateZero:
				return 2
			default:
				return 0
			}
		}).
		ObservationFunc(func(decpomdp.JointAction, symbol.State) *distribution.Distribution[decpomdp.JointObservation] {
			return noise
		}).
		Build()
}
