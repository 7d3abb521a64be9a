package problems

import (
	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
)

// DecTigerName is the registry name of the Dec-Tiger problem.
const DecTigerName = "dectiger"

// Dec-Tiger symbols.
const (
	TigerLeft  symbol.State = "tiger-left"
	TigerRight symbol.State = "tiger-right"

	Listen    symbol.Action = "listen"
	OpenLeft  symbol.Action = "open-left"
	OpenRight symbol.Action = "open-right"

	HearLeft  symbol.Observation = "hear-left"
	HearRight symbol.Observation = "hear-right"
)

// listenAccuracy is the probability that a listening agent hears the tiger
// on the correct side.
const listenAccuracy = 0.85

// DecTiger builds the two-agent Dec-Tiger problem with discount 0.9.
// Opening any door resets the tiger uniformly; only listening is informative.
func DecTiger() (*decpomdp.Problem, error) {
	states := []symbol.State{TigerLeft, TigerRight}
	actions := []symbol.Action{Listen, OpenLeft, OpenRight}
	observations := []symbol.Observation{HearLeft, HearRight}
	listenBoth := vector.Of(Listen, Listen)

	reset, err := distribution.Uniform(states)
	if err != nil {
		return nil, err
	}
	jointObservations, err := vector.NewGenerator(observations, observations)
	if err != nil {
		return nil, err
	}
	noise, err := distribution.Uniform(jointObservations.List())
	if err != nil {
		return nil, err
	}

	hear := func(s symbol.State) *distribution.Distribution[symbol.Observation] {
		correct, wrong := HearLeft, HearRight
		if s == TigerRight {
			correct, wrong = wrong, correct
		}
		return distribution.MustFromEntries(
			distribution.E(correct, listenAccuracy),
			distribution.E(wrong, 1-listenAccuracy),
		)
	}

	return decpomdp.NewBuilder(DecTigerName).
		States(states...).
		Agent("agent-1", actions, observations).
		Agent("agent-2", actions, observations).
		Discount(0.9).
		TransitionFunc(func(s symbol.State, a decpomdp.JointAction) *distribution.Distribution[symbol.State] {
			if a == listenBoth {
				return distribution.Single(s)
			}
			return reset
		}).
		RewardFunc(tigerReward).
		ObservationFunc(func(a decpomdp.JointAction, next symbol.State) *distribution.Distribution[decpomdp.JointObservation] {
			if a == listenBoth {
				return distribution.Product(hear(next), hear(next))
			}
			return noise
		}).
		Build()
}

// tigerReward scores a joint action. good and tiger count the agents that
// open the safe door and the tiger's door.
func tigerReward(s symbol.State, a decpomdp.JointAction) float64 {
	tigerDoor := OpenLeft
	if s == TigerRight {
		tigerDoor = OpenRight
	}

	var good, tiger int
	for _, act := range a.Elements() {
		switch act {
		case Listen:
		case tigerDoor:
			tiger++
		default:
			good++
		}
	}

	switch {
	case good == 0 && tiger == 0:
		return -2
	case good == 2:
		return 20
	case tiger == 2:
		return -50
	case tiger == 1 && good == 1:
		return -100
	case tiger == 1:
		return -101
	default:
		return 9
	}
}
