package decpomdp

import "errors"

// Domain errors for problem construction.
var (
	// ErrNoStates is returned when a problem declares no states.
	ErrNoStates = errors.New("problem has no states")

	// ErrNoAgents is returned when a problem declares no agents.
	ErrNoAgents = errors.New("problem has no agents")

	// ErrInvalidAgent is returned when an agent has no name, actions or observations.
	ErrInvalidAgent = errors.New("invalid agent")

	// ErrInvalidDiscount is returned when the discount factor is outside (0, 1].
	ErrInvalidDiscount = errors.New("discount must be in (0, 1]")

	// ErrUnknownState is returned when a table refers to an undeclared state.
	ErrUnknownState = errors.New("unknown state")

	// ErrUnknownAction is returned when a joint action is not valid for the agents.
	ErrUnknownAction = errors.New("unknown joint action")

	// ErrUnknownObservation is returned when a joint observation is not valid for the agents.
	ErrUnknownObservation = errors.New("unknown joint observation")

	// ErrInvalidController is returned when an agent's controller does not fit its action and observation sets.
	ErrInvalidController = errors.New("invalid controller")
)
