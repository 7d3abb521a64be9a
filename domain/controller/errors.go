package controller

import "errors"

// Domain errors for controller operations.
var (
	// ErrNodeExists is returned when adding a node that is already present.
	ErrNodeExists = errors.New("node already exists")

	// ErrUnknownNode is returned when an operation references a node that is not present.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownAction is returned when a node selects an action outside the agent's action set.
	ErrUnknownAction = errors.New("unknown action")

	// ErrMissingTransition is returned when a reachable (action, observation) pair has no follow node.
	ErrMissingTransition = errors.New("missing transition")

	// ErrEmptyController is returned when a controller has no nodes.
	ErrEmptyController = errors.New("controller has no nodes")
)
