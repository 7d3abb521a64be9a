package numeric

import (
	"fmt"
	"slices"
)

// Relation is the comparison in a linear constraint.
type Relation int

// Constraint relations.
const (
	LessOrEqual Relation = iota
	Equal
	GreaterOrEqual
)

// String returns the relation symbol.
func (r Relation) String() string {
	switch r {
	case LessOrEqual:
		return "<="
	case Equal:
		return "="
	case GreaterOrEqual:
		return ">="
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// Bound restricts the domain of a variable.
type Bound int

// Variable bounds.
const (
	NonNegative Bound = iota
	Free
)

// Variable is a named decision variable.
type Variable struct {
	Name  string
	Bound Bound
}

// Constraint is sum(Coefficients[v] * v) Relation RHS.
type Constraint struct {
	Coefficients map[string]float64
	Relation     Relation
	RHS          float64
}

// LinearProgram is a backend-independent description of a linear program.
type LinearProgram struct {
	variables   []Variable
	index       map[string]int
	objective   map[string]float64
	constraints []Constraint
}

// NewLinearProgram creates an empty program.
func NewLinearProgram() *LinearProgram {
	return &LinearProgram{
		index:     make(map[string]int),
		objective: make(map[string]float64),
	}
}

// AddVariable declares a variable.
func (lp *LinearProgram) AddVariable(name string, bound Bound) error {
	if _, ok := lp.index[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVariable, name)
	}
	lp.index[name] = len(lp.variables)
	lp.variables = append(lp.variables, Variable{Name: name, Bound: bound})
	return nil
}

// SetObjective sets the coefficient of name in the objective.
func (lp *LinearProgram) SetObjective(name string, coefficient float64) error {
	if _, ok := lp.index[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	lp.objective[name] = coefficient
	return nil
}

// AddConstraint appends a constraint. Every referenced variable must exist.
func (lp *LinearProgram) AddConstraint(c Constraint) error {
	for name := range c.Coefficients {
		if _, ok := lp.index[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
		}
	}
	lp.constraints = append(lp.constraints, c)
	return nil
}

// Variables returns the declared variables in order.
func (lp *LinearProgram) Variables() []Variable {
	return slices.Clone(lp.variables)
}

// Objective returns the objective coefficient of name.
func (lp *LinearProgram) Objective(name string) float64 {
	return lp.objective[name]
}

// Constraints returns the constraints in order.
func (lp *LinearProgram) Constraints() []Constraint {
	return slices.Clone(lp.constraints)
}

// Solution is the optimum of a linear program.
type Solution struct {
	Objective float64
	Values    map[string]float64
}

// Value returns the optimal value of the named variable.
func (s Solution) Value(name string) float64 {
	return s.Values[name]
}
