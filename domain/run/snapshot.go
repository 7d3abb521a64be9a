package run

import (
	"time"

	"github.com/felixgeelhaar/decpomdp-go/domain/controller"
	"github.com/felixgeelhaar/decpomdp-go/domain/value"
)

// AgentController pairs an agent name with a copy of its controller.
type AgentController struct {
	Agent      string                 `json:"agent"`
	Controller *controller.Controller `json:"controller"`
}

// Snapshot captures the joint controller and value function at the end of
// an outer iteration.
type Snapshot struct {
	ID          string            `json:"id"`
	RunID       string            `json:"run_id"`
	Problem     string            `json:"problem"`
	Iteration   int               `json:"iteration"`
	Status      Status            `json:"status"`
	Value       float64           `json:"value"`
	Controllers []AgentController `json:"controllers"`
	Values      *value.Function   `json:"values,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TotalNodes returns the number of nodes across all controllers.
func (s *Snapshot) TotalNodes() int {
	n := 0
	for _, ac := range s.Controllers {
		if ac.Controller != nil {
			n += ac.Controller.Len()
		}
	}
	return n
}
