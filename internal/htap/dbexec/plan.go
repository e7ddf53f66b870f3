package dbexec

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// PlanNode is a node of an EXPLAIN (FORMAT JSON) plan.
type PlanNode struct {
	NodeType      string      `json:"Node Type"`
	EstimatedRows float64     `json:"Plan Rows"`
	ActualRows    float64     `json:"Actual Rows"`
	Children      []*PlanNode `json:"Plans"`
}

// SumRows adds up the estimated and actual rows of the subtree, children first.
func (n *PlanNode) SumRows() (estimated, actual int64) {
	if n == nil {
		return 0, 0
	}
	for _, child := range n.Children {
		e, a := child.SumRows()
		estimated += e
		actual += a
	}
	estimated += int64(n.EstimatedRows)
	actual += int64(n.ActualRows)
	return estimated, actual
}

type explainOutput struct {
	Plan *PlanNode `json:"Plan"`
}

// ParsePlan extracts the root plan node from EXPLAIN (FORMAT JSON) output.
func ParsePlan(raw []byte) (*PlanNode, error) {
	var out []explainOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "error parsing query plan")
	}
	if len(out) == 0 || out[0].Plan == nil {
		return nil, errors.New("query plan is empty")
	}
	return out[0].Plan, nil
}
