package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// PlanSink stores EXPLAIN ANALYZE output under <resultsDir>/query_plans.
type PlanSink struct {
	dir string
}

func NewPlanSink(resultsDir string) (*PlanSink, error) {
	dir := filepath.Join(resultsDir, "query_plans")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	return &PlanSink{dir: dir}, nil
}

// WritePlan overwrites the plan of the query's previous execution in the same stream.
func (p *PlanSink) WritePlan(streamID, queryID int, plan string) error {
	path := filepath.Join(p.dir, fmt.Sprintf("%d_%d.txt", streamID, queryID))
	if err := os.WriteFile(path, []byte(plan), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write query plan %s", path)
	}
	return nil
}
