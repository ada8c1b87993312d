package suite

import (
	"fmt"
	"regexp"
)

// GroupSteps lists the step expressions of one step group.
type GroupSteps struct {
	Context string   `json:"context" yaml:"context"`
	Steps   []string `json:"steps" yaml:"steps"`
}

type stepRecorder struct {
	exprs []string
}

func (r *stepRecorder) Step(expr, _ interface{}) {
	switch e := expr.(type) {
	case string:
		r.exprs = append(r.exprs, e)
	case *regexp.Regexp:
		r.exprs = append(r.exprs, e.String())
	default:
		r.exprs = append(r.exprs, fmt.Sprint(e))
	}
}

// Vocabulary wires the enabled groups outside of any scenario and returns
// the expressions each one registers, in wiring order. Groups without steps
// are omitted.
func (s *Suite) Vocabulary() ([]GroupSteps, error) {
	run := s.wire()
	if run.wireErr != nil {
		return nil, run.wireErr
	}
	vocabulary := make([]GroupSteps, 0, len(run.groups))
	for i, group := range run.groups {
		recorder := &stepRecorder{}
		group.RegisterSteps(recorder)
		if len(recorder.exprs) == 0 {
			continue
		}
		vocabulary = append(vocabulary, GroupSteps{Context: run.names[i], Steps: recorder.exprs})
	}
	return vocabulary, nil
}
