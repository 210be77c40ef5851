package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/shekhirin/pyrometer/internal/concrete"
	"github.com/shekhirin/pyrometer/internal/testutil"
)

// TraceSnapshot is the golden-file form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	SnapshotID   string       `json:"snapshot_id"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot to the generic shape
// concrete.MarshalCanonical accepts.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		deps := make([]any, len(event.Deps))
		for j, d := range event.Deps {
			deps[j] = d
		}
		eventMap := map[string]any{
			"seq":     event.Seq,
			"check":   event.Check,
			"expr":    event.Expr,
			"mode":    event.Mode,
			"input":   event.Input,
			"output":  event.Output,
			"outcome": event.Outcome,
			"deps":    deps,
		}
		if event.Equal != nil {
			eventMap["equal"] = *event.Equal
		}
		if event.Order != "" {
			eventMap["order"] = event.Order
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"snapshot_id":   s.SnapshotID,
		"trace":         traceList,
	}
}

// MarshalTrace renders a run as canonical JSON.
func MarshalTrace(scenario *Scenario, result *Result) ([]byte, error) {
	snapshotID := scenario.SnapshotID
	if snapshotID == "" {
		snapshotID = testutil.DefaultSnapshotID
	}
	snap := TraceSnapshot{
		ScenarioName: scenario.Name,
		SnapshotID:   snapshotID,
		Trace:        result.Trace,
	}
	return concrete.MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden executes a scenario, fails t on any check or assertion
// mismatch, and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}

	traceJSON, err := MarshalTrace(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}
