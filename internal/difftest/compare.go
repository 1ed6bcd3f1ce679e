package difftest

import (
	"encoding/json"
	"reflect"
)

// buildReport pairs up the per-case harness lines from both sides and
// decides each case.
func buildReport(cases []json.RawMessage, py, ts []harnessLine) *Report {
	report := &Report{
		Total:   len(cases),
		Results: make([]CaseResult, 0, len(cases)),
	}
	for i := range cases {
		res := compareCase(i, cases[i], py[i], ts[i])
		if res.Match {
			report.Matched++
		}
		report.Results = append(report.Results, res)
	}
	report.AllMatch = report.Matched == report.Total
	return report
}

// compareCase decides one case. Two successes match when their decoded
// values are deeply equal; two failures match, since the port preserved
// the error behavior, and the messages are reported for review. A
// success paired with a failure never matches.
func compareCase(index int, args json.RawMessage, py, ts harnessLine) CaseResult {
	res := CaseResult{
		Index:       index,
		Args:        args,
		PythonError: py.Error,
		TSError:     ts.Error,
	}
	switch {
	case py.OK && ts.OK:
		res.PythonValue = py.Value
		res.TSValue = ts.Value
		res.Match = jsonEqual(py.Value, ts.Value)
	case !py.OK && !ts.OK:
		res.Match = true
	default:
		if py.OK {
			res.PythonValue = py.Value
		}
		if ts.OK {
			res.TSValue = ts.Value
		}
	}
	return res
}

// jsonEqual compares two JSON documents structurally: object key order
// and insignificant number formatting (1 vs 1.0) do not matter.
func jsonEqual(a, b json.RawMessage) bool {
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}
