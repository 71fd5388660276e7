package validation

import "encoding/json"

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one detected compliance problem. Rule and Severity are stamped by
// the engine from the rule that produced the issue; checks only fill in the
// message and the table/row reference. Row is the 1-based data row within the
// table, 0 for table-level issues.
type Issue struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Table    string   `json:"table,omitempty"`
	Row      int      `json:"row,omitempty"`
}

// StatusPass and StatusFail are the two overall report outcomes.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Report is the outcome of validating one feed. It is never mutated after
// construction; issue slices are ordered by (rule, table, row, message).
type Report struct {
	Status   string  `json:"status"`
	Score    int     `json:"score"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// HasErrors reports whether any error-severity issue was found.
func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

// TotalIssues is the combined error and warning count.
func (r *Report) TotalIssues() int { return len(r.Errors) + len(r.Warnings) }

// JSON serializes the report. Identical reports serialize to identical bytes.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ParseReport deserializes a report produced by JSON.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Errors == nil {
		r.Errors = []Issue{}
	}
	if r.Warnings == nil {
		r.Warnings = []Issue{}
	}
	return &r, nil
}
