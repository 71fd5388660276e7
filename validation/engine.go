package validation

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/databus-cr/databus-go/config"
	"github.com/databus-cr/databus-go/gtfs"
)

// Scoring weights. Each error deducts more than any number of warnings of
// equal count, and any error pins the score below the pass threshold.
const (
	errorWeight   = 10
	warningWeight = 3
)

// MissingTableError is the fatal outcome when a required table is entirely
// absent from the feed. No report is produced.
type MissingTableError struct {
	Table string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("required table %s.txt is missing from the feed", e.Table)
}

// Engine runs an enumerable set of independent rules over a feed and builds
// a deterministic, scored report.
type Engine struct {
	rules         []Rule
	passThreshold int
}

// NewEngine creates an engine with the standard rule set and the default
// pass threshold.
func NewEngine() *Engine {
	return &Engine{
		rules:         StandardRules(),
		passThreshold: config.DefaultPassThreshold,
	}
}

// SetPassThreshold overrides the minimum passing score (1..100).
func (e *Engine) SetPassThreshold(t int) {
	if t > 0 && t <= 100 {
		e.passThreshold = t
	}
}

// AddRule registers a custom rule alongside the standard set.
func (e *Engine) AddRule(r Rule) {
	e.rules = append(e.rules, r)
}

// Rules returns the registered rule set.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Validate runs every rule over the feed and returns the aggregated report.
// The feed is read-only for the whole run. A required table that is entirely
// absent aborts with *MissingTableError instead of producing a partial
// report. Identical feeds always yield identical reports: rules execute
// concurrently but their issues are merged under a total order.
func (e *Engine) Validate(f *gtfs.Feed) (*Report, error) {
	if f == nil {
		return nil, fmt.Errorf("no feed to validate")
	}
	for _, table := range gtfs.RequiredTables {
		if !f.Present(table) {
			return nil, &MissingTableError{Table: table}
		}
	}

	results := make([][]Issue, len(e.rules))
	var wg sync.WaitGroup
	for i := range e.rules {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rule := e.rules[i]
			issues := rule.Check(f)
			for j := range issues {
				issues[j].Rule = rule.ID
				issues[j].Severity = rule.Severity
			}
			results[i] = issues
		}(i)
	}
	wg.Wait()

	var all []Issue
	for _, issues := range results {
		all = append(all, issues...)
	}
	sortIssues(all)

	report := &Report{Errors: []Issue{}, Warnings: []Issue{}}
	for _, issue := range all {
		if issue.Severity == SeverityError {
			report.Errors = append(report.Errors, issue)
		} else {
			report.Warnings = append(report.Warnings, issue)
		}
	}
	report.Score = e.score(len(report.Errors), len(report.Warnings))
	if len(report.Errors) > 0 {
		report.Status = StatusFail
	} else {
		report.Status = StatusPass
	}

	log.Printf("validation finished: status=%s score=%d errors=%d warnings=%d",
		report.Status, report.Score, len(report.Errors), len(report.Warnings))
	return report, nil
}

// score maps issue counts to 0..100. More issues never raise the score, zero
// issues score exactly 100, and any error caps the score below the pass
// threshold.
func (e *Engine) score(errors, warnings int) int {
	score := 100 - errorWeight*errors - warningWeight*warnings
	if score < 0 {
		score = 0
	}
	if errors > 0 && score >= e.passThreshold {
		score = e.passThreshold - 1
	}
	return score
}

// sortIssues applies the total order (rule, table, row, message) so parallel
// and sequential execution serialize identically.
func sortIssues(issues []Issue) {
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Message < b.Message
	})
}
