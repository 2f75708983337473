package analysis

import (
	"fmt"

	"trialstat/domain/core"
	"trialstat/domain/trial"
)

// GroupSummary holds, for each group value, the count of each outcome value
// and the row total. Groups and outcomes keep first-appearance order; nulls
// are counted under trial.NullLabel.
type GroupSummary struct {
	GroupColumn   string   `json:"group_column"`
	OutcomeColumn string   `json:"outcome_column"`
	Groups        []string `json:"groups"`
	Outcomes      []string `json:"outcomes"`
	GrandTotal    int      `json:"grand_total"`

	counts map[string]map[string]int
	totals map[string]int
}

// GroupRow is one group's counts aligned with GroupSummary.Outcomes
type GroupRow struct {
	Group  string `json:"group"`
	Counts []int  `json:"counts"`
	Total  int    `json:"total"`
}

// Aggregate counts outcomeCol values within each groupCol value
func Aggregate(table *trial.Table, groupCol, outcomeCol string) (*GroupSummary, error) {
	groups, err := table.Categorical(groupCol)
	if err != nil {
		return nil, err
	}
	outcomes, err := table.Categorical(outcomeCol)
	if err != nil {
		return nil, err
	}

	s := &GroupSummary{
		GroupColumn:   groupCol,
		OutcomeColumn: outcomeCol,
		counts:        make(map[string]map[string]int),
		totals:        make(map[string]int),
	}
	seenOutcome := make(map[string]bool)

	for i, g := range groups {
		o := outcomes[i]
		row, ok := s.counts[g]
		if !ok {
			row = make(map[string]int)
			s.counts[g] = row
			s.Groups = append(s.Groups, g)
		}
		if !seenOutcome[o] {
			seenOutcome[o] = true
			s.Outcomes = append(s.Outcomes, o)
		}
		row[o]++
		s.totals[g]++
		s.GrandTotal++
	}
	return s, nil
}

// Count returns the number of rows with the given group and outcome
func (s *GroupSummary) Count(group, outcome string) int {
	return s.counts[group][outcome]
}

// Total returns the number of rows in a group
func (s *GroupSummary) Total(group string) int {
	return s.totals[group]
}

// HasGroup reports whether any row carried the group value
func (s *GroupSummary) HasGroup(group string) bool {
	_, ok := s.totals[group]
	return ok
}

// Proportion returns Count/Total for one cell
func (s *GroupSummary) Proportion(group, outcome string) (float64, error) {
	total := s.totals[group]
	if total == 0 {
		return 0, fmt.Errorf("%w %q in column %s", core.ErrUnknownGroup, group, s.GroupColumn)
	}
	return float64(s.counts[group][outcome]) / float64(total), nil
}

// Successes returns the outcome count for each named group, in argument order.
// Groups absent from the table count as zero; the proportion test rejects
// their zero totals.
func (s *GroupSummary) Successes(outcome string, groups ...string) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = s.counts[g][outcome]
	}
	return out
}

// Totals returns the row total for each named group, in argument order
func (s *GroupSummary) Totals(groups ...string) []int {
	out := make([]int, len(groups))
	for i, g := range groups {
		out[i] = s.totals[g]
	}
	return out
}

// Rows returns per-group counts aligned with Outcomes
func (s *GroupSummary) Rows() []GroupRow {
	rows := make([]GroupRow, len(s.Groups))
	for i, g := range s.Groups {
		counts := make([]int, len(s.Outcomes))
		for j, o := range s.Outcomes {
			counts[j] = s.counts[g][o]
		}
		rows[i] = GroupRow{Group: g, Counts: counts, Total: s.totals[g]}
	}
	return rows
}
