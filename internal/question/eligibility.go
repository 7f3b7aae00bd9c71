package question

import "requify/internal/snapshot"

// ShouldSkip evaluates the question's skip condition against the snapshot.
// Questions without a condition, and conditions over unknown paths or
// predicates, are never skipped.
func ShouldSkip(q Question, s snapshot.Snapshot) bool {
	if q.SkipWhen == nil {
		return false
	}
	return q.SkipWhen.Evaluate(s)
}

// RequirementsMet reports whether the question's declared prerequisites hold:
// every required question has been answered and every required data path is
// non-empty in the snapshot.
func (t *Tracker) RequirementsMet(q Question, s snapshot.Snapshot) bool {
	for _, id := range q.Requires {
		if !t.Answered(id) {
			return false
		}
	}
	for _, path := range q.NeedsData {
		if !s.HasAt(path) {
			return false
		}
	}
	return true
}

// Unanswered returns, in catalog order, every question that is eligible to
// ask next: not yet asked, prerequisites met, and not skipped by its
// condition.
func (t *Tracker) Unanswered(s snapshot.Snapshot) []Question {
	var out []Question
	for _, q := range Catalog() {
		if t.Asked(q.ID) {
			continue
		}
		if !t.RequirementsMet(q, s) {
			continue
		}
		if ShouldSkip(q, s) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// ForPhase returns the catalog questions belonging to one phase.
func ForPhase(p Phase) []Question {
	var out []Question
	for _, q := range Catalog() {
		if q.Phase == p {
			out = append(out, q)
		}
	}
	return out
}
