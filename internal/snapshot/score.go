package snapshot

import "strings"

// Score caps per signal. Each signal is capped independently so no single
// axis can saturate the total; the sum of all caps is exactly 100.
const (
	capActors           = 15
	capActorDepth       = 5
	capUseCases         = 20
	capBoundaries       = 15
	capDataEntities     = 10
	capProblemStatement = 10
	capGoalsMetrics     = 15
	capNFRs             = 10
)

// Score computes a 0-100 completeness score from the snapshot using a fixed
// weighted rule table. Scoring is additive and monotonic: recording a new
// fact never lowers the result.
func Score(s Snapshot) int {
	total := scoreActorCount(s) +
		scoreActorDepth(s) +
		scoreUseCases(s) +
		scoreBoundaries(s) +
		scoreDataEntities(s) +
		scoreProblemStatement(s) +
		scoreGoalsMetrics(s) +
		scoreNFRs(s)
	if total > 100 {
		return 100
	}
	return total
}

func scoreActorCount(s Snapshot) int {
	switch {
	case len(s.Actors) >= 2:
		return capActors
	case len(s.Actors) == 1:
		return 8
	}
	return 0
}

// Depth is keyed on the absolute number of fleshed-out actors, not a ratio:
// a ratio would let a newly recorded shallow actor lower the score.
func scoreActorDepth(s Snapshot) int {
	deep := 0
	for _, a := range s.Actors {
		if len(a.Goals) > 0 && len(a.PainPoints) > 0 {
			deep++
		}
	}
	switch {
	case deep >= 2:
		return capActorDepth
	case deep >= 1:
		return 3
	}
	return 0
}

func scoreUseCases(s Snapshot) int {
	switch {
	case len(s.UseCases) >= 5:
		return capUseCases
	case len(s.UseCases) >= 3:
		return 14
	case len(s.UseCases) >= 1:
		return 6
	}
	return 0
}

func scoreBoundaries(s Snapshot) int {
	internal := len(s.Boundaries.Internal) > 0
	external := len(s.Boundaries.External) > 0
	switch {
	case internal && external:
		return capBoundaries
	case internal || external:
		return 8
	}
	return 0
}

func scoreDataEntities(s Snapshot) int {
	switch {
	case len(s.DataEntities) >= 3:
		return capDataEntities
	case len(s.DataEntities) >= 2:
		return 7
	case len(s.DataEntities) >= 1:
		return 4
	}
	return 0
}

func scoreProblemStatement(s Snapshot) int {
	ps := s.ProblemStatement
	if ps == nil {
		return 0
	}
	summary := strings.TrimSpace(ps.Summary) != ""
	if summary &&
		strings.TrimSpace(ps.Context) != "" &&
		strings.TrimSpace(ps.Impact) != "" &&
		len(ps.Goals) >= 2 {
		return capProblemStatement
	}
	if summary {
		return 5
	}
	return 0
}

func scoreGoalsMetrics(s Snapshot) int {
	switch {
	case len(s.GoalsMetrics) >= 3:
		return capGoalsMetrics
	case len(s.GoalsMetrics) >= 2:
		return 10
	case len(s.GoalsMetrics) >= 1:
		return 5
	}
	return 0
}

func scoreNFRs(s Snapshot) int {
	if len(s.NFRs) == 0 {
		return 0
	}
	categories := make(map[string]bool, len(s.NFRs))
	for _, r := range s.NFRs {
		c := strings.ToLower(strings.TrimSpace(r.Category))
		if c != "" {
			categories[c] = true
		}
	}
	switch {
	case len(categories) >= 3:
		return capNFRs
	case len(categories) >= 2:
		return 6
	}
	return 3
}
