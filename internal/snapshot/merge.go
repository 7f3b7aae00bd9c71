package snapshot

import "strings"

// Merge folds incoming into existing without losing anything already known.
//
// Keyed collections take the union of keys; when a key appears on both sides
// the incoming entry wins (last-writer-wins per key, never per collection).
// Boundary and scope string sets take a value union. The optional scalar
// aggregates (problem statement, goals/metrics, NFRs) are replaced wholesale
// when incoming carries a non-empty value and kept otherwise.
//
// An empty incoming collection is a no-op for that collection; it never
// clears what is already recorded. Merge is pure and deterministic: output
// order is existing order first, then new keys in incoming order.
func Merge(existing, incoming Snapshot) Snapshot {
	out := Snapshot{
		Actors:       mergeActors(existing.Actors, incoming.Actors),
		UseCases:     mergeUseCases(existing.UseCases, incoming.UseCases),
		DataEntities: mergeEntities(existing.DataEntities, incoming.DataEntities),
		Constraints:  mergeConstraints(existing.Constraints, incoming.Constraints),
		Boundaries: Boundaries{
			Internal:   unionStrings(existing.Boundaries.Internal, incoming.Boundaries.Internal),
			External:   unionStrings(existing.Boundaries.External, incoming.Boundaries.External),
			InScope:    unionStrings(existing.Boundaries.InScope, incoming.Boundaries.InScope),
			OutOfScope: unionStrings(existing.Boundaries.OutOfScope, incoming.Boundaries.OutOfScope),
		},
	}

	out.ProblemStatement = existing.ProblemStatement
	if incoming.ProblemStatement != nil {
		ps := *incoming.ProblemStatement
		out.ProblemStatement = &ps
	}
	out.GoalsMetrics = existing.GoalsMetrics
	if len(incoming.GoalsMetrics) > 0 {
		out.GoalsMetrics = append([]GoalMetric(nil), incoming.GoalsMetrics...)
	}
	out.NFRs = existing.NFRs
	if len(incoming.NFRs) > 0 {
		out.NFRs = append([]NonFunctionalRequirement(nil), incoming.NFRs...)
	}
	return out
}

func actorKey(a Actor) string           { return normalizeKey(a.Name) }
func useCaseKey(u UseCase) string       { return normalizeKey(u.ID) }
func entityKey(e DataEntity) string     { return normalizeKey(e.Name) }
func constraintKey(c Constraint) string { return normalizeKey(c.Description) }

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func mergeActors(existing, incoming []Actor) []Actor {
	if len(incoming) == 0 {
		return cloneSlice(existing)
	}
	out := cloneSlice(existing)
	idx := make(map[string]int, len(out))
	for i, a := range out {
		idx[actorKey(a)] = i
	}
	for _, a := range incoming {
		key := actorKey(a)
		if key == "" {
			continue
		}
		if i, ok := idx[key]; ok {
			out[i] = a
			continue
		}
		idx[key] = len(out)
		out = append(out, a)
	}
	return out
}

func mergeUseCases(existing, incoming []UseCase) []UseCase {
	if len(incoming) == 0 {
		return cloneSlice(existing)
	}
	out := cloneSlice(existing)
	idx := make(map[string]int, len(out))
	for i, u := range out {
		idx[useCaseKey(u)] = i
	}
	for _, u := range incoming {
		key := useCaseKey(u)
		if key == "" {
			continue
		}
		if i, ok := idx[key]; ok {
			out[i] = u
			continue
		}
		idx[key] = len(out)
		out = append(out, u)
	}
	return out
}

func mergeEntities(existing, incoming []DataEntity) []DataEntity {
	if len(incoming) == 0 {
		return cloneSlice(existing)
	}
	out := cloneSlice(existing)
	idx := make(map[string]int, len(out))
	for i, e := range out {
		idx[entityKey(e)] = i
	}
	for _, e := range incoming {
		key := entityKey(e)
		if key == "" {
			continue
		}
		if i, ok := idx[key]; ok {
			out[i] = e
			continue
		}
		idx[key] = len(out)
		out = append(out, e)
	}
	return out
}

func mergeConstraints(existing, incoming []Constraint) []Constraint {
	if len(incoming) == 0 {
		return cloneSlice(existing)
	}
	out := cloneSlice(existing)
	idx := make(map[string]int, len(out))
	for i, c := range out {
		idx[constraintKey(c)] = i
	}
	for _, c := range incoming {
		key := constraintKey(c)
		if key == "" {
			continue
		}
		if i, ok := idx[key]; ok {
			out[i] = c
			continue
		}
		idx[key] = len(out)
		out = append(out, c)
	}
	return out
}

func unionStrings(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return cloneSlice(existing)
	}
	out := cloneSlice(existing)
	seen := make(map[string]bool, len(out))
	for _, v := range out {
		seen[normalizeKey(v)] = true
	}
	for _, v := range incoming {
		key := normalizeKey(v)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append([]T(nil), in...)
}
