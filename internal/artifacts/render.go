// Package artifacts renders derivative documents and diagrams from the
// extraction snapshot. Rendering is deterministic: the same snapshot always
// produces identical output, so artifacts can be regenerated at will.
package artifacts

import (
	"fmt"
	"strings"

	"requify/internal/readiness"
	"requify/internal/snapshot"
)

// Artifact is one rendered document.
type Artifact struct {
	Type    readiness.ArtifactType `json:"type"`
	Title   string                 `json:"title"`
	Format  string                 `json:"format"` // mermaid | markdown
	Content string                 `json:"content"`
}

// Render produces the artifact of the given type from the snapshot. The
// caller is expected to have checked the readiness gate; rendering with
// insufficient data still succeeds but yields a sparse document.
func Render(t readiness.ArtifactType, projectName string, s snapshot.Snapshot) Artifact {
	switch t {
	case readiness.ContextDiagram:
		return contextDiagram(projectName, s)
	case readiness.UseCaseDiagram:
		return useCaseDiagram(projectName, s)
	case readiness.ScopeTree:
		return scopeTree(projectName, s)
	case readiness.BehaviorDocument:
		return behaviorDocument(projectName, s)
	case readiness.RequirementsTable:
		return requirementsTable(projectName, s)
	case readiness.ConstantsTable:
		return constantsTable(projectName, s)
	case readiness.ActivityDiagram:
		return activityDiagram(projectName, s)
	}
	return Artifact{Type: t, Format: "markdown"}
}

// RenderReady renders every artifact whose readiness gate passes.
func RenderReady(projectName string, s snapshot.Snapshot) []Artifact {
	var out []Artifact
	for _, t := range readiness.Types() {
		if readiness.EvaluateOne(t, s).Ready {
			out = append(out, Render(t, projectName, s))
		}
	}
	return out
}

func contextDiagram(name string, s snapshot.Snapshot) Artifact {
	var b strings.Builder
	b.WriteString("flowchart LR\n")
	sys := nodeID("system")
	fmt.Fprintf(&b, "    %s[%s]\n", sys, label(name, "System"))
	for _, a := range s.Actors {
		id := nodeID("actor_" + a.Name)
		if a.Classification == "external" || a.Classification == "system" {
			fmt.Fprintf(&b, "    %s[[%s]] --> %s\n", id, a.Name, sys)
		} else {
			fmt.Fprintf(&b, "    %s((%s)) --> %s\n", id, a.Name, sys)
		}
	}
	for _, ext := range s.Boundaries.External {
		id := nodeID("ext_" + ext)
		fmt.Fprintf(&b, "    %s --> %s[[%s]]\n", sys, id, ext)
	}
	return Artifact{
		Type:    readiness.ContextDiagram,
		Title:   label(name, "Project") + " - Context Diagram",
		Format:  "mermaid",
		Content: b.String(),
	}
}

func useCaseDiagram(name string, s snapshot.Snapshot) Artifact {
	var b strings.Builder
	b.WriteString("flowchart LR\n")
	for _, a := range s.Actors {
		fmt.Fprintf(&b, "    %s((%s))\n", nodeID("actor_"+a.Name), a.Name)
	}
	for _, u := range s.UseCases {
		ucNode := nodeID("uc_" + u.ID)
		title := u.Outcome
		if title == "" {
			title = u.ID
		}
		fmt.Fprintf(&b, "    %s([%s])\n", ucNode, title)
		if u.Actor != "" {
			fmt.Fprintf(&b, "    %s --> %s\n", nodeID("actor_"+u.Actor), ucNode)
		}
	}
	return Artifact{
		Type:    readiness.UseCaseDiagram,
		Title:   label(name, "Project") + " - Use Case Diagram",
		Format:  "mermaid",
		Content: b.String(),
	}
}

func activityDiagram(name string, s snapshot.Snapshot) Artifact {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	b.WriteString("    start((start))\n")
	prev := "start"
	for _, u := range s.UseCases {
		id := nodeID("act_" + u.ID)
		step := u.Trigger
		if step == "" {
			step = u.ID
		}
		fmt.Fprintf(&b, "    %s[%s]\n", id, step)
		fmt.Fprintf(&b, "    %s --> %s\n", prev, id)
		prev = id
	}
	fmt.Fprintf(&b, "    %s --> finish((end))\n", prev)
	return Artifact{
		Type:    readiness.ActivityDiagram,
		Title:   label(name, "Project") + " - Activity Diagram",
		Format:  "mermaid",
		Content: b.String(),
	}
}

func scopeTree(name string, s snapshot.Snapshot) Artifact {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Scope\n\n## In scope\n\n", label(name, "Project"))
	for _, item := range s.Boundaries.InScope {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	b.WriteString("\n## Out of scope\n\n")
	for _, item := range s.Boundaries.OutOfScope {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return Artifact{
		Type:    readiness.ScopeTree,
		Title:   label(name, "Project") + " - Scope Tree",
		Format:  "markdown",
		Content: b.String(),
	}
}

func behaviorDocument(name string, s snapshot.Snapshot) Artifact {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Behavior\n", label(name, "Project"))
	for _, u := range s.UseCases {
		if len(u.Preconditions) == 0 && len(u.Postconditions) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", u.ID)
		if u.Trigger != "" {
			fmt.Fprintf(&b, "Trigger: %s\n\n", u.Trigger)
		}
		if len(u.Preconditions) > 0 {
			b.WriteString("Preconditions:\n")
			for _, c := range u.Preconditions {
				fmt.Fprintf(&b, "- %s\n", c)
			}
			b.WriteString("\n")
		}
		if len(u.Postconditions) > 0 {
			b.WriteString("Postconditions:\n")
			for _, c := range u.Postconditions {
				fmt.Fprintf(&b, "- %s\n", c)
			}
		}
	}
	return Artifact{
		Type:    readiness.BehaviorDocument,
		Title:   label(name, "Project") + " - Behavior Document",
		Format:  "markdown",
		Content: b.String(),
	}
}

func requirementsTable(name string, s snapshot.Snapshot) Artifact {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Requirements\n\n", label(name, "Project"))
	b.WriteString("| ID | Actor | Trigger | Outcome | Priority |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, u := range s.UseCases {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", u.ID, u.Actor, u.Trigger, u.Outcome, u.Priority)
	}
	return Artifact{
		Type:    readiness.RequirementsTable,
		Title:   label(name, "Project") + " - Requirements Table",
		Format:  "markdown",
		Content: b.String(),
	}
}

func constantsTable(name string, s snapshot.Snapshot) Artifact {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Constraints\n\n", label(name, "Project"))
	b.WriteString("| Kind | Constraint |\n")
	b.WriteString("|---|---|\n")
	for _, c := range s.Constraints {
		kind := c.Kind
		if kind == "" {
			kind = "unspecified"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", kind, c.Description)
	}
	return Artifact{
		Type:    readiness.ConstantsTable,
		Title:   label(name, "Project") + " - Constants Table",
		Format:  "markdown",
		Content: b.String(),
	}
}

func label(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return strings.TrimSpace(name)
}

// nodeID turns free text into a mermaid-safe node identifier.
func nodeID(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
