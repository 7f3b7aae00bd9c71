package artifacts

import (
	"fmt"
	"strings"

	"requify/internal/agents"
)

// Artifact types produced only by the batch expansion pipeline. They are not
// gated by readiness because the pipeline generates their inputs itself.
const (
	formatMermaid  = "mermaid"
	formatMarkdown = "markdown"
)

// RenderERDiagram draws the proposed schema as a mermaid erDiagram.
func RenderERDiagram(projectName string, schema agents.SchemaOut) Artifact {
	var b strings.Builder
	b.WriteString("erDiagram\n")
	for _, t := range schema.Tables {
		fmt.Fprintf(&b, "    %s {\n", nodeID(t.Name))
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "        %s %s\n", colType(c.Type), nodeID(c.Name))
		}
		b.WriteString("    }\n")
	}
	for _, t := range schema.Tables {
		for _, c := range t.Columns {
			if c.References != "" {
				fmt.Fprintf(&b, "    %s }o--|| %s : %s\n", nodeID(t.Name), nodeID(c.References), nodeID(c.Name))
			}
		}
	}
	return Artifact{
		Type:    "er_diagram",
		Title:   label(projectName, "Project") + " - ER Diagram",
		Format:  formatMermaid,
		Content: b.String(),
	}
}

// RenderStories lays the generated user stories out as markdown.
func RenderStories(projectName string, out agents.StoriesOut) Artifact {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - User Stories\n", label(projectName, "Project"))
	for _, s := range out.Stories {
		fmt.Fprintf(&b, "\n## %s\n\n", s.ID)
		fmt.Fprintf(&b, "As a %s, I want %s, so that %s.\n", s.Actor, s.Want, s.Benefit)
		if s.Priority != "" {
			fmt.Fprintf(&b, "\nPriority: %s\n", s.Priority)
		}
		if len(s.AcceptanceCriteria) > 0 {
			b.WriteString("\nAcceptance criteria:\n")
			for _, c := range s.AcceptanceCriteria {
				fmt.Fprintf(&b, "- %s\n", c)
			}
		}
	}
	return Artifact{
		Type:    "user_stories",
		Title:   label(projectName, "Project") + " - User Stories",
		Format:  formatMarkdown,
		Content: b.String(),
	}
}

// RenderAPISpec lists the proposed endpoints as a markdown table.
func RenderAPISpec(projectName string, out agents.APISpecOut) Artifact {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - API Endpoints\n\n", label(projectName, "Project"))
	b.WriteString("| Method | Path | Summary |\n")
	b.WriteString("|---|---|---|\n")
	for _, e := range out.Endpoints {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", e.Method, e.Path, e.Summary)
	}
	return Artifact{
		Type:    "api_spec",
		Title:   label(projectName, "Project") + " - API Spec",
		Format:  formatMarkdown,
		Content: b.String(),
	}
}

// RenderTechStack summarises the stack recommendation as markdown.
func RenderTechStack(projectName string, out agents.TechStackOut) Artifact {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Tech Stack\n", label(projectName, "Project"))
	section := func(title string, recs []agents.Recommendation) {
		if len(recs) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		for _, r := range recs {
			fmt.Fprintf(&b, "- **%s**: %s\n", r.Name, r.Reason)
		}
	}
	section("Frontend", out.Frontend)
	section("Backend", out.Backend)
	section("Database", out.Database)
	section("Infrastructure", out.Infrastructure)
	return Artifact{
		Type:    "tech_stack",
		Title:   label(projectName, "Project") + " - Tech Stack",
		Format:  formatMarkdown,
		Content: b.String(),
	}
}

func colType(t string) string {
	t = strings.TrimSpace(strings.ToLower(t))
	if t == "" {
		return "string"
	}
	return nodeID(t)
}
