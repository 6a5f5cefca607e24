package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Overlay marks runtime state on the exported graph.
type Overlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// OverlayFromSnapshot builds an Overlay from a persisted session.
func OverlayFromSnapshot(snap *domain.Snapshot) *Overlay {
	if snap == nil {
		return nil
	}
	return &Overlay{VisitedSteps: snap.History, CurrentStep: snap.CurrentStepID}
}

// GenerateMermaid produces a Mermaid flowchart from the step graph.
// Shapes follow the step kind:
//   - entry step: ((Circle))
//   - USER_INPUT: [/Parallelogram/]
//   - BOT_RESPONSE: [[Subroutine]], where the answer is generated
//   - PROMPT: [Rectangle]
func GenerateMermaid(steps []domain.Step, entry string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, st := range steps {
		safeID := sanitizeMermaidID(st.ID)

		opener, closer := "[", "]"
		switch {
		case st.ID == entry:
			opener, closer = "((", "))"
		case st.Kind == domain.StepUserInput:
			opener, closer = "[/", "/]"
		case st.Kind == domain.StepBotResponse:
			opener, closer = "[[", "]]"
		}

		label := st.ID
		if st.Kind == domain.StepPrompt && st.Message != "" {
			label = fmt.Sprintf("%s <br/> %s", st.ID, strings.ReplaceAll(st.Message, "\"", "'"))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		arrow := "-->"
		if st.Trigger.IsComputed() {
			arrow = "-. computed .->"
		}
		for _, to := range st.Next() {
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(to))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

var mermaidReplacer = strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")

func sanitizeMermaidID(id string) string {
	s := mermaidReplacer.Replace(id)
	// Mermaid rejects bare numeric node IDs in some renderers.
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "s" + s
	}
	return s
}
