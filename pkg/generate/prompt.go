package generate

import (
	"fmt"
	"strings"

	"fossflow/pkg/icons"
)

// BuildSystemPrompt assembles the instruction prompt describing the
// compact diagram format and the icons the model may use.
func BuildSystemPrompt(catalog []icons.Icon) string {
	var b strings.Builder

	b.WriteString(`You are an expert system architect. Produce an isometric architecture diagram for the user's request as a single JSON object in this compact format:

{
  "t": "diagram title",
  "i": [["item name", "icon", "optional description"], ...],
  "v": [[[[itemIndex, x, y], ...], [[fromIndex, toIndex], ...]], ...],
  "_": {"f": "compact", "v": "1.0"}
}

Rules:
- "i" lists the diagram items. Each entry is [name, icon] or [name, icon, description].
- "v" lists views. Each view is a pair: a list of positions and a list of connections.
- Positions are [itemIndex, x, y] with itemIndex referring into "i" and x/y on a grid (use multiples of 4, e.g. 0, 4, 8).
- Connections are [fromIndex, toIndex] item index pairs.
- Provide exactly one view that positions every item.
- Respond with ONLY the JSON object. No prose, no markdown fences.

Available icons:
`)

	for _, icon := range catalog {
		if icon.Description != "" {
			fmt.Fprintf(&b, "- %s: %s\n", icon.ID, icon.Description)
		} else {
			fmt.Fprintf(&b, "- %s\n", icon.ID)
		}
	}

	b.WriteString("\nUse only icons from this list. If nothing fits, use \"block\".")
	return b.String()
}

// BuildUserPrompt wraps the user's request, optionally including the
// current diagram so the model can revise instead of starting over.
func BuildUserPrompt(request, currentDiagram string) string {
	if currentDiagram == "" {
		return request
	}
	return fmt.Sprintf("Current diagram:\n%s\n\nRequested change: %s", currentDiagram, request)
}
