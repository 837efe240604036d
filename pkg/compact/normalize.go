package compact

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fossflow/pkg/icons"
)

// Auto-layout grid parameters: at least 4 columns, 4 grid units per cell.
const (
	layoutMinColumns = 4
	layoutSpacing    = 4
)

// Normalize converts an untrusted decoded JSON payload into a well-formed
// Diagram. It is total: every defect class has a silent-repair rule
// (unknown icons fall back to the default, out-of-range indices are
// dropped, missing placements are auto-laid-out). Use Validate first when
// the payload comes straight from an LLM and a hard failure is wanted.
func Normalize(raw any, known map[string]struct{}) Diagram {
	obj, _ := raw.(map[string]any)

	title := strings.TrimSpace(coerceString(obj["t"]))
	if title == "" {
		title = DefaultTitle
	}

	items := normalizeItems(obj["i"], known)

	var views []View
	if rawViews, ok := obj["v"].([]any); ok && len(rawViews) > 0 {
		views = make([]View, 0, len(rawViews))
		for i, rv := range rawViews {
			// Only the primary view is forced to full coverage; later
			// views are optional partial layouts.
			views = append(views, normalizeView(rv, len(items), i == 0))
		}
	} else {
		views = []View{normalizeView(nil, len(items), true)}
	}

	return Diagram{
		Title: title,
		Items: items,
		Views: views,
		Meta:  Meta{Format: MetaFormat, Version: MetaVersion},
	}
}

// normalizeItems coerces each raw entry into a (name, icon, description)
// triple. Count and order are preserved exactly: output index i always
// corresponds to input index i, so position and connection references
// stay valid.
func normalizeItems(raw any, known map[string]struct{}) []Item {
	list, _ := raw.([]any)
	out := make([]Item, len(list))
	for i, entry := range list {
		arr, _ := entry.([]any) // malformed entries act as empty tuples

		var name, icon, desc string
		if len(arr) > 0 {
			name = strings.TrimSpace(coerceString(arr[0]))
		}
		if len(arr) > 1 {
			icon = coerceString(arr[1])
		}
		if len(arr) > 2 {
			desc = coerceString(arr[2])
		}
		if name == "" {
			name = fmt.Sprintf("Item %d", i+1)
		}

		out[i] = Item{
			Name:        name,
			Icon:        icons.Resolve(icon, known),
			Description: desc,
		}
	}
	return out
}

// normalizeView repairs a single raw view against the item count.
// Positions that do not coerce, reference out-of-range items, or re-place
// an already-placed item are dropped silently (first occurrence wins).
// With ensureFullCoverage, items left without an explicit position get a
// grid slot so the primary view always shows every item.
func normalizeView(raw any, itemCount int, ensureFullCoverage bool) View {
	view := View{
		Positions:   []Position{},
		Connections: []Connection{},
	}

	pair, _ := raw.([]any)
	var rawPositions, rawConnections []any
	if len(pair) > 0 {
		rawPositions, _ = pair[0].([]any)
	}
	if len(pair) > 1 {
		rawConnections, _ = pair[1].([]any)
	}

	placed := make(map[int]bool, itemCount)
	for _, entry := range rawPositions {
		arr, _ := entry.([]any)
		if len(arr) < 3 {
			continue
		}
		idxF, okIdx := coerceNumber(arr[0])
		xF, okX := coerceNumber(arr[1])
		yF, okY := coerceNumber(arr[2])
		if !okIdx || !okX || !okY {
			continue
		}
		idx := int(math.Round(idxF))
		if idx < 0 || idx >= itemCount || placed[idx] {
			continue
		}
		placed[idx] = true
		view.Positions = append(view.Positions, Position{
			ItemIndex: idx,
			X:         int(math.Round(xF)),
			Y:         int(math.Round(yF)),
		})
	}

	if ensureFullCoverage {
		cols := int(math.Ceil(math.Sqrt(float64(itemCount))))
		if cols < layoutMinColumns {
			cols = layoutMinColumns
		}
		// The placement counter runs across all auto-placed items so the
		// grid fills row-major without restarting per row.
		counter := 0
		for i := 0; i < itemCount; i++ {
			if placed[i] {
				continue
			}
			view.Positions = append(view.Positions, Position{
				ItemIndex: i,
				X:         (counter % cols) * layoutSpacing,
				Y:         (counter / cols) * layoutSpacing,
			})
			counter++
		}
	}

	for _, entry := range rawConnections {
		arr, _ := entry.([]any)
		if len(arr) < 2 {
			continue
		}
		fromF, okFrom := coerceNumber(arr[0])
		toF, okTo := coerceNumber(arr[1])
		if !okFrom || !okTo {
			continue
		}
		from := int(math.Round(fromF))
		to := int(math.Round(toF))
		if from < 0 || from >= itemCount || to < 0 || to >= itemCount {
			continue
		}
		view.Connections = append(view.Connections, Connection{From: from, To: to})
	}

	return view
}

// coerceString renders a decoded JSON scalar as a string. Non-scalar and
// nil values become the empty string.
func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// coerceNumber accepts JSON numbers and numeric strings, rejecting
// anything non-finite.
func coerceNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
