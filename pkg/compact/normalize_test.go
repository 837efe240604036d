package compact

import (
	"encoding/json"
	"reflect"
	"testing"

	"fossflow/pkg/icons"
)

func decode(t *testing.T, payload string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		t.Fatalf("test payload is not valid JSON: %v", err)
	}
	return v
}

func TestNormalizeEndToEnd(t *testing.T) {
	raw := decode(t, `{"t":"Demo","i":[["A","block"],["B","unknown_icon_xyz"]],"v":[[[[0,0,0]],[[0,1]]]]}`)
	d := Normalize(raw, icons.BuiltinSet())

	if d.Title != "Demo" {
		t.Errorf("title = %q, want Demo", d.Title)
	}
	if len(d.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(d.Items))
	}
	if d.Items[0].Icon != "block" {
		t.Errorf("item 0 icon = %q, want block", d.Items[0].Icon)
	}
	if d.Items[1].Icon != icons.DefaultIcon {
		t.Errorf("item 1 icon = %q, want default %q", d.Items[1].Icon, icons.DefaultIcon)
	}

	view := d.Views[0]
	if len(view.Positions) != 2 {
		t.Fatalf("expected 2 positions (1 explicit + 1 auto), got %d", len(view.Positions))
	}
	if view.Positions[0] != (Position{ItemIndex: 0, X: 0, Y: 0}) {
		t.Errorf("explicit position changed: %+v", view.Positions[0])
	}
	if view.Positions[1].ItemIndex != 1 {
		t.Errorf("expected auto-layout position for item 1, got %+v", view.Positions[1])
	}
	if !reflect.DeepEqual(view.Connections, []Connection{{From: 0, To: 1}}) {
		t.Errorf("connections = %+v, want [{0 1}]", view.Connections)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	d := Normalize(decode(t, `{}`), icons.BuiltinSet())

	if d.Title != DefaultTitle {
		t.Errorf("title = %q, want %q", d.Title, DefaultTitle)
	}
	if len(d.Items) != 0 {
		t.Errorf("expected no items, got %d", len(d.Items))
	}
	if len(d.Views) != 1 {
		t.Fatalf("expected 1 synthesized view, got %d", len(d.Views))
	}
	if d.Meta != (Meta{Format: MetaFormat, Version: MetaVersion}) {
		t.Errorf("meta = %+v", d.Meta)
	}
}

func TestNormalizeNonObjectPayload(t *testing.T) {
	for _, payload := range []string{`[]`, `"text"`, `42`, `null`} {
		d := Normalize(decode(t, payload), icons.BuiltinSet())
		if d.Title != DefaultTitle || len(d.Views) != 1 {
			t.Errorf("payload %s: got %+v, want empty default diagram", payload, d)
		}
	}
}

func TestNormalizeItemsPreservesCountAndOrder(t *testing.T) {
	raw := decode(t, `{"t":"x","i":[["A","server"],"garbage",[],[ "","cache","note"],[42,"queue"]]}`)
	d := Normalize(raw, icons.BuiltinSet())

	if len(d.Items) != 5 {
		t.Fatalf("expected 5 items (count preserved), got %d", len(d.Items))
	}
	if d.Items[0].Name != "A" || d.Items[0].Icon != "server" {
		t.Errorf("item 0 = %+v", d.Items[0])
	}
	// Malformed entries become empty tuples with synthesized names.
	if d.Items[1].Name != "Item 2" || d.Items[2].Name != "Item 3" {
		t.Errorf("synthesized names wrong: %q, %q", d.Items[1].Name, d.Items[2].Name)
	}
	if d.Items[3].Name != "Item 4" || d.Items[3].Icon != "cache" || d.Items[3].Description != "note" {
		t.Errorf("item 3 = %+v", d.Items[3])
	}
	// Numeric names coerce to their string form.
	if d.Items[4].Name != "42" || d.Items[4].Icon != "queue" {
		t.Errorf("item 4 = %+v", d.Items[4])
	}
}

func TestNormalizeDuplicatePlacementFirstWins(t *testing.T) {
	raw := decode(t, `{"t":"x","i":[["A","block"]],"v":[[[[0,1,1],[0,9,9]],[]]]}`)
	d := Normalize(raw, icons.BuiltinSet())

	view := d.Views[0]
	if len(view.Positions) != 1 {
		t.Fatalf("expected 1 position after dedupe, got %d", len(view.Positions))
	}
	if view.Positions[0] != (Position{ItemIndex: 0, X: 1, Y: 1}) {
		t.Errorf("expected first placement kept, got %+v", view.Positions[0])
	}
}

func TestNormalizeDropsInvalidPositionsAndConnections(t *testing.T) {
	raw := decode(t, `{"t":"x","i":[["A","block"],["B","block"],["C","block"]],
		"v":[[ [[0,0,0],[7,1,1],[-1,2,2],["x",3,3],[1,4]],
		       [[0,7],[0,1],[2],[null,0],["a","b"]] ]]}`)
	d := Normalize(raw, icons.BuiltinSet())

	view := d.Views[0]
	// Explicit position for item 0 plus auto-layout for items 1 and 2.
	if len(view.Positions) != 3 {
		t.Fatalf("expected 3 positions, got %d: %+v", len(view.Positions), view.Positions)
	}
	// The out-of-range connection [0,7] and the malformed entries are
	// dropped; [0,1] survives.
	if !reflect.DeepEqual(view.Connections, []Connection{{From: 0, To: 1}}) {
		t.Errorf("connections = %+v, want [{0 1}]", view.Connections)
	}
}

func TestNormalizeSelfLoopsAndDuplicateConnectionsPass(t *testing.T) {
	raw := decode(t, `{"t":"x","i":[["A","block"],["B","block"]],"v":[[[],[[0,0],[0,1],[0,1]]]]}`)
	d := Normalize(raw, icons.BuiltinSet())

	want := []Connection{{From: 0, To: 0}, {From: 0, To: 1}, {From: 0, To: 1}}
	if !reflect.DeepEqual(d.Views[0].Connections, want) {
		t.Errorf("connections = %+v, want %+v", d.Views[0].Connections, want)
	}
}

func TestNormalizeRoundsCoordinates(t *testing.T) {
	raw := decode(t, `{"t":"x","i":[["A","block"]],"v":[[[[0,1.4,2.6]],[]]]}`)
	d := Normalize(raw, icons.BuiltinSet())

	if d.Views[0].Positions[0] != (Position{ItemIndex: 0, X: 1, Y: 3}) {
		t.Errorf("position = %+v, want {0 1 3}", d.Views[0].Positions[0])
	}
}

func TestNormalizeFullCoverageFirstViewOnly(t *testing.T) {
	raw := decode(t, `{"t":"x","i":[["A","block"],["B","block"],["C","block"]],
		"v":[[ [[1,5,5]], [] ], [ [[0,2,2]], [] ]]}`)
	d := Normalize(raw, icons.BuiltinSet())

	first := d.Views[0]
	if len(first.Positions) != 3 {
		t.Fatalf("first view: expected full coverage of 3 items, got %d", len(first.Positions))
	}
	seen := map[int]bool{}
	for _, p := range first.Positions {
		if p.ItemIndex < 0 || p.ItemIndex >= 3 {
			t.Errorf("first view: index %d out of range", p.ItemIndex)
		}
		if seen[p.ItemIndex] {
			t.Errorf("first view: index %d placed twice", p.ItemIndex)
		}
		seen[p.ItemIndex] = true
	}

	// Secondary views are not forced to completeness.
	second := d.Views[1]
	if len(second.Positions) != 1 {
		t.Errorf("second view: expected 1 explicit position, got %d", len(second.Positions))
	}
}

func TestNormalizeAutoLayoutGrid(t *testing.T) {
	// Five unplaced items, cols = max(4, ceil(sqrt(5))) = 4, spacing 4:
	// the fifth item wraps to the second row.
	raw := decode(t, `{"t":"x","i":[["A","block"],["B","block"],["C","block"],["D","block"],["E","block"]]}`)
	d := Normalize(raw, icons.BuiltinSet())

	want := []Position{
		{ItemIndex: 0, X: 0, Y: 0},
		{ItemIndex: 1, X: 4, Y: 0},
		{ItemIndex: 2, X: 8, Y: 0},
		{ItemIndex: 3, X: 12, Y: 0},
		{ItemIndex: 4, X: 0, Y: 4},
	}
	if !reflect.DeepEqual(d.Views[0].Positions, want) {
		t.Errorf("positions = %+v, want %+v", d.Views[0].Positions, want)
	}
}

func TestNormalizeAutoLayoutCounterContinuesAcrossGaps(t *testing.T) {
	// Items 0 and 2 are placed explicitly; the auto counter for the
	// remaining items runs 0,1,2,... regardless of which indices remain.
	raw := decode(t, `{"t":"x","i":[["A","block"],["B","block"],["C","block"],["D","block"]],
		"v":[[ [[0,9,9],[2,8,8]], [] ]]}`)
	d := Normalize(raw, icons.BuiltinSet())

	positions := d.Views[0].Positions
	if len(positions) != 4 {
		t.Fatalf("expected 4 positions, got %d", len(positions))
	}
	// Auto-placed items 1 and 3 occupy consecutive grid cells.
	if positions[2] != (Position{ItemIndex: 1, X: 0, Y: 0}) {
		t.Errorf("auto position for item 1 = %+v", positions[2])
	}
	if positions[3] != (Position{ItemIndex: 3, X: 4, Y: 0}) {
		t.Errorf("auto position for item 3 = %+v", positions[3])
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := decode(t, `{"t":"Demo","i":[["A","block"],["B","person",""],["","db"]],
		"v":[[ [[0,1,1]], [[0,1],[1,2]] ], [ [], [] ]]}`)
	known := icons.BuiltinSet()

	first := Normalize(raw, known)

	data, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	second := Normalize(decode(t, string(data)), known)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization drifted:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestWireFormat(t *testing.T) {
	raw := decode(t, `{"t":"Demo","i":[["A","block","a node"],["B","cache"]],"v":[[[[0,0,0]],[[0,1]]]]}`)
	d := Normalize(raw, icons.BuiltinSet())

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"t", "i", "v", "_"} {
		if _, ok := wire[key]; !ok {
			t.Errorf("wire format missing %q key", key)
		}
	}
	meta, _ := wire["_"].(map[string]any)
	if meta["f"] != "compact" || meta["v"] != "1.0" {
		t.Errorf("meta = %+v", meta)
	}
}
