package compact

import (
	"fmt"
	"strings"
)

// Validate is the strict, fail-fast structural check applied to payloads
// received directly from an LLM, before any normalization. It returns on
// the first violation with an error naming the offending field and index.
//
// It is intentionally stricter than Normalize: the validator exists to
// turn a fundamentally wrong response into an actionable "generation
// failed, try again" message, while Normalize silently repairs the same
// defects in user-supplied payloads.
func Validate(raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("payload must be a JSON object")
	}

	title, ok := obj["t"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return fmt.Errorf(`"t" (title) must be a non-empty string`)
	}

	items, ok := obj["i"].([]any)
	if !ok || len(items) == 0 {
		return fmt.Errorf(`"i" (items) must be a non-empty array`)
	}
	for i, entry := range items {
		if err := validateItem(i, entry); err != nil {
			return err
		}
	}

	views, ok := obj["v"].([]any)
	if !ok {
		return fmt.Errorf(`"v" (views) must be an array`)
	}
	for vi, entry := range views {
		if err := validateView(vi, entry); err != nil {
			return err
		}
	}

	return nil
}

func validateItem(i int, entry any) error {
	arr, ok := entry.([]any)
	if !ok || len(arr) < 2 {
		return fmt.Errorf("items[%d]: must be an array of at least [name, icon]", i)
	}
	name, ok := arr[0].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("items[%d]: name must be a non-empty string", i)
	}
	icon, ok := arr[1].(string)
	if !ok || strings.TrimSpace(icon) == "" {
		return fmt.Errorf("items[%d]: icon must be a non-empty string", i)
	}
	if len(arr) > 2 {
		if _, ok := arr[2].(string); !ok {
			return fmt.Errorf("items[%d]: description must be a string", i)
		}
	}
	return nil
}

func validateView(vi int, entry any) error {
	pair, ok := entry.([]any)
	if !ok || len(pair) != 2 {
		return fmt.Errorf("views[%d]: must be a [positions, connections] pair", vi)
	}

	positions, ok := pair[0].([]any)
	if !ok {
		return fmt.Errorf("views[%d]: positions must be an array", vi)
	}
	for pi, p := range positions {
		arr, ok := p.([]any)
		if !ok || len(arr) < 3 {
			return fmt.Errorf("views[%d]: positions[%d]: must be an array of at least 3 numbers", vi, pi)
		}
		for _, el := range arr {
			if _, ok := el.(float64); !ok {
				return fmt.Errorf("views[%d]: positions[%d]: entries must be numbers", vi, pi)
			}
		}
	}

	connections, ok := pair[1].([]any)
	if !ok {
		return fmt.Errorf("views[%d]: connections must be an array", vi)
	}
	for ci, c := range connections {
		arr, ok := c.([]any)
		if !ok || len(arr) < 2 {
			return fmt.Errorf("views[%d]: connections[%d]: must be an array of at least 2 numbers", vi, ci)
		}
		for _, el := range arr {
			if _, ok := el.(float64); !ok {
				return fmt.Errorf("views[%d]: connections[%d]: entries must be numbers", vi, ci)
			}
		}
	}

	return nil
}
