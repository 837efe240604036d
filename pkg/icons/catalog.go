// Package icons owns the canonical isometric icon catalog and the
// resolution of free-form icon labels onto catalog identifiers.
package icons

// Icon describes one canonical catalog entry. The ID is what appears in
// compact diagram payloads; Name and Description feed the LLM prompt and
// the icon picker in the UI.
type Icon struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// DefaultIcon is the guaranteed-safe fallback for unresolvable labels.
const DefaultIcon = "block"

// catalog is the fixed built-in icon set. Order matters only for display.
//
//nolint:gochecknoglobals // Static reference data
var catalog = []Icon{
	{ID: "block", Name: "Block", Description: "Generic component or service"},
	{ID: "cache", Name: "Cache", Description: "In-memory cache such as Redis or Memcached"},
	{ID: "cloud", Name: "Cloud", Description: "Cloud platform, external network or the internet"},
	{ID: "cube", Name: "Cube", Description: "Container, pod or packaged workload"},
	{ID: "desktop", Name: "Desktop", Description: "Desktop computer or workstation"},
	{ID: "diamond", Name: "Diamond", Description: "Decision point or gateway marker"},
	{ID: "document", Name: "Document", Description: "File, document or report"},
	{ID: "firewall", Name: "Firewall", Description: "Network firewall or security boundary"},
	{ID: "function", Name: "Function", Description: "Serverless function or small compute unit"},
	{ID: "laptop", Name: "Laptop", Description: "Laptop or portable client machine"},
	{ID: "lock", Name: "Lock", Description: "Authentication, secrets or access control"},
	{ID: "mail", Name: "Mail", Description: "Email or messaging service"},
	{ID: "mobile", Name: "Mobile", Description: "Mobile device or phone client"},
	{ID: "office", Name: "Office", Description: "Office building, organization or data center"},
	{ID: "paymentcard", Name: "Payment Card", Description: "Payments or billing component"},
	{ID: "printer", Name: "Printer", Description: "Printer or physical output device"},
	{ID: "pyramid", Name: "Pyramid", Description: "Hierarchy or aggregation marker"},
	{ID: "queue", Name: "Queue", Description: "Message queue or event stream"},
	{ID: "router", Name: "Router", Description: "Router, gateway or API gateway"},
	{ID: "server", Name: "Server", Description: "Server, host or virtual machine"},
	{ID: "speech", Name: "Speech", Description: "Chat, notification or messaging bubble"},
	{ID: "storage", Name: "Storage", Description: "Database, disk or object storage"},
	{ID: "switch", Name: "Switch", Description: "Network switch or load balancer"},
	{ID: "user", Name: "User", Description: "Person, end user or client actor"},
}

// Catalog returns the built-in icon list. Callers must not mutate entries.
func Catalog() []Icon {
	out := make([]Icon, len(catalog))
	copy(out, catalog)
	return out
}

// BuiltinSet returns the set of built-in canonical icon IDs.
func BuiltinSet() map[string]struct{} {
	set := make(map[string]struct{}, len(catalog))
	for i := range catalog {
		set[catalog[i].ID] = struct{}{}
	}
	return set
}

// KnownSet returns the union of the built-in catalog and any additional
// host-registered icon IDs (custom icon packs, user uploads).
func KnownSet(extra ...string) map[string]struct{} {
	set := BuiltinSet()
	for _, id := range extra {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
