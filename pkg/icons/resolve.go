package icons

import "strings"

// legacyAliases maps older and free-form icon labels onto canonical IDs.
// Keys are lower-case with separator runs collapsed to a single underscore.
//
//nolint:gochecknoglobals // Static reference data
var legacyAliases = map[string]string{
	// People
	"person":   "user",
	"people":   "user",
	"human":    "user",
	"actor":    "user",
	"customer": "user",
	"client":   "user",

	// Storage
	"database":   "storage",
	"db":         "storage",
	"disk":       "storage",
	"data_store": "storage",
	"datastore":  "storage",
	"bucket":     "storage",
	"s3":         "storage",

	// Cache
	"redis":     "cache",
	"memcached": "cache",
	"cdn":       "cache",

	// Queueing
	"message_queue": "queue",
	"event_bus":     "queue",
	"pubsub":        "queue",
	"broker":        "queue",
	"kafka":         "queue",
	"rabbitmq":      "queue",
	"sqs":           "queue",

	// Network
	"internet":      "cloud",
	"web":           "cloud",
	"network":       "cloud",
	"gateway":       "router",
	"api_gateway":   "router",
	"proxy":         "router",
	"load_balancer": "switch",
	"lb":            "switch",

	// Compute
	"host":         "server",
	"vm":           "server",
	"node":         "server",
	"container":    "cube",
	"docker":       "cube",
	"pod":          "cube",
	"lambda":       "function",
	"microservice": "function",

	// Clients
	"computer":      "desktop",
	"pc":            "desktop",
	"workstation":   "desktop",
	"phone":         "mobile",
	"smartphone":    "mobile",
	"tablet":        "mobile",
	"mobile_device": "mobile",

	// Misc
	"email":       "mail",
	"smtp":        "mail",
	"file":        "document",
	"doc":         "document",
	"report":      "document",
	"auth":        "lock",
	"security":    "lock",
	"vault":       "lock",
	"building":    "office",
	"datacenter":  "office",
	"data_center": "office",
	"payment":     "paymentcard",
	"billing":     "paymentcard",
	"chat":        "speech",
	"service":     "block",
	"component":   "block",
	"app":         "block",
	"application": "block",
	"box":         "block",
}

// Resolve maps a free-form icon label onto a member of known. It is total:
// any input, including the empty string, yields a known icon ID.
//
// Resolution order, first match wins:
//  1. empty input -> DefaultIcon
//  2. exact (case-folded) match against known
//  3. legacy alias lookup on the separator-collapsed form
//  4. hyphenated form of the label
//  5. fully compacted form (all separators stripped)
//  6. DefaultIcon
func Resolve(raw string, known map[string]struct{}) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return DefaultIcon
	}

	if _, ok := known[label]; ok {
		return label
	}

	if alias, ok := legacyAliases[collapseSeparators(label)]; ok {
		if _, ok := known[alias]; ok {
			return alias
		}
	}

	hyphenated := strings.NewReplacer("_", "-", " ", "-").Replace(label)
	if _, ok := known[hyphenated]; ok {
		return hyphenated
	}

	compacted := strings.NewReplacer("_", "", "-", "", " ", "").Replace(label)
	if _, ok := known[compacted]; ok {
		return compacted
	}

	return DefaultIcon
}

// collapseSeparators rewrites runs of spaces and hyphens as a single
// underscore, so "message - queue" and "message-queue" share an alias key.
func collapseSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		if r == ' ' || r == '-' || r == '_' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('_')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}
