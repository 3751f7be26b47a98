package hub

import chub "github.com/next-trace/scg-event-hub/contract/hub"

// IsWildcard reports whether name is the reserved wildcard token.
func IsWildcard(name string) bool { return name == chub.Wildcard }

// expand resolves name against the keys of m. The wildcard yields a snapshot of the keys present
// right now (nothing when m is empty); any other name yields itself.
// Callers hold the lock guarding m for the whole expand-and-apply step.
func expand[V any](name string, m map[string]V) []string {
	if !IsWildcard(name) {
		return []string{name}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	return keys
}
