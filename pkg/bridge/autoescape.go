package bridge

import "strings"

// AutoescapeConfig is the escaping policy of a path-mode render. Escaping is
// off for every template unless Enabled is set and Suffixes is non-empty, in
// which case it is on only for templates whose name ends with a suffix.
type AutoescapeConfig struct {
	Enabled  bool
	Suffixes []string
}

// ResolveAutoescape builds the policy for a path-mode render. The suffixes are
// copied so the result never aliases caller memory.
func ResolveAutoescape(enabled bool, suffixes []string) AutoescapeConfig {
	if !enabled || len(suffixes) == 0 {
		return AutoescapeConfig{}
	}
	owned := make([]string, len(suffixes))
	copy(owned, suffixes)
	return AutoescapeConfig{Enabled: true, Suffixes: owned}
}

// Applies reports whether the template called name should be escaped.
func (c AutoescapeConfig) Applies(name string) bool {
	if !c.Enabled {
		return false
	}
	for _, suffix := range c.Suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
