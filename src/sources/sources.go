// Package sources implements the C3 source-list builder of spec §4.3: a
// deterministic ordered sequence of URLs built from a primary origin, an
// optional custom (mirror) origin, and the customSourcesFirst ordering
// flag.
package sources

import (
	"github.com/urixen-org/instancesync/src/config"
	"github.com/urixen-org/instancesync/src/logging"
)

// Transform maps a custom-origin base value into a concrete URL. It is the
// identity function for library/asset roots, and a suffix-join for
// per-version JSON/JAR/asset-index sources (spec §4.3).
type Transform func(customBase string) (string, error)

// Identity is the Transform used for library/asset roots, where the custom
// value is already the concrete URL.
func Identity(customBase string) (string, error) { return customBase, nil }

// Suffix returns a Transform that appends suffix to the custom base,
// separated by a "/" if the base doesn't already end in one.
func Suffix(suffix string) Transform {
	return func(customBase string) (string, error) {
		if len(customBase) == 0 {
			return suffix, nil
		}
		if customBase[len(customBase)-1] == '/' {
			return customBase + suffix, nil
		}
		return customBase + "/" + suffix, nil
	}
}

// Build constructs the ordered source list per spec §4.3's numbered rules.
// primaryKey must resolve to a value (callers are expected to have
// validated required keys at startup); customKey may be empty, meaning no
// custom origin is configured for this call site at all.
func Build(v config.View, primaryKey, customKey string, transform Transform) []string {
	primary, ok := v.Get(primaryKey)
	if !ok {
		return nil
	}

	var custom string
	haveCustom := false
	if customKey != "" {
		if base, ok := v.Get(customKey); ok {
			derived, err := transform(base)
			if err != nil {
				logging.With(map[string]any{"key": customKey}).Warnf("dropping custom source: %v", err)
			} else {
				custom = derived
				haveCustom = true
			}
		}
	}

	if !haveCustom {
		return []string{primary}
	}
	if config.CustomSourcesFirst(v) {
		return []string{custom, primary}
	}
	return []string{primary, custom}
}

// Prepend returns a new list with extra entries placed ahead of list, for
// the per-manifest primary sources (manifest.librariesUrl) that spec §4.3
// rule 5 says take precedence over every other entry. Empty extra entries
// are skipped.
func Prepend(list []string, extra ...string) []string {
	var nonEmpty []string
	for _, e := range extra {
		if e != "" {
			nonEmpty = append(nonEmpty, e)
		}
	}
	if len(nonEmpty) == 0 {
		return list
	}
	out := make([]string, 0, len(nonEmpty)+len(list))
	out = append(out, nonEmpty...)
	out = append(out, list...)
	return out
}

// RebaseSuffix rebases every entry of list by appending suffix (joined with
// "/"), used when a source list built for a root (libraries, assets) needs
// to be specialized to one artifact's path.
func RebaseSuffix(list []string, suffix string) []string {
	out := make([]string, len(list))
	for i, base := range list {
		if len(base) > 0 && base[len(base)-1] == '/' {
			out[i] = base + suffix
		} else {
			out[i] = base + "/" + suffix
		}
	}
	return out
}
