// Package locale defines the localization collaborator spec §7 requires
// every error to carry a user-facing message through: "all errors carry a
// user-facing, localized message via the locale collaborator". The string
// table itself is an external collaborator out of this module's scope; a
// passthrough default keeps the rest of the module usable without one.
package locale

// Locale renders a message key (plus positional args) into user-facing
// text.
type Locale interface {
	Message(key string, args ...any) string
}

// Passthrough is the zero-dependency default Locale: it has no string
// table, so it simply returns the key unchanged. Real launcher UIs are
// expected to supply their own Locale backed by an embedded translation
// file.
type Passthrough struct{}

// Message implements Locale by returning key verbatim.
func (Passthrough) Message(key string, _ ...any) string { return key }
