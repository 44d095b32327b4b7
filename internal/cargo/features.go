package cargo

import "strings"

// Features selects the conditional-compilation features for a build.
//
// The zero value keeps the package's default feature set. A selection made
// with Only disables default features and enables exactly the given names,
// in order; an empty Only selection builds with no features at all.
type Features struct {
	names []string
	set   bool
}

// DefaultFeatures keeps the package's default feature set unmodified.
func DefaultFeatures() Features { return Features{} }

// Only disables default features and enables exactly names.
func Only(names ...string) Features {
	return Features{names: append([]string{}, names...), set: true}
}

// IsSet reports whether an explicit selection was made.
func (f Features) IsSet() bool { return f.set }

// Names returns a copy of the explicit feature list (nil for DefaultFeatures).
func (f Features) Names() []string {
	if !f.set {
		return nil
	}
	return append([]string{}, f.names...)
}

// Args renders the cargo flags for the selection.
func (f Features) Args() []string {
	if !f.set {
		return nil
	}
	return []string{"--no-default-features", "--features", strings.Join(f.names, ",")}
}

func (f Features) String() string {
	if !f.set {
		return "default"
	}
	if len(f.names) == 0 {
		return "none"
	}
	return strings.Join(f.names, ",")
}
