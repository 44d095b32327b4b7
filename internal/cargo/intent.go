package cargo

import "path/filepath"

// IntentKind selects what a build produces.
type IntentKind string

const (
	// IntentExternalPackage builds the package rooted at a directory.
	IntentExternalPackage IntentKind = "package"
	// IntentSelfLibrary builds the library target of the current package.
	IntentSelfLibrary IntentKind = "lib"
	// IntentExample builds a named example target of the current package.
	IntentExample IntentKind = "example"
)

// TargetDirEnv is the variable cargo reads for its artifact output directory.
const TargetDirEnv = "CARGO_TARGET_DIR"

// Intent is an immutable description of one build.
type Intent struct {
	kind     IntentKind
	dir      string
	name     string
	features Features
}

// ExternalPackage builds the package in dir with its own target directory beneath it.
func ExternalPackage(dir string, features Features) Intent {
	return Intent{kind: IntentExternalPackage, dir: dir, features: features}
}

// SelfLibrary builds the current package's library target.
func SelfLibrary(features Features) Intent {
	return Intent{kind: IntentSelfLibrary, features: features}
}

// Example builds the current package's example called name.
func Example(name string, features Features) Intent {
	return Intent{kind: IntentExample, name: name, features: features}
}

func (i Intent) Kind() IntentKind   { return i.kind }
func (i Intent) Dir() string        { return i.dir }
func (i Intent) Name() string       { return i.name }
func (i Intent) Features() Features { return i.features }

// targetArgs returns the arguments that restrict the build to the intent's target.
func (i Intent) targetArgs() []string {
	switch i.kind {
	case IntentSelfLibrary:
		return []string{"--lib"}
	case IntentExample:
		return []string{"--example", i.name}
	default:
		return nil
	}
}

// targetDir returns the CARGO_TARGET_DIR override, empty when none applies.
func (i Intent) targetDir() string {
	if i.kind != IntentExternalPackage {
		return ""
	}
	return filepath.Join(i.dir, "target")
}

func (i Intent) String() string {
	switch i.kind {
	case IntentExternalPackage:
		return "package " + i.dir
	case IntentSelfLibrary:
		return "lib"
	case IntentExample:
		return "example " + i.name
	default:
		return "unknown"
	}
}
