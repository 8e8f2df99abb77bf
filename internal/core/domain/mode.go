package domain

// ModeKind discriminates the selection strategies.
type ModeKind int

const (
	// ModeAll selects every cataloged service.
	ModeAll ModeKind = iota
	// ModeNone selects nothing.
	ModeNone
	// ModeAuto infers the selection from a version-control diff.
	ModeAuto
	// ModeExplicit selects exactly one named service.
	ModeExplicit
)

// Mode is the selection strategy for one pipeline run.
// For ModeExplicit, Service carries the requested name.
type Mode struct {
	Kind    ModeKind
	Service string
}

// ParseMode maps the run parameter value to a Mode. The reserved words
// "all", "none" and "auto" pick a strategy; any other value is taken as
// an explicit service name.
func ParseMode(value string) Mode {
	switch value {
	case "all":
		return Mode{Kind: ModeAll}
	case "none":
		return Mode{Kind: ModeNone}
	case "auto":
		return Mode{Kind: ModeAuto}
	default:
		return Mode{Kind: ModeExplicit, Service: value}
	}
}

func (m Mode) String() string {
	switch m.Kind {
	case ModeAll:
		return "all"
	case ModeNone:
		return "none"
	case ModeAuto:
		return "auto"
	default:
		return m.Service
	}
}
