package domain

// Catalog is the fixed, ordered set of buildable service names plus the
// source root their directories live under. Loaded once at startup and
// immutable afterwards.
type Catalog struct {
	Services   []string
	SourceRoot string
}

// Has reports whether name is a cataloged service.
func (c Catalog) Has(name string) bool {
	for _, s := range c.Services {
		if s == name {
			return true
		}
	}
	return false
}
