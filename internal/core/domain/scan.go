package domain

// ScanSpec describes one configured security scan. The scanner itself is
// a pre-built tool image; Args is the command line it runs against the
// mounted service directory.
type ScanSpec struct {
	Name  string   `json:"name"`
	Image string   `json:"image"`
	Args  []string `json:"args"`
}
