package cache

// Keyer builds cache keys for chart artifacts.
type Keyer interface {
	// LayoutKey keys the exported JSON layout of a chart.
	LayoutKey(dataHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys a rendered file (svg, png, dot, ...).
	ArtifactKey(dataHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs that change a chart's layout.
type LayoutKeyOpts struct {
	ConfigHash string   `json:"config,omitempty"`
	Width      float64  `json:"w,omitempty"`
	Height     float64  `json:"h,omitempty"`
	Root       string   `json:"root,omitempty"`
	Toggles    []string `json:"toggles,omitempty"`
}

// ArtifactKeyOpts add the render options on top of the layout inputs.
type ArtifactKeyOpts struct {
	LayoutKeyOpts
	Format   string  `json:"format"`
	Animate  bool    `json:"animate,omitempty"`
	Fit      float64 `json:"fit,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
	Title    string  `json:"title,omitempty"`
}

// DefaultKeyer hashes all options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(dataHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", dataHash, opts)
}

func (DefaultKeyer) ArtifactKey(dataHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", dataHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix so several charts can share one
// backend without colliding:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "orgtree:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LayoutKey(dataHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(dataHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(dataHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(dataHash, opts)
}
