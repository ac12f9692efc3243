package config

// Proxy is the configuration handle given to plugin code.
//
// It lazily loads the instance's persisted override document, overlays it
// on the plugin's base document, and writes the full override document
// back on Save. The three closures are supplied by the lifecycle
// controller so the proxy stays ignorant of storage and loaders.
type Proxy struct {
	load     func() (*Document, error)
	base     func() *Document
	save     func(*Document) error
	override *Document
}

// NewProxy creates a proxy from loader closures. base may be nil when the
// plugin packages no default configuration; save may be nil for read-only
// use.
func NewProxy(load func() (*Document, error), base func() *Document, save func(*Document) error) *Proxy {
	return &Proxy{load: load, base: base, save: save}
}

// Load parses the persisted override document. A malformed document
// propagates as an error wrapping ErrMalformed; it is never silently
// replaced.
func (p *Proxy) Load() error {
	doc, err := p.load()
	if err != nil {
		return err
	}
	p.override = doc
	return nil
}

// Base returns the plugin's default configuration document, or nil if
// none was declared.
func (p *Proxy) Base() *Document {
	if p.base == nil {
		return nil
	}
	return p.base()
}

// Override returns the instance-specific override document, loading an
// empty one if Load has not run.
func (p *Proxy) Override() *Document {
	if p.override == nil {
		p.override = Empty()
	}
	return p.override
}

// Merged returns the effective configuration: the override overlaid on the
// base, override values winning per key.
func (p *Proxy) Merged() *Document {
	return Merge(p.Base(), p.Override())
}

// Get looks up a dot-separated path, consulting the override layer first
// and falling back to the base layer.
func (p *Proxy) Get(path string) (any, bool) {
	if v, ok := p.Override().Get(path); ok {
		return v, true
	}
	if b := p.Base(); b != nil {
		return b.Get(path)
	}
	return nil, false
}

// Set writes a value into the override layer. The base layer is never
// modified.
func (p *Proxy) Set(path string, value any) error {
	return p.Override().Set(path, value)
}

// Save persists the full override document, replacing the stored copy
// wholesale.
func (p *Proxy) Save() error {
	if p.save == nil {
		return nil
	}
	return p.save(p.Override())
}
