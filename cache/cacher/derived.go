package cacher

import "sync"

// Derived caches a value computed from mutable source data. Writers call Invalidate after
// changing the source; the next Get rebuilds. Unlike Const the loader may fail.
type Derived struct {
	mu      sync.Mutex
	value   interface{}
	valid   bool
	builds  int
	rebuild func() (interface{}, error)
}

// NewDerived returns a derived cacher.
func NewDerived(rebuild func() (interface{}, error)) *Derived {
	if rebuild == nil {
		panic("nil rebuild func")
	}
	return &Derived{rebuild: rebuild}
}

// Get returns the cached value, rebuilding it if it was invalidated.
func (d *Derived) Get() (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.valid {
		return d.value, nil
	}
	v, err := d.rebuild()
	if err != nil {
		return nil, err
	}
	d.value, d.valid = v, true
	d.builds++
	return v, nil
}

// Invalidate marks the cached value stale.
func (d *Derived) Invalidate() {
	d.mu.Lock()
	d.valid = false
	d.mu.Unlock()
}

// Builds returns how many times the value has been rebuilt.
func (d *Derived) Builds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.builds
}
