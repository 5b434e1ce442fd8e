package cacher

import "sync"

// Const defines a constant cacher which is lazy-loaded.
type Const struct {
	mu    sync.Mutex
	value interface{}
	load  func() interface{}
}

// NewConst returns a const cacher.
func NewConst(load func() interface{}) *Const {
	if load == nil {
		panic("nil loader func")
	}
	return &Const{load: load}
}

// IsLoaded returns if the const is loaded.
func (c *Const) IsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value != nil
}

// Get returns the cached value, loading it on first use.
func (c *Const) Get() interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil {
		v := c.load()
		if v == nil {
			panic("invalid loader")
		}
		c.value = v
	}
	return c.value
}

// Clear drops the cached value so the next Get loads again.
func (c *Const) Clear() {
	c.mu.Lock()
	c.value = nil
	c.mu.Unlock()
}
