// Package app holds the application state shared by every handler.
package app

import (
	"sync"
)

// Stats are counters maintained by the file handlers
type Stats struct {
	FilesServed int   `json:"filesServed"`
	FilesStored int   `json:"filesStored"`
	BytesServed int64 `json:"bytesServed"`
	BytesStored int64 `json:"bytesStored"`
}

// Context is the state handed to every handler invocation. It is safe for
// concurrent use; the lock is held only for field access, never across I/O.
type Context struct {
	mu        sync.Mutex
	directory string
	stats     Stats
}

// NewContext creates a context serving files from directory
func NewContext(directory string) *Context {
	return &Context{directory: directory}
}

// Directory returns the directory files are served from
func (c *Context) Directory() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.directory
}

// RecordServed counts a file download of n bytes
func (c *Context) RecordServed(n int64) {
	c.mu.Lock()
	c.stats.FilesServed++
	c.stats.BytesServed += n
	c.mu.Unlock()
}

// RecordStored counts a file upload of n bytes
func (c *Context) RecordStored(n int64) {
	c.mu.Lock()
	c.stats.FilesStored++
	c.stats.BytesStored += n
	c.mu.Unlock()
}

// Stats returns a snapshot of the counters
func (c *Context) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
