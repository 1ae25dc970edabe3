package bridge

import (
	"errors"
	"os"
)

// DefaultPagePath is the status page served when no loader is configured.
const DefaultPagePath = "index.html"

// PlaceholderPage is served whenever the status page is unavailable.
var PlaceholderPage = []byte("<!DOCTYPE html><html><body><h1>index.html not found</h1></body></html>")

// ErrPageUnavailable indicates a PageLoader has no document to serve.
var ErrPageUnavailable = errors.New("bridge: status page unavailable")

// PageLoader provides the status document served on the control endpoint.
type PageLoader interface {
	Load() ([]byte, error)
}

// FileLoader reads the status page from disk on every request, so edits are
// served without a restart.
type FileLoader struct {
	Path string
}

// Load implements PageLoader.
func (f FileLoader) Load() ([]byte, error) {
	return os.ReadFile(f.Path)
}

// StaticLoader serves fixed bytes. An empty StaticLoader, nil or zero length,
// is unavailable.
type StaticLoader []byte

// Load implements PageLoader.
func (s StaticLoader) Load() ([]byte, error) {
	if len(s) == 0 {
		return nil, ErrPageUnavailable
	}
	return s, nil
}

// PageLoaderFunc adapts a function to PageLoader.
type PageLoaderFunc func() ([]byte, error)

// Load implements PageLoader.
func (f PageLoaderFunc) Load() ([]byte, error) {
	return f()
}

// loadPage returns the status page, falling back to PlaceholderPage.
func (b *Bridge) loadPage() []byte {
	if b.cfg.pageLoader == nil {
		return PlaceholderPage
	}

	page, err := b.cfg.pageLoader.Load()
	if err != nil {
		b.logger.Debug("status page unavailable, serving placeholder", "error", err)
		return PlaceholderPage
	}

	return page
}
