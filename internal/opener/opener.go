// Package opener decides which URLs the host can open and hands them to the system browser.
package opener

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cli/browser"
)

// ErrUnopenable is returned by Open for URLs the registry does not accept.
var ErrUnopenable = errors.New("no handler registered for URL")

// schemes that name a network location and so need a host.
var hierarchical = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
}

// Registry holds the URL schemes the host environment has handlers for.
type Registry struct {
	schemes map[string]bool
	open    func(string) error
}

// NewRegistry returns a registry accepting the given schemes, opening URLs with the default browser.
func NewRegistry(schemes ...string) *Registry {
	r := &Registry{
		schemes: make(map[string]bool, len(schemes)),
		open:    browser.OpenURL,
	}
	for _, s := range schemes {
		r.schemes[strings.ToLower(s)] = true
	}
	return r
}

// WithOpenFunc replaces the function used to launch URLs.
func (r *Registry) WithOpenFunc(open func(string) error) *Registry {
	r.open = open
	return r
}

// CanOpen reports whether u has a registered scheme and, for network schemes, a host.
func (r *Registry) CanOpen(u *url.URL) bool {
	if u == nil || u.Scheme == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if !r.schemes[scheme] {
		return false
	}
	if hierarchical[scheme] && u.Host == "" {
		return false
	}
	if scheme == "mailto" && u.Opaque == "" {
		return false
	}
	return true
}

// Parse parses raw and checks it can be opened.
func (r *Registry) Parse(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrUnopenable)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if !r.CanOpen(u) {
		return nil, fmt.Errorf("%w: %s", ErrUnopenable, raw)
	}
	return u, nil
}

// Open launches raw in the browser.
func (r *Registry) Open(raw string) error {
	u, err := r.Parse(raw)
	if err != nil {
		return err
	}
	if err := r.open(u.String()); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}
