// Package urls maps symbolic view names to chi route patterns so links can
// be built from a name and positional arguments.
package urls

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sync"

	"github.com/go-chi/chi/v5"
)

var ErrNoReverseMatch = errors.New("no reverse match")

var paramPattern = regexp.MustCompile(`\{([^{}:]+)(?::[^{}]*)?\}`)

type route struct {
	pattern string
	params  []string
}

type Resolver struct {
	mu     sync.RWMutex
	routes map[string]route
}

func NewResolver() *Resolver {
	return &Resolver{routes: make(map[string]route)}
}

// Add registers pattern under name. Re-registering a name is an error.
func (r *Resolver) Add(name, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routes[name]; ok {
		return fmt.Errorf("view %q already registered", name)
	}
	var params []string
	for _, m := range paramPattern.FindAllStringSubmatch(pattern, -1) {
		params = append(params, m[1])
	}
	r.routes[name] = route{pattern: pattern, params: params}
	return nil
}

// Get registers a GET route on router and records it under name.
func (r *Resolver) Get(router chi.Router, name, pattern string, h http.HandlerFunc) error {
	if err := r.Add(name, pattern); err != nil {
		return err
	}
	router.Get(pattern, h)
	return nil
}

// Reverse builds the path for name, substituting args in order. Arguments
// are path-escaped.
func (r *Resolver) Reverse(name string, args ...string) (string, error) {
	r.mu.RLock()
	rt, ok := r.routes[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: unknown view %q", ErrNoReverseMatch, name)
	}
	if len(args) != len(rt.params) {
		return "", fmt.Errorf("%w: view %q takes %d arguments, got %d", ErrNoReverseMatch, name, len(rt.params), len(args))
	}
	for i, a := range args {
		if a == "" {
			return "", fmt.Errorf("%w: view %q: empty %s", ErrNoReverseMatch, name, rt.params[i])
		}
	}

	i := 0
	path := paramPattern.ReplaceAllStringFunc(rt.pattern, func(string) string {
		s := url.PathEscape(args[i])
		i++
		return s
	})
	return path, nil
}
