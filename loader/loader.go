// Package loader loads schemas from URLs. The prefix before "://"
// selects a resolver: "file" reads a YAML schema file, "yaml" takes the
// schema source inline. A URL without a prefix is treated as a file
// path. Additional resolvers can be registered for custom sources.
//
// Loaded schemas have their imports resolved recursively and are fixed
// before being returned, with reference count 1.
package loader

import (
	"fmt"
	"strings"
	"sync"

	"github.com/artpar/wireschema/core/schema"
)

// Resolver fetches the schema source for the part of the URL after the
// prefix. The returned schema is unfixed; the loader merges imports and
// fixes it.
type Resolver func(rest string) (*schema.Schema, error)

// Loader dispatches URLs to registered resolvers.
type Loader struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
}

// New creates a loader with the builtin file and yaml resolvers.
func New() *Loader {
	l := &Loader{resolvers: make(map[string]Resolver)}
	l.resolvers["file"] = func(rest string) (*schema.Schema, error) {
		return schema.ParseFile(rest)
	}
	l.resolvers["yaml"] = func(rest string) (*schema.Schema, error) {
		return schema.Parse([]byte(rest))
	}
	return l
}

// Register adds a resolver for a URL prefix.
func (l *Loader) Register(prefix string, r Resolver) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.resolvers[prefix]; exists {
		return fmt.Errorf("resolver %q already registered", prefix)
	}
	l.resolvers[prefix] = r
	return nil
}

// Load fetches, merges imports into, and fixes the schema at the URL.
func (l *Loader) Load(url string) (*schema.Schema, error) {
	s, err := l.load(url, map[string]loadState{})
	if err != nil {
		return nil, err
	}
	if err := s.Fix(); err != nil {
		return nil, fmt.Errorf("fix schema %s: %w", url, err)
	}
	return s, nil
}

type loadState int

const (
	loading loadState = iota + 1
	loaded
)

func (l *Loader) load(url string, seen map[string]loadState) (*schema.Schema, error) {
	switch seen[url] {
	case loading:
		return nil, fmt.Errorf("import cycle through %s", url)
	case loaded:
		// Already merged through another import path.
		return schema.New(), nil
	}
	seen[url] = loading
	defer func() { seen[url] = loaded }()

	prefix, rest := splitURL(url)

	l.mu.RLock()
	resolver, ok := l.resolvers[prefix]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no resolver for scheme url %q", url)
	}

	s, err := resolver(rest)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", url, err)
	}

	// Imported entities precede the importer's own so that its
	// references resolve against them.
	for i := len(s.Imports) - 1; i >= 0; i-- {
		imp, err := l.load(s.Imports[i].URL, seen)
		if err != nil {
			return nil, err
		}
		s.Enums = append(imp.Enums, s.Enums...)
		s.Unions = append(imp.Unions, s.Unions...)
		s.Aliases = append(imp.Aliases, s.Aliases...)
		s.Messages = append(imp.Messages, s.Messages...)
	}
	return s, nil
}

// splitURL separates the resolver prefix from the rest. URLs without
// "://" are file paths.
func splitURL(url string) (prefix, rest string) {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i], url[i+3:]
	}
	return "file", url
}

var defaultLoader = New()

// Load fetches a schema URL through the default loader.
func Load(url string) (*schema.Schema, error) {
	return defaultLoader.Load(url)
}
