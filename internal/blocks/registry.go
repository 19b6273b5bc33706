package blocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/assets"
	"github.com/alnah/go-pageload/internal/dom"
)

// Decorator renders the content of a block in place.
type Decorator interface {
	Decorate(ctx context.Context, block *html.Node) error
}

// DecoratorFunc adapts a function to the Decorator interface.
type DecoratorFunc func(ctx context.Context, block *html.Node) error

// Decorate calls f.
func (f DecoratorFunc) Decorate(ctx context.Context, block *html.Node) error {
	return f(ctx, block)
}

// Registry maps block names to decorators. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	decorators map[string]Decorator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{decorators: make(map[string]Decorator)}
}

// Register binds a decorator to a block name, replacing any previous one.
func (r *Registry) Register(name string, d Decorator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decorators[name] = d
}

// Lookup returns the decorator registered for name.
func (r *Registry) Lookup(name string) (Decorator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decorators[name]
	return d, ok
}

// Names returns the registered block names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.decorators))
	for name := range r.decorators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinBlocks lists the blocks shipped with the embedded site.
var BuiltinBlocks = []string{"cards", "footer", "header", "hero"}

// DefaultRegistry registers a fragment decorator for every built-in block.
func DefaultRegistry(store assets.AssetLoader) *Registry {
	r := NewRegistry()
	for _, name := range BuiltinBlocks {
		r.Register(name, NewFragmentDecorator(store, name))
	}
	return r
}

// FragmentDecorator appends the block's markup fragment, wrapped in a <div>.
type FragmentDecorator struct {
	store assets.AssetLoader
	name  string
}

// NewFragmentDecorator creates a decorator stamping the fragment of block name.
func NewFragmentDecorator(store assets.AssetLoader, name string) *FragmentDecorator {
	return &FragmentDecorator{store: store, name: name}
}

// Decorate loads the fragment and appends it to block.
func (d *FragmentDecorator) Decorate(ctx context.Context, block *html.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	markup, err := d.store.LoadFragment(d.name)
	if err != nil {
		return err
	}
	content := dom.NewElement("div")
	if err := dom.AppendHTML(content, markup); err != nil {
		return fmt.Errorf("block %s: %w", d.name, err)
	}
	block.AppendChild(content)
	return nil
}

// Compile-time interface checks.
var (
	_ Decorator = DecoratorFunc(nil)
	_ Decorator = (*FragmentDecorator)(nil)
)
