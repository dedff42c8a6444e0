package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/germanamz/kernelkit/pkg/chathistory"
)

// Separator joins plugin and function names in qualified function names
// advertised to providers. Provider tool names only allow [a-zA-Z0-9_-].
const Separator = "-"

// QualifiedName returns the name a function is advertised under.
func QualifiedName(plugin, function string) string {
	if plugin == "" {
		return function
	}
	return plugin + Separator + function
}

// Collection is the set of plugins attached to a kernel.
// It is not safe for concurrent mutation; kernels only read it after build.
type Collection struct {
	plugins map[string]*Plugin
}

// NewCollection creates a collection holding plugins.
func NewCollection(plugins ...*Plugin) *Collection {
	c := &Collection{plugins: make(map[string]*Plugin, len(plugins))}
	c.Add(plugins...)
	return c
}

// Add registers plugins. A plugin with an existing name is merged with the
// registered one into a new plugin owned by the collection; the plugins
// passed in are only read.
func (c *Collection) Add(plugins ...*Plugin) {
	if c.plugins == nil {
		c.plugins = make(map[string]*Plugin, len(plugins))
	}
	for _, p := range plugins {
		if p == nil {
			continue
		}
		if existing, ok := c.plugins[p.Name]; ok && existing != p {
			merged := New(existing.Name, existing.Description, existing.Functions()...)
			merged.Add(p.Functions()...)
			c.plugins[p.Name] = merged
			continue
		}
		c.plugins[p.Name] = p
	}
}

// Get returns a plugin by name.
func (c *Collection) Get(name string) (*Plugin, bool) {
	p, ok := c.plugins[name]
	return p, ok
}

// Names returns the registered plugin names, sorted.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.plugins))
	for n := range c.plugins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of plugins.
func (c *Collection) Len() int {
	return len(c.plugins)
}

// Functions returns every function with its Name replaced by the qualified
// name, ordered by plugin then function.
func (c *Collection) Functions() []Function {
	var out []Function
	for _, name := range c.Names() {
		for _, f := range c.plugins[name].Functions() {
			f.Name = QualifiedName(name, f.Name)
			out = append(out, f)
		}
	}
	return out
}

// Lookup resolves a qualified name to its function.
func (c *Collection) Lookup(qualified string) (Function, bool) {
	if p, ok := c.plugins[""]; ok {
		if f, ok := p.Function(qualified); ok {
			return f, true
		}
	}

	pluginName, fnName, ok := strings.Cut(qualified, Separator)
	if !ok {
		return Function{}, false
	}

	p, ok := c.plugins[pluginName]
	if !ok {
		return Function{}, false
	}

	return p.Function(fnName)
}

// Invoke runs the function a model asked for. Unknown functions and handler
// failures come back as error results so the model can recover.
func (c *Collection) Invoke(ctx context.Context, call chathistory.FunctionCall) chathistory.FunctionResult {
	res := chathistory.FunctionResult{CallID: call.ID, Name: call.Name}

	f, ok := c.Lookup(call.Name)
	if !ok || f.Handler == nil {
		res.Content = fmt.Sprintf("function not found: %s", call.Name)
		res.IsError = true
		return res
	}

	out, err := f.Handler(ctx, json.RawMessage(call.Arguments))
	if err != nil {
		res.Content = err.Error()
		res.IsError = true
		return res
	}

	res.Content = out
	return res
}
