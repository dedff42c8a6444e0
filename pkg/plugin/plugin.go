package plugin

import "sort"

// Plugin is a named set of functions.
type Plugin struct {
	Name        string
	Description string
	functions   map[string]Function
}

// New creates a plugin holding fns.
func New(name, description string, fns ...Function) *Plugin {
	p := &Plugin{
		Name:        name,
		Description: description,
		functions:   make(map[string]Function, len(fns)),
	}
	p.Add(fns...)
	return p
}

// Add registers functions, replacing any with the same name.
func (p *Plugin) Add(fns ...Function) {
	if p.functions == nil {
		p.functions = make(map[string]Function, len(fns))
	}
	for _, f := range fns {
		p.functions[f.Name] = f
	}
}

// Function looks up a function by its unqualified name.
func (p *Plugin) Function(name string) (Function, bool) {
	f, ok := p.functions[name]
	return f, ok
}

// Functions returns the plugin's functions sorted by name.
func (p *Plugin) Functions() []Function {
	out := make([]Function, 0, len(p.functions))
	for _, f := range p.functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of functions.
func (p *Plugin) Len() int {
	return len(p.functions)
}
