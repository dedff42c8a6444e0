package kernel

import (
	"errors"
	"fmt"

	"github.com/germanamz/kernelkit/pkg/modeladapter"
	"github.com/germanamz/kernelkit/pkg/plugin"
	"github.com/google/uuid"
)

// Builder accumulates connectors and plugins and produces a Kernel.
// ConfigureBuilder receives one; KernelFactory returns one. Kernel has no
// exported constructor, so custom builders must delegate Build to a
// KernelBuilder (see NewBuilder); Build rejects kernels made any other way.
type Builder interface {
	// AddConnector sets the connector serving t, replacing any previous one.
	AddConnector(t Type, connector any)
	// AddPlugin attaches a plugin whose functions the kernel offers to chat
	// models.
	AddPlugin(p *plugin.Plugin)
	// Build produces the kernel.
	Build() (*Kernel, error)
}

var _ Builder = (*KernelBuilder)(nil)

// KernelBuilder is the default Builder.
type KernelBuilder struct {
	typ        Type
	provider   string
	settings   modeladapter.Settings
	limits     Limits
	connectors map[Type]any
	plugins    []*plugin.Plugin
}

// NewBuilder returns an empty builder carrying the identity, generation
// settings and limits of opts. It attaches no connectors; see
// NewDefaultBuilder for that.
func NewBuilder(opts *Options) *KernelBuilder {
	return &KernelBuilder{
		typ:        opts.kernelType(),
		provider:   resolveProvider(opts),
		settings:   opts.Generation(),
		limits:     opts.Limits(),
		connectors: map[Type]any{},
	}
}

// NewDefaultBuilder returns a builder with the registered connector for
// the options' provider and type already attached.
func NewDefaultBuilder(opts *Options) (*KernelBuilder, error) {
	b := NewBuilder(opts)

	if !b.typ.Valid() {
		return nil, fmt.Errorf("kernel: %w: %s", ErrUnsupportedType, b.typ)
	}

	factory, err := getFactory(b.provider, b.typ)
	if err != nil {
		return nil, err
	}

	var endpoint, apiKey string
	if opts != nil {
		endpoint = deref(opts.Endpoint)
		apiKey = deref(opts.APIKey)
	}

	c, err := factory(ConnectorConfig{Endpoint: endpoint, APIKey: apiKey, Settings: b.settings})
	if err != nil {
		return nil, fmt.Errorf("kernel: provider %q: %w", b.provider, err)
	}

	b.AddConnector(b.typ, c)

	return b, nil
}

// AddConnector and AddPlugin are no-ops on a nil builder so that Build can
// report it.
func (b *KernelBuilder) AddConnector(t Type, connector any) {
	if b == nil {
		return
	}
	if b.connectors == nil {
		b.connectors = map[Type]any{}
	}
	if connector == nil {
		delete(b.connectors, t)
		return
	}
	b.connectors[t] = connector
}

func (b *KernelBuilder) AddPlugin(p *plugin.Plugin) {
	if b != nil && p != nil {
		b.plugins = append(b.plugins, p)
	}
}

// Build checks every connector implements the interface its type requires
// and that the kernel's own type can be served. A completion kernel may be
// served by a chat connector alone.
func (b *KernelBuilder) Build() (*Kernel, error) {
	if b == nil {
		return nil, errors.New("kernel: nil builder")
	}

	connectors := make(map[Type]any, len(b.connectors))
	for t, c := range b.connectors {
		if err := checkConnector(t, c); err != nil {
			return nil, err
		}
		connectors[t] = c
	}

	if _, ok := connectors[b.typ]; !ok {
		_, hasChat := connectors[Chat]
		if b.typ != Completion || !hasChat {
			return nil, fmt.Errorf("kernel: %w for type %s", ErrNoConnector, b.typ)
		}
	}

	return &Kernel{
		id:         uuid.NewString(),
		typ:        b.typ,
		provider:   b.provider,
		settings:   b.settings,
		limits:     b.limits,
		connectors: connectors,
		plugins:    plugin.NewCollection(b.plugins...),
	}, nil
}

func checkConnector(t Type, c any) error {
	var ok bool

	switch t {
	case Chat:
		_, ok = c.(modeladapter.ChatCompleter)
	case Completion:
		_, ok = c.(modeladapter.TextGenerator)
	case Embedding:
		_, ok = c.(modeladapter.Embedder)
	case Image:
		_, ok = c.(modeladapter.ImageGenerator)
	default:
		return fmt.Errorf("kernel: %w: %s", ErrUnsupportedType, t)
	}

	if !ok {
		return fmt.Errorf("kernel: %T: %w %s", c, ErrConnectorMismatch, t)
	}

	return nil
}
