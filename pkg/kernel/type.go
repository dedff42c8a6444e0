package kernel

import (
	"fmt"
	"strings"
)

// Type selects the capability a kernel is built for and so which connector
// the default builder attaches.
type Type int

const (
	Chat Type = iota + 1
	Completion
	Embedding
	Image
)

var typeNames = map[Type]string{
	Chat:       "chat",
	Completion: "completion",
	Embedding:  "embedding",
	Image:      "image",
}

var typeAliases = map[string]Type{
	"chat":           Chat,
	"completion":     Completion,
	"text":           Completion,
	"textcompletion": Completion,
	"embedding":      Embedding,
	"embeddings":     Embedding,
	"image":          Image,
	"images":         Image,
}

// Types lists every known kernel type in declaration order.
func Types() []Type {
	return []Type{Chat, Completion, Embedding, Image}
}

// ParseType parses a type name. Matching is case-insensitive and ignores
// '-' and '_' so "text-completion" and "TEXT_COMPLETION" both work.
func ParseType(s string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)

	if t, ok := typeAliases[key]; ok {
		return t, nil
	}

	return 0, fmt.Errorf("kernel: %w: %q", ErrUnsupportedType, s)
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	name, ok := typeNames[t]
	if !ok {
		return nil, fmt.Errorf("kernel: %w: %d", ErrUnsupportedType, int(t))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
