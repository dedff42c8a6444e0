package chathistory

import "strings"

// Message is a single entry in a chat history. It is a value type; Parts
// and Metadata are shared between copies.
type Message struct {
	Sender   string
	Role     Role
	Parts    []Part
	Metadata map[string]any
}

// NewMessage creates a message with the given sender, role, and content parts.
func NewMessage(sender string, r Role, parts ...Part) Message {
	return Message{
		Sender: sender,
		Role:   r,
		Parts:  parts,
	}
}

// NewText creates a message with a single Text part.
func NewText(sender string, r Role, text string) Message {
	return NewMessage(sender, r, Text{Text: text})
}

// TextContent concatenates the text of all Text parts.
func (m Message) TextContent() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(Text); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// FunctionCalls returns all FunctionCall parts in order.
func (m Message) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range m.Parts {
		if fc, ok := p.(FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

// SetMeta sets a metadata key, allocating the map on first use.
func (m *Message) SetMeta(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// GetMeta retrieves a metadata value by key.
func (m Message) GetMeta(key string) (any, bool) {
	if m.Metadata == nil {
		return nil, false
	}
	v, ok := m.Metadata[key]
	return v, ok
}
