// Package chathistory holds the conversation model that chat connectors
// consume and produce: roles, content parts, messages, and the History
// container a kernel appends to while it runs function-calling rounds.
package chathistory

// History is an ordered conversation. The zero value is ready to use.
// History is not safe for concurrent use.
type History struct {
	messages []Message
}

// New creates a History seeded with msgs.
func New(msgs ...Message) *History {
	return &History{messages: msgs}
}

// Append adds messages to the end of the history.
func (h *History) Append(msgs ...Message) {
	h.messages = append(h.messages, msgs...)
}

// AddSystem appends a system message.
func (h *History) AddSystem(text string) {
	h.Append(NewText("", System, text))
}

// AddUser appends a user message.
func (h *History) AddUser(text string) {
	h.Append(NewText("", User, text))
}

// AddAssistant appends an assistant message.
func (h *History) AddAssistant(text string) {
	h.Append(NewText("", Assistant, text))
}

// Len returns the number of messages.
func (h *History) Len() int {
	return len(h.messages)
}

// At returns the message at index i. It panics if i is out of range.
func (h *History) At(i int) Message {
	return h.messages[i]
}

// Last returns the most recent message, or false when the history is empty.
func (h *History) Last() (Message, bool) {
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Messages returns a copy of the message slice.
func (h *History) Messages() []Message {
	cp := make([]Message, len(h.messages))
	copy(cp, h.messages)
	return cp
}

// Each calls fn for every message until fn returns false.
func (h *History) Each(fn func(int, Message) bool) {
	for i, m := range h.messages {
		if !fn(i, m) {
			return
		}
	}
}

// SystemPrompt returns the text of the first system message, or "".
func (h *History) SystemPrompt() string {
	for _, m := range h.messages {
		if m.Role == System {
			return m.TextContent()
		}
	}
	return ""
}
