package chathistory

// Part is a piece of content within a message.
// External packages can implement this interface to add custom content types.
type Part interface {
	PartKind() string
}

// Text is a plain text content part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// Image is an image content part, referenced by URL or embedded as raw bytes.
type Image struct {
	URL       string
	Data      []byte
	MediaType string
}

func (i Image) PartKind() string { return "image" }

// FunctionCall is the model's request to invoke a plugin function.
// Arguments holds the raw JSON arguments exactly as the provider sent them.
// Metadata carries provider-specific opaque data that must round-trip
// through the history (e.g. Gemini thought signatures).
type FunctionCall struct {
	ID        string
	Name      string
	Arguments string
	Metadata  map[string]string
}

func (fc FunctionCall) PartKind() string { return "function_call" }

// FunctionResult holds the output of a function invocation.
type FunctionResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

func (fr FunctionResult) PartKind() string { return "function_result" }
