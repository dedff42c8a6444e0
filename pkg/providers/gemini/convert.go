package gemini

import (
	"encoding/json"

	"github.com/germanamz/kernelkit/pkg/chathistory"
	"github.com/germanamz/kernelkit/pkg/plugin"
	"github.com/google/uuid"
)

func (a *Adapter) buildRequest(h *chathistory.History, fns []plugin.Function) generateRequest {
	req := generateRequest{
		GenerationConfig: generationConfig{
			Temperature:     a.Temperature,
			MaxOutputTokens: a.MaxTokens,
		},
	}

	if len(fns) > 0 {
		decls := make([]apiFuncDecl, len(fns))
		for i, f := range fns {
			decls[i] = apiFuncDecl{
				Name:        f.Name,
				Description: f.Description,
				Parameters:  sanitizeSchema(f.Schema()),
			}
		}
		req.Tools = []apiToolSet{{FunctionDeclarations: decls}}
	}

	if sp := h.SystemPrompt(); sp != "" {
		req.SystemInstruction = &apiContent{Parts: []apiPart{{Text: sp}}}
	}

	// Results written by other producers may lack Name; recover it from the call.
	callNames := map[string]string{}
	h.Each(func(_ int, m chathistory.Message) bool {
		for _, fc := range m.FunctionCalls() {
			callNames[fc.ID] = fc.Name
		}
		return true
	})

	h.Each(func(_ int, m chathistory.Message) bool {
		if m.Role != chathistory.System {
			req.Contents = appendContent(req.Contents, m, callNames)
		}
		return true
	})

	return req
}

// appendContent merges consecutive parts of the same role; Gemini requires
// user/model alternation.
func appendContent(contents []apiContent, m chathistory.Message, callNames map[string]string) []apiContent {
	role := "user"
	if m.Role == chathistory.Assistant {
		role = "model"
	}

	for _, p := range m.Parts {
		part, ok := toPart(p, callNames)
		if !ok {
			continue
		}

		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, part)
			continue
		}

		contents = append(contents, apiContent{Role: role, Parts: []apiPart{part}})
	}

	return contents
}

func toPart(p chathistory.Part, callNames map[string]string) (apiPart, bool) {
	switch v := p.(type) {
	case chathistory.Text:
		return apiPart{Text: v.Text}, true
	case chathistory.FunctionCall:
		args := json.RawMessage(v.Arguments)
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		return apiPart{
			FunctionCall:     &apiFunctionCall{Name: v.Name, Args: args},
			ThoughtSignature: v.Metadata[thoughtSignatureKey],
		}, true
	case chathistory.FunctionResult:
		name := v.Name
		if name == "" {
			name = callNames[v.CallID]
		}
		if name == "" {
			// Orphaned result; the call was dropped from history.
			return apiPart{}, false
		}
		return apiPart{
			FunctionResponse: &apiFunctionResp{Name: name, Response: wrapResult(v.Content)},
		}, true
	}
	return apiPart{}, false
}

// wrapResult turns function output into the {"result": ...} object Gemini
// expects, embedding valid JSON as-is and quoting anything else.
func wrapResult(content string) json.RawMessage {
	if content != "" && json.Valid([]byte(content)) {
		return json.RawMessage(`{"result":` + content + `}`)
	}
	b, _ := json.Marshal(map[string]string{"result": content})
	return b
}

// sanitizeSchema strips JSON Schema keywords Gemini rejects ($schema,
// additionalProperties), recursing into properties and items.
func sanitizeSchema(raw json.RawMessage) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}

	delete(obj, "$schema")
	delete(obj, "additionalProperties")

	if props, ok := obj["properties"]; ok {
		var propMap map[string]json.RawMessage
		if err := json.Unmarshal(props, &propMap); err == nil {
			for k, v := range propMap {
				propMap[k] = sanitizeSchema(v)
			}
			if b, err := json.Marshal(propMap); err == nil {
				obj["properties"] = b
			}
		}
	}

	if items, ok := obj["items"]; ok {
		obj["items"] = sanitizeSchema(items)
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return raw
	}
	return b
}

// parseCandidate converts a candidate into a message. Gemini does not issue
// call IDs, so each function call gets a generated one.
func parseCandidate(c candidate) chathistory.Message {
	var parts []chathistory.Part

	for _, p := range c.Content.Parts {
		switch {
		case p.FunctionCall != nil:
			fc := chathistory.FunctionCall{
				ID:        "call_" + uuid.NewString(),
				Name:      p.FunctionCall.Name,
				Arguments: string(p.FunctionCall.Args),
			}
			if p.ThoughtSignature != "" {
				fc.Metadata = map[string]string{thoughtSignatureKey: p.ThoughtSignature}
			}
			parts = append(parts, fc)
		case p.Text != "":
			parts = append(parts, chathistory.Text{Text: p.Text})
		}
	}

	return chathistory.NewMessage("", chathistory.Assistant, parts...)
}
