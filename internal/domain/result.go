package domain

import (
	"encoding/json"
	"fmt"
)

// ToolResultKind discriminates the two possible tool result payloads.
type ToolResultKind string

const (
	ToolResultText  ToolResultKind = "text"
	ToolResultVideo ToolResultKind = "video"
)

// ToolResult is the tagged union returned by every user-facing tool
// operation: either a textual answer or a relative path to an extracted
// clip. Construct values with TextResult or VideoResult only.
type ToolResult struct {
	kind    ToolResultKind
	content string
}

// TextResult returns a ToolResult carrying a textual answer or message.
func TextResult(content string) ToolResult {
	return ToolResult{kind: ToolResultText, content: content}
}

// VideoResult returns a ToolResult carrying a clip path relative to the
// shared media root.
func VideoResult(relativePath string) ToolResult {
	return ToolResult{kind: ToolResultVideo, content: relativePath}
}

// Kind returns the result discriminator.
func (r ToolResult) Kind() ToolResultKind {
	return r.kind
}

// Content returns the result payload.
func (r ToolResult) Content() string {
	return r.content
}

// IsVideo reports whether the result carries a clip path.
func (r ToolResult) IsVideo() bool {
	return r.kind == ToolResultVideo
}

// MarshalJSON encodes the result as {"type": ..., "content": ...}.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}{Type: string(r.kind), Content: r.content})
}

// UnmarshalJSON decodes {"type": ..., "content": ...} into the union,
// rejecting unknown discriminators.
func (r *ToolResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch ToolResultKind(raw.Type) {
	case ToolResultText, ToolResultVideo:
		r.kind = ToolResultKind(raw.Type)
		r.content = raw.Content
		return nil
	default:
		return fmt.Errorf("unknown tool result type: %q", raw.Type)
	}
}
