package models

// ChatRequest is the body of POST /chat and the first frame of /ws/chat
type ChatRequest struct {
	Stage      string   `json:"stage"`
	Query      string   `json:"query"`
	Files      []string `json:"files"`
	Code       string   `json:"code,omitempty"`
	ExpectJSON bool     `json:"expectJson,omitempty"`
}

// AgentOutput is the result of a single role invocation.
// Metadata holds either the raw upstream body or the degradation details.
type AgentOutput struct {
	AgentName      string                 `json:"agentName"`
	MarkdownOutput string                 `json:"markdownOutput"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Degraded reports whether the output was produced by local fallback
func (o AgentOutput) Degraded() bool {
	v, ok := o.Metadata[MetadataDegraded].(bool)
	return ok && v
}

// ChatResponse is the body returned by POST /chat
type ChatResponse struct {
	Status       string        `json:"status"`
	AgentOutputs []AgentOutput `json:"agentOutputs"`
}

// Metadata keys attached to AgentOutput
const (
	MetadataRawResponse = "raw_response"
	MetadataError       = "error"
	MetadataReason      = "reason"
	MetadataMock        = "mock"
	MetadataDegraded    = "degraded"
	MetadataStructured  = "structured"
	MetadataParseError  = "parseError"
)

// StreamEvent is a frame written on the /ws/chat socket
type StreamEvent struct {
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data"`
}

// Stream event types
const (
	EventTypeAgentOutput = "agent_output"
	EventTypeEnd         = "end"
	EventTypeError       = "error"
)
