package orchestration

import (
	"sort"
	"strings"
)

// Sampling knobs shared by every role
const (
	defaultTemperature      = 0.7
	defaultTopP             = 1
	defaultPresencePenalty  = 0
	defaultFrequencyPenalty = 0
)

// The completion API rejects modelConfigs without a fulfillment prompt.
const defaultFulfillmentPrompt = "string"

// TaskContext is optional material appended to the task text
type TaskContext struct {
	Code string
}

// ModelConfigs are the sampling settings sent with every query
type ModelConfigs struct {
	FulfillmentPrompt string   `json:"fulfillmentPrompt"`
	StopSequences     []string `json:"stopSequences"`
	Temperature       float64  `json:"temperature"`
	TopP              float64  `json:"topP"`
	PresencePenalty   float64  `json:"presencePenalty"`
	FrequencyPenalty  float64  `json:"frequencyPenalty"`
}

// Payload is the body posted to the completion service for one role
type Payload struct {
	Query           string       `json:"query"`
	EndpointID      string       `json:"endpointId"`
	ResponseMode    string       `json:"responseMode"`
	ReasoningMode   string       `json:"reasoningMode"`
	AgentIDs        []string     `json:"agentIds"`
	OnlyFulfillment string       `json:"onlyFulfillment"`
	ModelConfigs    ModelConfigs `json:"modelConfigs"`
}

// Routing selects the completion endpoint per role
type Routing struct {
	DefaultEndpointID string
	// RoleEndpoints overrides the default; keys are matched case-insensitively
	RoleEndpoints map[string]string
}

// EndpointFor returns the endpoint identifier role is routed to
func (r Routing) EndpointFor(role Role) string {
	for k, v := range r.RoleEndpoints {
		if v != "" && strings.EqualFold(k, role.String()) {
			return v
		}
	}
	return r.DefaultEndpointID
}

// UnknownRoles returns the override keys that name no known role, sorted
func (r Routing) UnknownRoles() []string {
	var unknown []string
	for k := range r.RoleEndpoints {
		known := false
		for _, role := range Roles {
			if strings.EqualFold(k, role.String()) {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// BuildPayload composes the outbound body for role
func BuildPayload(role Role, taskText string, tc TaskContext, routing Routing) Payload {
	return Payload{
		Query:           composeQuery(InstructionFor(role), taskText, tc.Code),
		EndpointID:      routing.EndpointFor(role),
		ResponseMode:    "sync",
		ReasoningMode:   "low",
		AgentIDs:        []string{},
		OnlyFulfillment: "false",
		ModelConfigs: ModelConfigs{
			FulfillmentPrompt: defaultFulfillmentPrompt,
			StopSequences:     []string{},
			Temperature:       defaultTemperature,
			TopP:              defaultTopP,
			PresencePenalty:   defaultPresencePenalty,
			FrequencyPenalty:  defaultFrequencyPenalty,
		},
	}
}

func composeQuery(instruction, taskText, code string) string {
	var b strings.Builder
	if instruction != "" {
		b.WriteString(instruction)
		b.WriteString("\n\n")
	}
	b.WriteString("Task:\n")
	b.WriteString(taskText)
	if code != "" {
		b.WriteString("\n\nContext Code:\n")
		b.WriteString(code)
	}
	return b.String()
}
