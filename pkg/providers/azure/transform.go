package azure

import (
	"encoding/json"

	"lcm-hq/intellimap/pkg/providers"
)

// InputPrefix precedes the serialized record in the user message.
const InputPrefix = "InputDictionary:\n"

// chatRequest is the Azure chat completions request body.
type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatUsage is the token accounting block of a success envelope. The
// choices are read by the response normalizer, not here.
type chatUsage struct {
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// decodeUsage reads token usage from body. A body without a usage block, or
// one that is not JSON, reports zero usage.
func decodeUsage(body []byte) providers.Usage {
	var env chatUsage
	if err := json.Unmarshal(body, &env); err != nil {
		return providers.Usage{}
	}
	return providers.Usage{
		PromptTokens:     env.Usage.PromptTokens,
		CompletionTokens: env.Usage.CompletionTokens,
		TotalTokens:      env.Usage.TotalTokens,
	}
}

// NewMappingRequest builds the two message request used for field mapping.
func NewMappingRequest(systemPrompt, data string, maxTokens int, temperature float64) *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: systemPrompt},
			{Role: providers.RoleUser, Content: InputPrefix + data},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

func transformRequest(req *providers.CompletionRequest) *chatRequest {
	out := &chatRequest{
		Messages:    make([]chatMessage, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for i, msg := range req.Messages {
		out.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}
	return out
}
