// Package tools provides the tool interface and the lead generation tools
// exposed to the agent.
package tools

import (
	"context"
	"encoding/json"
)

// Tool defines the interface that all tools must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// Parameters returns the JSON schema for the tool's parameters.
	Parameters() map[string]any

	// Execute runs the tool with the given JSON arguments and returns the
	// text handed back to the model. The context should be used for
	// cancellation and timeouts.
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}
