// Package agent provides the agentic loop that connects the LLM to tools.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"leadgen/tools"
)

const (
	defaultMaxTurns = 25
	requestTimeout  = 300 * time.Second // a turn can include a long tool-heavy answer
)

// Agent handles conversations with the LLM and executes tool calls.
type Agent struct {
	model       string
	url         string
	apiKey      string
	temperature float64
	maxTurns    int
	registry    *tools.Registry
	client      *http.Client
	log         zerolog.Logger
}

// Options tunes an Agent. Zero values select defaults.
type Options struct {
	APIKey      string
	Temperature float64
	MaxTurns    int
	Logger      zerolog.Logger
	HTTPClient  *http.Client
}

// Message represents a chat message in the conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and arguments.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Result is the outcome of one run.
type Result struct {
	// Content is the model's final answer.
	Content string
	// ToolCalls lists the names of the tools executed, in call order.
	ToolCalls []string
	// Turns is the number of model requests made.
	Turns int
}

// Invoked reports whether the named tool ran at least once.
func (r *Result) Invoked(name string) bool {
	for _, n := range r.ToolCalls {
		if n == name {
			return true
		}
	}
	return false
}

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Tools    []map[string]any `json:"tools,omitempty"`
	Stream   bool             `json:"stream"`
	Options  map[string]any   `json:"options,omitempty"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

// New creates a new Agent with the given model, URL, and tool registry.
func New(model, url string, registry *tools.Registry, opts Options) *Agent {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &Agent{
		model:       model,
		url:         url,
		apiKey:      opts.APIKey,
		temperature: opts.Temperature,
		maxTurns:    maxTurns,
		registry:    registry,
		client:      client,
		log:         opts.Logger.With().Str("component", "agent").Logger(),
	}
}

// Model returns the model name the agent talks to.
func (a *Agent) Model() string {
	return a.model
}

// Run sends the system prompt and user message, then executes tool calls
// until the model answers without one or the turn limit is reached.
func (a *Agent) Run(ctx context.Context, systemPrompt, userMessage string) (*Result, error) {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}
	result := &Result{}

	for i := 0; i < a.maxTurns; i++ {
		resp, err := a.sendRequest(ctx, messages)
		result.Turns++
		if err != nil {
			return result, err
		}

		// If no tool calls, check if model output XML-style tool call as text
		if len(resp.Message.ToolCalls) == 0 {
			if toolName, args, ok := parseXMLToolCall(resp.Message.Content); ok {
				if _, exists := a.registry.Get(toolName); exists {
					a.log.Info().Str("tool", toolName).Msg("executing parsed tool")
					output := a.execute(ctx, toolName, args)
					result.ToolCalls = append(result.ToolCalls, toolName)

					messages = append(messages, Message{Role: "assistant", Content: resp.Message.Content})
					messages = append(messages, Message{Role: "tool", Content: output, ToolCallID: "parsed", ToolName: toolName})
					continue
				}
			}

			result.Content = cleanResponse(resp.Message.Content)
			return result, nil
		}

		// Tool results must reference an ID present in the assistant message.
		for i := range resp.Message.ToolCalls {
			if resp.Message.ToolCalls[i].ID == "" {
				resp.Message.ToolCalls[i].ID = uuid.NewString()
			}
		}
		messages = append(messages, resp.Message)

		for _, tc := range resp.Message.ToolCalls {
			output := a.execute(ctx, tc.Function.Name, tc.Function.Arguments)
			result.ToolCalls = append(result.ToolCalls, tc.Function.Name)

			messages = append(messages, Message{
				Role:       "tool",
				Content:    output,
				ToolCallID: tc.ID,
				ToolName:   tc.Function.Name,
			})
		}
	}

	return result, fmt.Errorf("exceeded maximum turns (%d)", a.maxTurns)
}

// execute runs one tool. Failures are reported to the model as text so it
// can recover; they do not end the run.
func (a *Agent) execute(ctx context.Context, name string, args json.RawMessage) string {
	start := time.Now()
	output, err := a.registry.Execute(ctx, name, args)
	if err != nil {
		a.log.Warn().Err(err).Str("tool", name).Dur("took", time.Since(start)).Msg("tool failed")
		return fmt.Sprintf("Error: %v", err)
	}
	a.log.Info().Str("tool", name).Int("output_len", len(output)).Dur("took", time.Since(start)).Msg("tool done")
	return output
}

func (a *Agent) sendRequest(ctx context.Context, messages []Message) (*chatResponse, error) {
	reqBody := chatRequest{
		Model:    a.model,
		Messages: messages,
		Tools:    a.registry.ToOllamaFormat(),
		Stream:   false,
		Options:  map[string]any{"temperature": a.temperature},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	a.log.Debug().
		Str("role", chatResp.Message.Role).
		Int("content_len", len(chatResp.Message.Content)).
		Int("tool_calls", len(chatResp.Message.ToolCalls)).
		Msg("response")
	if content := chatResp.Message.Content; content != "" {
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		a.log.Debug().Str("content", content).Msg("response content")
	}
	for i, tc := range chatResp.Message.ToolCalls {
		a.log.Debug().Int("index", i).Str("tool", tc.Function.Name).RawJSON("args", rawOrNull(tc.Function.Arguments)).Msg("tool call")
	}

	return &chatResp, nil
}

func rawOrNull(raw json.RawMessage) []byte {
	if len(raw) == 0 || !json.Valid(raw) {
		return []byte("null")
	}
	return raw
}

// parseXMLToolCall attempts to parse XML-style tool calls that some models output as text.
// Returns the tool name, the arguments as a JSON object, and whether parsing succeeded.
func parseXMLToolCall(content string) (string, json.RawMessage, bool) {
	start := strings.Index(content, "<function=")
	if start == -1 {
		return "", nil, false
	}

	nameStart := start + len("<function=")
	nameEnd := strings.Index(content[nameStart:], ">")
	if nameEnd == -1 {
		return "", nil, false
	}
	toolName := content[nameStart : nameStart+nameEnd]

	args := make(map[string]string)
	paramPattern := "<parameter="
	remaining := content[nameStart+nameEnd:]

	for {
		paramStart := strings.Index(remaining, paramPattern)
		if paramStart == -1 {
			break
		}

		nameStart := paramStart + len(paramPattern)
		nameEnd := strings.Index(remaining[nameStart:], ">")
		if nameEnd == -1 {
			break
		}
		paramName := remaining[nameStart : nameStart+nameEnd]

		valueStart := nameStart + nameEnd + 1
		valueEnd := strings.Index(remaining[valueStart:], "</parameter>")
		if valueEnd == -1 {
			break
		}
		args[paramName] = strings.TrimSpace(remaining[valueStart : valueStart+valueEnd])
		remaining = remaining[valueStart+valueEnd+len("</parameter>"):]
	}

	if len(args) == 0 {
		return "", nil, false
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return "", nil, false
	}
	return toolName, raw, true
}

// cleanResponse removes any tool call syntax that the model incorrectly included in its text response
func cleanResponse(content string) string {
	if idx := strings.Index(content, "<function="); idx > 0 {
		before := strings.TrimSpace(content[:idx])
		if before != "" {
			return before
		}
	}

	if strings.Contains(content, "<function=") {
		return "The model emitted a tool call that could not be executed."
	}

	return content
}
