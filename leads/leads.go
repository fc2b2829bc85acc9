// Package leads defines the structured report the agent must produce and
// decodes the agent's final answer into it.
package leads

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Lead is one qualified business prospect.
type Lead struct {
	Company         string   `json:"company" yaml:"company"`
	ContactInfo     string   `json:"contact_info" yaml:"contact_info"`
	Email           string   `json:"email" yaml:"email"`
	Summary         string   `json:"summary" yaml:"summary"`
	OutreachMessage string   `json:"outreach_message" yaml:"outreach_message"`
	ToolsUsed       []string `json:"tools_used" yaml:"tools_used"`
}

// LeadList is the top-level container the agent answers with.
type LeadList struct {
	Leads []Lead `json:"leads" yaml:"leads"`
}

// Schema is the JSON Schema for LeadList. It is shown to the model and used
// to validate its answer.
const Schema = `{
  "title": "LeadList",
  "type": "object",
  "properties": {
    "leads": {
      "type": "array",
      "items": {
        "title": "Lead",
        "type": "object",
        "properties": {
          "company": {"type": "string"},
          "contact_info": {"type": "string"},
          "email": {"type": "string"},
          "summary": {"type": "string"},
          "outreach_message": {"type": "string"},
          "tools_used": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["company", "contact_info", "email", "summary", "outreach_message", "tools_used"]
      }
    }
  },
  "required": ["leads"]
}`

var schemaLoader = gojsonschema.NewStringLoader(Schema)

// FormatInstructions describes the expected answer format in prose, with the
// schema embedded.
func FormatInstructions() string {
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(Schema)); err != nil {
		panic(fmt.Sprintf("leads: invalid schema: %v", err))
	}
	return `The output should be formatted as a JSON instance that conforms to the JSON schema below.

As an example, for the schema {"properties": {"foo": {"title": "Foo", "description": "a list of strings", "type": "array", "items": {"type": "string"}}}, "required": ["foo"]}
the object {"foo": ["bar", "baz"]} is a well-formatted instance of the schema. The object {"properties": {"foo": ["bar", "baz"]}} is not well-formatted.

Here is the output schema:
` + "```\n" + compact.String() + "\n```"
}

// Decode parses the agent's final answer. The text must be the JSON
// document itself, optionally wrapped in a single Markdown code fence.
// Decoding is all or nothing: on any error no leads are returned.
func Decode(text string) (LeadList, error) {
	body := stripCodeFence(text)
	if body == "" {
		return LeadList{}, errors.New("empty output")
	}
	if !json.Valid([]byte(body)) {
		return LeadList{}, errors.New("output is not valid JSON")
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(body))
	if err != nil {
		return LeadList{}, fmt.Errorf("validating output: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return LeadList{}, fmt.Errorf("output does not match schema: %s", strings.Join(msgs, "; "))
	}

	var list LeadList
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		return LeadList{}, fmt.Errorf("decoding output: %w", err)
	}
	return list, nil
}

// stripCodeFence removes one ``` or ```json fence around the whole text.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 && !strings.ContainsAny(inner[:nl], "{[") {
		inner = inner[nl+1:]
	}
	return strings.TrimSpace(inner)
}

// YAML renders the list for display.
func (l LeadList) YAML() (string, error) {
	out, err := yaml.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("rendering leads: %w", err)
	}
	return string(out), nil
}

// Len returns the number of leads.
func (l LeadList) Len() int {
	return len(l.Leads)
}
