package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// parseArgs reads tool-call arguments. Ollama sends a JSON object, while
// OpenAI-style endpoints send the object encoded as a JSON string; both are
// accepted.
func parseArgs(raw json.RawMessage) (gjson.Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return gjson.Parse("{}"), nil
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("arguments are not valid JSON")
	}

	args := gjson.ParseBytes(raw)
	if args.Type == gjson.String {
		if !gjson.Valid(args.Str) {
			return gjson.Result{}, fmt.Errorf("arguments are not valid JSON")
		}
		args = gjson.Parse(args.Str)
	}
	if !args.IsObject() {
		return gjson.Result{}, fmt.Errorf("arguments must be a JSON object")
	}
	return args, nil
}

func requiredString(args gjson.Result, key string) (string, error) {
	v := args.Get(key)
	if !v.Exists() || strings.TrimSpace(v.String()) == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v.String(), nil
}
