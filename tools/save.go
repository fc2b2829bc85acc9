package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

const (
	saveHeader      = "--- Leads Output ---"
	timestampLayout = "2006-01-02 15:04:05"
)

// SaveTool appends timestamped text blocks to an output file. Existing
// content is never rewritten.
type SaveTool struct {
	defaultFile string
	now         func() time.Time
	log         zerolog.Logger
}

// NewSaveTool creates the save_to_txt tool. defaultFile is used when the
// caller does not name a file.
func NewSaveTool(defaultFile string, logger zerolog.Logger) *SaveTool {
	return &SaveTool{
		defaultFile: defaultFile,
		now:         time.Now,
		log:         logger.With().Str("component", "save").Logger(),
	}
}

func (s *SaveTool) Name() string {
	return "save_to_txt"
}

func (s *SaveTool) Description() string {
	return "Saves structured data to a text file. Each call appends a timestamped block; earlier output is kept."
}

func (s *SaveTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"data": map[string]any{
				"type":        "string",
				"description": "The text to save",
			},
			"filename": map[string]any{
				"type":        "string",
				"description": fmt.Sprintf("Output file name (default %s)", s.defaultFile),
			},
		},
		"required": []string{"data"},
	}
}

func (s *SaveTool) Execute(_ context.Context, raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	data := args.Get("data")
	if !data.Exists() {
		return "", fmt.Errorf("data is required")
	}
	// Models sometimes pass the lead list as a JSON value rather than a string.
	text := data.String()
	if data.IsObject() || data.IsArray() {
		text = data.Raw
	}
	return s.Save(text, args.Get("filename").String())
}

// Save appends one block holding data to filename, or to the default file
// when filename is empty.
func (s *SaveTool) Save(data, filename string) (string, error) {
	if filename == "" {
		filename = s.defaultFile
	}

	block := fmt.Sprintf("%s\nTimestamp: %s\n\n%s\n\n", saveHeader, s.now().Format(timestampLayout), data)

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filename, err)
	}
	defer f.Close()

	// The lock is taken on the output file itself so no sidecar is left behind.
	lock := flock.New(filename)
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("locking %s: %w", filename, err)
	}
	defer lock.Unlock()

	if _, err := f.WriteString(block); err != nil {
		return "", fmt.Errorf("writing %s: %w", filename, err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing %s: %w", filename, err)
	}

	s.log.Info().Str("file", filename).Int("bytes", len(block)).Msg("saved output")
	return fmt.Sprintf("Data successfully saved to %s", filename), nil
}
