package leads

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLeads(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{
			"company":          fmt.Sprintf("Company %d", i),
			"contact_info":     "604-555-0100, 123 Main St",
			"email":            fmt.Sprintf("info@company%d.example", i),
			"summary":          "Growing dental office with no in-house IT.",
			"outreach_message": "Hi there, we help practices like yours...",
			"tools_used":       []string{"search_and_scrape", "search_web"},
		})
	}
	return out
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestDecodeFiveLeads(t *testing.T) {
	text := marshal(t, map[string]any{"leads": sampleLeads(5)})

	list, err := Decode(text)
	require.NoError(t, err)
	require.Equal(t, 5, list.Len())
	assert.Equal(t, "Company 3", list.Leads[3].Company)
	assert.Equal(t, []string{"search_and_scrape", "search_web"}, list.Leads[0].ToolsUsed)
}

func TestDecodeMissingFieldFailsEntirely(t *testing.T) {
	leads := sampleLeads(5)
	delete(leads[2], "email")
	text := marshal(t, map[string]any{"leads": leads})

	list, err := Decode(text)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
	assert.Zero(t, list.Len())
}

func TestDecodeWrongTypes(t *testing.T) {
	cases := map[string]func(l []map[string]any){
		"tools_used string": func(l []map[string]any) { l[0]["tools_used"] = "search_web" },
		"tools_used ints":   func(l []map[string]any) { l[0]["tools_used"] = []int{1, 2} },
		"company number":    func(l []map[string]any) { l[1]["company"] = 42 },
		"summary null":      func(l []map[string]any) { l[4]["summary"] = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			leads := sampleLeads(5)
			mutate(leads)
			list, err := Decode(marshal(t, map[string]any{"leads": leads}))
			assert.Error(t, err)
			assert.Zero(t, list.Len())
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, text := range []string{
		"",
		"not json",
		`{"leads": [`,
		`[]`,
		`{"companies": []}`,
		`{"leads": null}`,
	} {
		list, err := Decode(text)
		assert.Error(t, err, text)
		assert.Zero(t, list.Len(), text)
	}
}

func TestDecodeCodeFence(t *testing.T) {
	body := marshal(t, map[string]any{"leads": sampleLeads(2)})

	for _, text := range []string{
		"```json\n" + body + "\n```",
		"```\n" + body + "\n```",
		"  ```json\n" + body + "\n```  \n",
	} {
		list, err := Decode(text)
		require.NoError(t, err, text)
		assert.Equal(t, 2, list.Len())
	}
}

func TestDecodeRejectsNarration(t *testing.T) {
	body := marshal(t, map[string]any{"leads": sampleLeads(5)})
	_, err := Decode(body + "\n\nI ran the save_to_txt tool.")
	assert.Error(t, err)
}

func TestFormatInstructionsEmbedSchema(t *testing.T) {
	text := FormatInstructions()
	assert.Contains(t, text, "JSON schema")
	for _, field := range []string{"company", "contact_info", "email", "summary", "outreach_message", "tools_used", "leads"} {
		assert.Contains(t, text, `"`+field+`"`)
	}
	assert.False(t, strings.Contains(text, "\n    "), "schema is compacted")
}

func TestYAML(t *testing.T) {
	list := LeadList{Leads: []Lead{{Company: "Acme", Email: "a@acme.example", ToolsUsed: []string{"search_web"}}}}
	out, err := list.YAML()
	require.NoError(t, err)
	assert.Contains(t, out, "company: Acme")
	assert.Contains(t, out, "- search_web")
}
