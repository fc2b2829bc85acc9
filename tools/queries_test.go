package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueries(t *testing.T) {
	assert.Equal(t, []string{
		"Acme Corp IT Services",
		"Acme Corp managed IT",
		"Acme Corp technology solutions",
	}, BuildQueries("Acme Corp"))
}

func TestBuildQueriesShape(t *testing.T) {
	for _, name := range []string{"", "Joe's Pizza", "  spaced  ", "Café Ümlaut"} {
		queries := BuildQueries(name)
		if assert.Len(t, queries, 3, name) {
			for i, q := range queries {
				assert.True(t, strings.HasPrefix(q, name+" "), q)
				assert.Equal(t, leadKeywords[i], strings.TrimPrefix(q, name+" "))
			}
		}
	}
}
