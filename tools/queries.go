package tools

import "fmt"

// leadKeywords are appended to a company name to look for its IT footprint.
var leadKeywords = []string{"IT Services", "managed IT", "technology solutions"}

// BuildQueries returns one search query per lead keyword, in keyword order.
func BuildQueries(companyName string) []string {
	queries := make([]string, 0, len(leadKeywords))
	for _, keyword := range leadKeywords {
		queries = append(queries, fmt.Sprintf("%s %s", companyName, keyword))
	}
	return queries
}
