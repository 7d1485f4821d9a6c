package store

import "regexp"

// queryTokenPattern is the query tokenizer required by §4.5.1: split on
// runs of ASCII word characters. Markdown prose has no camelCase/snake_case
// identifiers worth splitting further, unlike the teacher's code index.
var queryTokenPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// TokenizeQuery splits a search query into FTS match terms.
func TokenizeQuery(query string) []string {
	return queryTokenPattern.FindAllString(query, -1)
}
