// Package tools contains MCP tool implementations for dredger.
package tools

// MIME type constant.
const MimeJSON = "application/json"

const (
	defaultFindLimit = 50
	maxFindLimit     = 500
)

// orDefault returns values, or fallback when values is empty.
func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
