package validation

import (
	"regexp"
	"strings"
)

var (
	reScriptBlock   = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	reJavascriptURL = regexp.MustCompile(`(?i)javascript:`)
	reEventHandler  = regexp.MustCompile(`(?i)on\w+\s*=`)
	reAngleBracket  = regexp.MustCompile(`[<>]`)
)

// Sanitize strips markup that could execute when a value is rendered back to users.
// Steps run in a fixed order: trim, script blocks, javascript: prefixes, inline
// handlers, then any remaining angle brackets. Output encoding at render time is
// still required.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = reScriptBlock.ReplaceAllString(s, "")
	s = reJavascriptURL.ReplaceAllString(s, "")
	s = reEventHandler.ReplaceAllString(s, "")
	return reAngleBracket.ReplaceAllString(s, "")
}
