// Package core provides the template helpers shared by every page.
package core

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/besf/portal/internal/http/uiutil"
)

// Deps holds dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"friendlyTime": friendlyTime,
		"relativeTime": relativeTime,
		"timeTag":      timeTag,
		"add":          func(a, b int) int { return a + b },
		"formatNumber": formatNumber,
		"truncateText": TruncateText,
		"deref":        deref,
		"titleCase":    titleCase,
		"hasKey":       hasKey,
	}

	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; values were escaped during ExecuteTemplate.
		return template.HTML(buf.String()), nil
	}
	return funcs
}

func toTime(ts any) time.Time {
	switch v := ts.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}

func friendlyTime(ts any) string {
	t0 := toTime(ts)
	if t0.IsZero() {
		return ""
	}
	return uiutil.FormatFriendlyDateTime(t0)
}

func relativeTime(ts any) string {
	t0 := toTime(ts)
	if t0.IsZero() {
		return ""
	}
	return uiutil.FriendlyRelativeTime(t0)
}

func timeTag(ts any) template.HTML {
	t0 := toTime(ts)
	if t0.IsZero() {
		return ""
	}
	friendly := uiutil.FormatFriendlyDateTime(t0)
	dt := t0.UTC().Format(time.RFC3339)
	title := t0.Local().Format(time.RFC1123)
	// #nosec G203 - constructed from trusted, escaped values only
	return template.HTML(fmt.Sprintf(
		"<time datetime=\"%s\" title=\"%s\">%s</time>",
		dt,
		template.HTMLEscapeString(title),
		template.HTMLEscapeString(friendly),
	))
}

// formatNumber formats an integer with comma separators for thousands.
func formatNumber(v any) string {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	default:
		return fmt.Sprint(v)
	}

	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) > 3 {
		var b strings.Builder
		lead := len(s) % 3
		if lead == 0 {
			lead = 3
		}
		b.WriteString(s[:lead])
		for i := lead; i < len(s); i += 3 {
			b.WriteByte(',')
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

// TruncateText truncates a string to a maximum number of runes (not bytes), adding an
// ellipsis when truncated.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 1 {
		return string(runes[:maxLen-1]) + "…"
	}
	return string(runes[:1])
}

// deref renders an optional string column.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// titleCase turns "intermediate" into "Intermediate" for skill levels and statuses.
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// hasKey reports whether a field-error map has an entry for key.
func hasKey(m map[string]string, key string) bool {
	_, ok := m[key]
	return ok
}
