package render

import (
	"html"
	"strings"
	"unicode/utf8"
)

const (
	// CaptionLimit and MessageLimit are the transport's payload caps in
	// characters.
	CaptionLimit = 1024
	MessageLimit = 4096

	ellipsis    = "..."
	buttonLimit = 35
)

// Escape makes catalog text safe to interpolate into HTML markup.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Truncate shortens plain text to at most limit runes, the last three being
// the ellipsis.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return ellipsis[:max(limit, 0)]
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:limit-len(ellipsis)]), isSpace) + ellipsis
}

func isSpace(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }

// FitHTML shortens rendered markup to limit runes. The cut never lands inside
// a tag or entity and tags left open by the cut are closed after the
// ellipsis.
func FitHTML(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	cut := limit - len(ellipsis)
	for cut > 0 {
		head := trimPartial(string(r[:cut]))
		out := head + ellipsis + closeTags(head)
		n := utf8.RuneCountInString(out)
		if n <= limit {
			return out
		}
		cut -= n - limit
	}
	return ellipsis
}

// trimPartial drops a trailing unterminated tag or entity.
func trimPartial(s string) string {
	if i := strings.LastIndexByte(s, '<'); i >= 0 && !strings.Contains(s[i:], ">") {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '&'); i >= 0 && !strings.Contains(s[i:], ";") {
		s = s[:i]
	}
	return s
}

// closeTags returns the closing tags for elements still open at the end of s.
func closeTags(s string) string {
	var open []string
	for {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			break
		}
		j := strings.IndexByte(s[i:], '>')
		if j < 0 {
			break
		}
		tag := s[i+1 : i+j]
		s = s[i+j+1:]

		if strings.HasPrefix(tag, "/") {
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
			continue
		}
		name, _, _ := strings.Cut(tag, " ")
		open = append(open, name)
	}

	var b strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteString("</" + open[i] + ">")
	}
	return b.String()
}

// label fits a title on a button. Button labels are not markup.
func label(s string) string {
	return Truncate(s, buttonLimit)
}
