// Package sanitize neutralises untrusted chat text before it is broadcast.
//
// Escape encodes every HTML-significant character so that no markup in the
// result can be interpreted by a renderer. It never strips content: a payload
// such as "<script>x</script>Hi" comes back as literal escaped text.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// charRef matches a well-formed character reference at the start of a string
var charRef = regexp.MustCompile(`^&(?:#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[a-zA-Z][a-zA-Z0-9]{1,31});`)

// Escape replaces & < > " ' with their entity forms. An ampersand that already
// starts a character reference is kept, which makes Escape idempotent.
func Escape(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/4)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if loc := charRef.FindStringIndex(s[i:]); loc != nil {
				b.WriteString(s[i : i+loc[1]])
				i += loc[1] - 1
				continue
			}
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#039;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// hidden elements contribute no visible text
var hidden = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"object":   true,
}

// VisibleText returns the text a browser would display if s were rendered
// as HTML: tags are removed and the bodies of script-like elements dropped.
func VisibleText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))

	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way the input is exhausted
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if hidden[string(name)] {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if hidden[string(name)] && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// IsMarkupOnly reports whether s renders to nothing but whitespace
func IsMarkupOnly(s string) bool {
	return strings.TrimSpace(VisibleText(s)) == ""
}
