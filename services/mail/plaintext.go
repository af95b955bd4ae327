package mail

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	spaceRun   = regexp.MustCompile(`[ \t]+`)
)

// blockTags end a line in the text rendering
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "h1": true, "h2": true, "h3": true, "li": true, "tr": true,
}

// HTMLToText derives the text/plain alternative of an HTML body.
// Style and script contents are dropped; links keep their target in brackets.
func HTMLToText(body string) string {
	z := html.NewTokenizer(strings.NewReader(body))

	var (
		b         strings.Builder
		skip      int
		href      string
		linkStart int
	)

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tidy(b.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			switch {
			case tag == "style" || tag == "script" || tag == "head":
				if tt == html.StartTagToken {
					skip++
				}
			case tag == "a" && hasAttr:
				for {
					key, val, more := z.TagAttr()
					if string(key) == "href" {
						href = string(val)
					}
					if !more {
						break
					}
				}
				linkStart = b.Len()
			case blockTags[tag]:
				b.WriteString("\n")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "style" || tag == "script" || tag == "head":
				if skip > 0 {
					skip--
				}
			case tag == "a":
				if href != "" && strings.TrimSpace(b.String()[linkStart:]) != href {
					b.WriteString(" [" + href + "]")
				}
				href = ""
			case blockTags[tag]:
				b.WriteString("\n")
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			b.WriteString(spaceRun.ReplaceAllString(strings.ReplaceAll(string(z.Text()), "\n", " "), " "))
		}
	}
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
