package extract

import (
	"strings"

	"github.com/alexmaslar/riff-plugin-editorial/internal/scan"
	"github.com/alexmaslar/riff-plugin-editorial/internal/truncate"
)

var cdataReplacer = strings.NewReplacer("<![CDATA[", "", "]]>", "")

var breakReplacer = strings.NewReplacer(
	"</p>", "\n\n",
	"<br />", "\n",
	"<br/>", "\n",
	"<br>", "\n",
)

// CleanReviewBody turns a JSON-LD reviewBody into plain prose: CDATA markers
// removed, entities decoded, tags stripped, whitespace collapsed and the
// result truncated.
func CleanReviewBody(body string) (string, bool) {
	text := cdataReplacer.Replace(body)
	text = scan.DecodeEntities(text)
	text = scan.CollapseSpace(scan.StripTags(text))
	if text == "" {
		return "", false
	}
	return truncate.Excerpt(text), true
}

// ArticleBody extracts the review prose from the container whose opening tag
// contains marker, keeping paragraph breaks.
func ArticleBody(html, marker string) (string, bool) {
	raw, ok := scan.BalancedDiv(html, marker)
	if !ok {
		return "", false
	}
	text := scan.StripTags(breakReplacer.Replace(raw))
	return truncate.Paragraphs(scan.DecodeEntities(text))
}

// PlainText strips tags from an HTML fragment, decodes entities and
// truncates the trimmed result.
func PlainText(fragment string) (string, bool) {
	text := strings.TrimSpace(scan.DecodeEntities(scan.StripTags(fragment)))
	if text == "" {
		return "", false
	}
	return truncate.Excerpt(text), true
}
