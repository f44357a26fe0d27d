package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanReviewBody(t *testing.T) {
	t.Parallel()

	got, ok := CleanReviewBody("<![CDATA[<p>It&#39;s   a\n<b>triumph</b> &amp; a half.</p>]]>")
	require.True(t, ok)
	assert.Equal(t, "It's a triumph & a half.", got)

	_, ok = CleanReviewBody("<![CDATA[ <p> </p> ]]>")
	assert.False(t, ok)
}

func TestArticleBody(t *testing.T) {
	t.Parallel()

	html := `<main><div class="c--article-copy__sections">` +
		`<div class="para"><p>First  line<br>continues.</p></div>` +
		`<p>It&#39;s the <i>second</i> paragraph.</p>` +
		`</div><footer><p>Not part of it</p></footer></main>`
	got, ok := ArticleBody(html, "c--article-copy__sections")
	require.True(t, ok)
	assert.Equal(t, "First line continues.\n\nIt's the second paragraph.", got)
}

func TestArticleBodyMissingOrEmpty(t *testing.T) {
	t.Parallel()

	_, ok := ArticleBody(`<div class="other"><p>x</p></div>`, "c--article-copy__sections")
	assert.False(t, ok)

	_, ok = ArticleBody(`<div class="c--article-copy__sections"> <p></p> </div>`, "c--article-copy__sections")
	assert.False(t, ok)
}

func TestArticleBodyTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Sentence here. ", 200)
	got, ok := ArticleBody(`<div class="c--article-copy__sections"><p>`+long+`</p></div>`, "c--article-copy__sections")
	require.True(t, ok)
	assert.LessOrEqual(t, len(got), 2000)
	assert.True(t, strings.HasSuffix(got, "here."))
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	got, ok := PlainText("\n<p>Rendered &amp; <a href=\"#\">linked</a></p>\n")
	require.True(t, ok)
	assert.Equal(t, "Rendered & linked", got)

	_, ok = PlainText("<p></p>")
	assert.False(t, ok)
}
