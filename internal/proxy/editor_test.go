package proxy

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoalt/internal/config"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestEditorDetector(t *testing.T) {
	d, err := newEditorDetector(config.DefaultEditorSelectors)
	require.NoError(t, err)

	cases := []struct {
		html string
		want bool
	}{
		{`<body><textarea class="mce_editable"></textarea></body>`, true},
		{`<body><div class="tox tox-tinymce"></div></body>`, true},
		{`<body><div data-editor="codemirror"></div></body>`, true},
		{`<body><textarea name="comment"></textarea></body>`, false},
		{`<body><p class="cke-note">text</p></body>`, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, d.Active(parseDoc(t, tc.html)), tc.html)
	}
}

func TestEditorDetectorEmpty(t *testing.T) {
	d, err := newEditorDetector([]string{" ", ""})
	require.NoError(t, err)
	assert.False(t, d.Active(parseDoc(t, `<textarea class="mce_editable"></textarea>`)))
	assert.False(t, d.Active(nil))

	_, err = newEditorDetector([]string{"a[href"})
	assert.Error(t, err)
}
