package alt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodySlice(t *testing.T) {
	doc := "<html><head><title>x</title></head><BODY class=\"a\">\n<p>one</p></body><!-- tail --></body></html>"
	body, off := BodySlice(doc)
	assert.Equal(t, "<BODY class=\"a\">\n<p>one</p></body><!-- tail --></body>", body)
	assert.Equal(t, 35, off)
	assert.Equal(t, body, doc[off:off+len(body)])

	frag := `<p><img src="a.jpg"></p>`
	body, off = BodySlice(frag)
	assert.Equal(t, frag, body)
	assert.Zero(t, off)
}

func TestFindImagesIgnoresHead(t *testing.T) {
	doc := `<html><head><img src="head.png"></head><body><img src="a.jpg"><img alt="x"></body></html>`
	got := FindImages(doc)
	require.Len(t, got, 1)
	assert.Equal(t, `<img src="a.jpg">`, got[0].Tag)
	assert.Equal(t, `src="a.jpg"`, got[0].Attrs)
	assert.Equal(t, got[0].Tag, doc[got[0].Offset:got[0].Offset+len(got[0].Tag)])
}

func TestFindImagesShapes(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want []string
	}{
		{"self closing", `<img src="a.jpg" />`, []string{`<img src="a.jpg" />`}},
		{"unclosed", `<img src='a.jpg'><p>`, []string{`<img src='a.jpg'>`}},
		{"upper case", `<IMG SRC="A.JPG">`, []string{`<IMG SRC="A.JPG">`}},
		{"multiline", "<img\n  class=\"x\"\n  src=\"a.jpg\">", []string{"<img\n  class=\"x\"\n  src=\"a.jpg\">"}},
		{"no src", `<img alt="x"><img data-x="1">`, nil},
		{"empty src", `<img src="">`, nil},
		{"unquoted src", `<img src=a.jpg>`, nil},
		{"not img", `<imgx src="a.jpg"><image src="b.jpg">`, nil},
		{"ordered", `<img src="1"><b></b><img src="2">`, []string{`<img src="1">`, `<img src="2">`}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var tags []string
			for _, m := range FindImages(tc.doc) {
				tags = append(tags, m.Tag)
			}
			assert.Equal(t, tc.want, tags)
		})
	}
}
