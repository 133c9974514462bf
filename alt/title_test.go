package alt

import "testing"

func TestTitleText(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in, want string
	}{
		{"Report 2024", "Report 2024"},
		{"  padded  ", "padded"},
		{"A&B", "A&amp;B"},
		{`Say "hi"`, "Say &quot;hi&quot;"},
		{"It's", "It&#039;s"},
		{"<b>Bold</b> news", "Bold news"},
		{"a <!-- note --> b", "a  b"},
		{"x &amp; y", "x &amp;amp; y"},
		{"1 > 0", "1 &gt; 0"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := TitleText(tc.in); got != tc.want {
			t.Fatalf("TitleText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
