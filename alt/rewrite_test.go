package alt

import (
	"path/filepath"
	"testing"
)

const testRoot = "/srv/site"

func testProber() fakeProber {
	return fakeProber{filepath.Join(testRoot, "images", "a.png"): {100, 50}}
}

func newTestRewriter(opt Options) *Rewriter {
	opt.SiteRoot = testRoot
	return NewRewriter(opt, NewSizeAnnotator(opt, testProber()))
}

func matchOf(t *testing.T, tag string) Match {
	t.Helper()
	ms := FindImages(tag)
	if len(ms) != 1 {
		t.Fatalf("FindImages(%q) found %d tags", tag, len(ms))
	}
	return ms[0]
}

func TestRewrite(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		opt     Options
		tag     string
		title   string
		want    string
		outcome Outcome
	}{
		{
			name: "alt only", opt: Options{EditImages: EditAlt},
			tag: `<img src="a.jpg">`, title: "Report 2024",
			want: `<img alt="Report 2024" src="a.jpg">`, outcome: Changed,
		},
		{
			name: "alt and title", opt: Options{EditImages: EditAltTitle},
			tag: `<img src="a.jpg" />`, title: "T",
			want: `<img alt="T" title="T" src="a.jpg" />`, outcome: Changed,
		},
		{
			name: "overwrite title", opt: Options{EditImages: EditAltTitle, OverwriteImages: true},
			tag: `<img src="a.jpg" title="Old">`, title: "A&B",
			want: `<img alt="A&amp;B" src="a.jpg" title="A&amp;B">`, outcome: Changed,
		},
		{
			name: "keep existing title", opt: Options{EditImages: EditAltTitle},
			tag: `<img src="a.jpg" title="Old">`, title: "T",
			want: `<img alt="T" src="a.jpg" title="Old">`, outcome: Changed,
		},
		{
			name: "existing alt kept", opt: Options{EditImages: EditAltTitle, AddSize: true},
			tag: `<img alt="mine" src="/images/a.png">`, title: "T",
			want: `<img alt="mine" src="/images/a.png">`, outcome: SkippedAlt,
		},
		{
			name: "existing alt overwritten in place", opt: Options{EditImages: EditAlt, OverwriteImages: true},
			tag: `<img class="x" alt='old' src="a.jpg">`, title: "New",
			want: `<img class="x" alt="New" src="a.jpg">`, outcome: Changed,
		},
		{
			name: "masked", opt: Options{EditImages: EditAltTitle, AddSize: true, ExcludeMasks: "\n LOGO \n"},
			tag: `<img src="/images/logo.png">`, title: "T",
			want: `<img src="/images/logo.png">`, outcome: SkippedMask,
		},
		{
			name: "masked with overwrite", opt: Options{EditImages: EditAlt, OverwriteImages: true, ExcludeMasks: "cdn.\nicons/"},
			tag: `<img alt="a" src="/icons/x.svg">`, title: "T",
			want: `<img alt="a" src="/icons/x.svg">`, outcome: SkippedMask,
		},
		{
			name: "size and text", opt: Options{EditImages: EditAltTitle, AddSize: true},
			tag: `<img src="/images/a.png">`, title: "T",
			want: `<img alt="T" title="T" width="100" height="50" src="/images/a.png">`, outcome: Changed,
		},
		{
			name: "size only when edit off", opt: Options{EditImages: EditOff, AddSize: true},
			tag: `<img src="/images/a.png">`, title: "T",
			want: `<img width="100" height="50" src="/images/a.png">`, outcome: Changed,
		},
		{
			name: "edit off without size", opt: Options{EditImages: EditOff},
			tag: `<img src="/images/a.png">`, title: "T",
			want: `<img src="/images/a.png">`, outcome: Unchanged,
		},
		{
			name: "unknown file", opt: Options{AddSize: true},
			tag: `<img src="/images/missing.png">`, title: "T",
			want: `<img src="/images/missing.png">`, outcome: Unchanged,
		},
		{
			name: "tag case kept", opt: Options{EditImages: EditAlt},
			tag: `<IMG  SRC="a.jpg">`, title: "T",
			want: `<IMG alt="T" SRC="a.jpg">`, outcome: Changed,
		},
		{
			name: "empty title", opt: Options{EditImages: EditAlt},
			tag: `<img src="a.jpg">`, title: "",
			want: `<img alt="" src="a.jpg">`, outcome: Changed,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRewriter(tc.opt)
			got, outcome := r.Rewrite(matchOf(t, tc.tag), TitleText(tc.title))
			if got != tc.want || outcome != tc.outcome {
				t.Fatalf("Rewrite(%q) = (%q,%v), want (%q,%v)", tc.tag, got, outcome, tc.want, tc.outcome)
			}
		})
	}
}

func TestRewriteNeverTouchesSrc(t *testing.T) {
	r := newTestRewriter(Options{EditImages: EditAltTitle, OverwriteImages: true, AddSize: true})
	m := matchOf(t, `<img alt="x" title="y" src="/images/a.png">`)
	got, _ := r.Rewrite(m, TitleText(`src="evil.png"`))
	if srcValue(got[len("<img"):]) != "/images/a.png" {
		t.Fatalf("src changed: %q", got)
	}
}

func TestOutcomeText(t *testing.T) {
	for o, want := range map[Outcome]string{Unchanged: "unchanged", Changed: "changed", SkippedAlt: "skipped-alt", SkippedMask: "skipped-mask"} {
		b, err := o.MarshalText()
		if err != nil || string(b) != want {
			t.Fatalf("MarshalText(%d) = %q, %v", o, b, err)
		}
	}
}
