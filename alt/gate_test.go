package alt

import "testing"

func TestShouldProcess(t *testing.T) {
	t.Parallel()
	site := Context{SiteRender: true, DocumentType: DocumentHTML, Guest: true, Component: "com_content"}
	cases := []struct {
		name string
		ctx  func(Context) Context
		opt  func(Options) Options
		want bool
	}{
		{"default", nil, nil, true},
		{"admin render", func(c Context) Context { c.SiteRender = false; return c }, nil, false},
		{"json document", func(c Context) Context { c.DocumentType = "json"; return c }, nil, false},
		{"editor active", func(c Context) Context { c.EditorActive = true; return c }, nil, false},
		{"editor allowed", func(c Context) Context { c.EditorActive = true; return c }, func(o Options) Options { o.ExcludeEditor = false; return o }, true},
		{"user excluded", func(c Context) Context { c.Guest = false; return c }, func(o Options) Options { o.ExcludeUser = true; return o }, false},
		{"user allowed", func(c Context) Context { c.Guest = false; return c }, nil, true},
		{"component listed", nil, func(o Options) Options { o.ExcludeComponents = " com_users\n\ncom_content \n"; return o }, false},
		{"component not listed", nil, func(o Options) Options { o.ExcludeComponents = "com_users"; return o }, true},
		{"toggle listed", nil, func(o Options) Options {
			o.ExcludeComponents = "com_content"
			o.ExcludeComponentsToggle = true
			return o
		}, true},
		{"toggle not listed", nil, func(o Options) Options {
			o.ExcludeComponents = "com_users"
			o.ExcludeComponentsToggle = true
			return o
		}, false},
		{"toggle empty list", nil, func(o Options) Options {
			o.ExcludeComponents = "\n \n"
			o.ExcludeComponentsToggle = true
			return o
		}, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ctx, opt := site, DefaultOptions()
			if tc.ctx != nil {
				ctx = tc.ctx(ctx)
			}
			if tc.opt != nil {
				opt = tc.opt(opt)
			}
			if got := ShouldProcess(ctx, opt); got != tc.want {
				t.Fatalf("ShouldProcess(%+v) = %v, want %v", ctx, got, tc.want)
			}
		})
	}
}
