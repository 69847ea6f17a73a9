package source

import "testing"

func TestFileSetAddDedupsByPath(t *testing.T) {
	fs := NewFileSet()
	a := fs.Add("tests/Goto.cs")
	b := fs.Add("tests/./Goto.cs")
	c := fs.Add("tests/Sieve.cs")

	if a == NoFileID {
		t.Fatalf("first file got the reserved id")
	}
	if a != b {
		t.Fatalf("same path registered twice: %d vs %d", a, b)
	}
	if c == a {
		t.Fatalf("distinct paths share id %d", a)
	}
	if fs.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", fs.Len())
	}
	if got := fs.Get(c).Path; got != "tests/Sieve.cs" {
		t.Errorf("Get(c).Path = %q", got)
	}
	if fs.Get(NoFileID) != nil {
		t.Errorf("Get(NoFileID) should be nil")
	}
}

func TestFormatPathRelative(t *testing.T) {
	f := &File{Path: "/work/tests/Strings.cs"}
	if got := f.FormatPath("relative", "/work"); got != "tests/Strings.cs" {
		t.Errorf("relative = %q", got)
	}
	if got := f.FormatPath("relative", "/elsewhere"); got != "/work/tests/Strings.cs" {
		t.Errorf("relative outside base = %q", got)
	}
	if got := f.FormatPath("basename", ""); got != "Strings.cs" {
		t.Errorf("basename = %q", got)
	}
}

func TestSpanBefore(t *testing.T) {
	cases := []struct {
		a, b Span
		want bool
	}{
		{Span{File: 1, Line: 2, Col: 1}, Span{File: 1, Line: 3, Col: 1}, true},
		{Span{File: 1, Line: 3, Col: 5}, Span{File: 1, Line: 3, Col: 2}, false},
		{Span{File: 2, Line: 1, Col: 1}, Span{File: 1, Line: 9, Col: 9}, false},
	}
	for _, tc := range cases {
		if got := tc.a.Before(tc.b); got != tc.want {
			t.Errorf("%s.Before(%s) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
