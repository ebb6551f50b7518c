package glob

import "testing"

func TestTranslateAndMatch(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"foo/bar", "foo/bar", true},
		{"foo/bar", "./foo/bar", true},
		{"foo/bar", "/foo/bar", true},
		{"foo/*", "foo/bar", true},
		{"foo/*", "foo/bar/baz", false},
		{"foo/**", "foo/bar/baz", true},
		{"foo/**", "foo", false},
		{"a.b", "a.b", true},
		{"a.b", "aXb", false},
		{".hidden", ".hidden", true},
		{"q?.txt", "q?.txt", true},
		{"q?.txt", "qa.txt", false},
	}
	for _, c := range cases {
		re, err := Compile(c.pattern)
		if err != nil {
			t.Fatalf("Compile(%q): %v", c.pattern, err)
		}
		if got := re.MatchString(c.path); got != c.want {
			t.Errorf("Compile(%q).MatchString(%q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}

func TestListing(t *testing.T) {
	exact, nested, err := Listing("dir")
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if !exact.MatchString("dir") {
		t.Fatal("exact should match dir")
	}
	if !nested.MatchString("dir/file") {
		t.Fatal("nested should match dir/file")
	}
	if nested.MatchString("dir") {
		t.Fatal("nested should not match dir alone")
	}
}
