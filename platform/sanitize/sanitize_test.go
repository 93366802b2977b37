package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Jane Doe  ", "Jane Doe"},
		{"<b>CTO</b>", "CTO"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;Acme", "alert(1)Acme"},
		{"Sales &amp; Marketing", "Sales & Marketing"},
		{"R&D", "R&D"},
		{"\uFEFFname", "name"},
		{"line\x00one", "lineone"},
		{"first\nsecond", "first\nsecond"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Fatalf("Text(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
