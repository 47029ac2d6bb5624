package types

import "testing"

func TestParseMode(t *testing.T) {
	cases := []struct {
		in                    string
		want                  Mode
		mapPhase, reducePhase bool
	}{
		{"map", ModeMap, true, false},
		{"Reduce", ModeReduce, false, true},
		{" mapreduce ", ModeMapReduce, true, true},
	}
	for _, tc := range cases {
		m, err := ParseMode(tc.in)
		if err != nil {
			t.Fatalf("ParseMode(%q) failed: %v", tc.in, err)
		}
		if m != tc.want || m.IncludesMap() != tc.mapPhase || m.IncludesReduce() != tc.reducePhase {
			t.Fatalf("ParseMode(%q) = %q (map=%v reduce=%v)", tc.in, m, m.IncludesMap(), m.IncludesReduce())
		}
	}

	for _, bad := range []string{"", "shuffle", "mapper"} {
		if _, err := ParseMode(bad); err == nil {
			t.Fatalf("ParseMode(%q) should fail", bad)
		}
	}
}
