package importer

import "testing"

func TestStripLTS(t *testing.T) {
	cases := map[string]string{
		"22.04 LTS": "22.04",
		"22.04":     "22.04",
		"24.04 LTS": "24.04",
	}
	for in, want := range cases {
		if got := stripLTS(in); got != want {
			t.Errorf("stripLTS(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIVersion(t *testing.T) {
	cases := map[string]int{
		"22.04": 2204,
		"24.04": 2404,
		"20.04": 2004,
	}
	for in, want := range cases {
		if got := iVersion(in); got != want {
			t.Errorf("iVersion(%q) = %d, want %d", in, got, want)
		}
	}
}
