package normalize

import "testing"

func TestVendorStripsIncSuffix(t *testing.T) {
	cases := map[string]string{
		"Dell Inc.":    "Dell",
		"Dell Inc":     "Dell",
		"  Lenovo  ":   "Lenovo",
		"HP":           "HP",
		"Inc. Widgets": "Widgets",
	}
	for in, want := range cases {
		if got := Vendor(in); got != want {
			t.Errorf("Vendor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVendorIdempotent(t *testing.T) {
	inputs := []string{"Dell Inc.", "Lenovo", "  HP Inc  ", "Acer Inc.Inc"}
	for _, s := range inputs {
		once := Vendor(s)
		twice := Vendor(once)
		if once != twice {
			t.Errorf("Vendor not idempotent for %q: once=%q twice=%q", s, once, twice)
		}
	}
}

func TestVendorsMatch(t *testing.T) {
	if !VendorsMatch("Dell Inc.", "dell") {
		t.Error("expected Dell Inc. to match dell")
	}
	if !VendorsMatch("Lenovo", "Lenovo") {
		t.Error("expected exact raw match to succeed")
	}
	if VendorsMatch("Dell", "HP") {
		t.Error("did not expect Dell to match HP")
	}
}

func TestContains(t *testing.T) {
	if !Contains("Coffee Lake Refresh", "lake") {
		t.Error("expected case-insensitive substring match")
	}
	if Contains("Coffee Lake", "skylake") {
		t.Error("did not expect unrelated substring to match")
	}
}
