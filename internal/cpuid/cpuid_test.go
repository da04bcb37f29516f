package cpuid

import "testing"

func TestEncode(t *testing.T) {
	got := Encode([]byte{0x71, 0x06, 0x0B})
	want := "0xb0671"
	if got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestEncodeFormula(t *testing.T) {
	// For any b0,b1,b2: "0x" + hex(b2) + hex(b1,2) + hex(b0,2).
	cases := []struct {
		b0, b1, b2 byte
		want       string
	}{
		{0x00, 0x00, 0x00, "0x00000"},
		{0xff, 0x00, 0x01, "0x100ff"},
		{0x0b, 0x06, 0x71, "0x71060b"},
	}
	for _, c := range cases {
		got := Encode([]byte{c.b0, c.b1, c.b2})
		if got != c.want {
			t.Errorf("Encode(%#x,%#x,%#x) = %q, want %q", c.b0, c.b1, c.b2, got, c.want)
		}
	}
}

func TestLookupSubstringNotPrefix(t *testing.T) {
	patterns := []Pattern{
		{IDPattern: "0xb0671", Codename: "Raptor Lake"},
		{IDPattern: "906ea", Codename: "Coffee Lake"},
	}
	if got := Lookup("0xb0671", patterns); got != "Raptor Lake" {
		t.Errorf("got %q, want Raptor Lake", got)
	}
	// "906ea" doesn't start the string but is a substring.
	if got := Lookup("0x1906ea3", patterns); got != "Coffee Lake" {
		t.Errorf("got %q, want Coffee Lake (substring match)", got)
	}
}

func TestLookupUnknown(t *testing.T) {
	patterns := []Pattern{{IDPattern: "0xb0671", Codename: "Raptor Lake"}}
	if got := Lookup("0xdeadbe", patterns); got != Unknown {
		t.Errorf("got %q, want %q", got, Unknown)
	}
}
