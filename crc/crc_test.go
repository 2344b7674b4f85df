package crc

import (
	"strings"
	"testing"

	"github.com/temoto/sonar/helpers"
)

func TestSum16(t *testing.T) {
	t.Parallel()
	cases := []struct {
		hex    string
		expect uint16
	}{
		{"", 0x0000},
		{"00", 0x0000},
		{"ff", 0x00ff},
		{"4252", 0x0094},
		// general_request(requested_id=1211) header+payload
		{"4252020006000000bb04", 0x015b},
		{strings.Repeat("ff", 258), 0x00fe},
	}
	for _, c := range cases {
		c := c
		t.Run(c.hex, func(t *testing.T) {
			b := helpers.MustHex(c.hex)
			if actual := Sum16(b); actual != c.expect {
				t.Errorf("Sum16(%s)=%04x expected=%04x", c.hex, actual, c.expect)
			}
		})
	}
}

func TestSum16Next(t *testing.T) {
	t.Parallel()
	b := helpers.MustHex("42520400ea0300000000d83b0500")
	for i := 0; i <= len(b); i++ {
		if actual := Sum16Next(Sum16(b[:i]), b[i:]); actual != Sum16(b) {
			t.Fatalf("split=%d Sum16Next=%04x expected=%04x", i, actual, Sum16(b))
		}
	}
}
