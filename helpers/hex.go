package helpers

import "encoding/hex"

// MustHex decodes hex fixture, spaces allowed for readability.
func MustHex(s string) []byte {
	b, err := hex.DecodeString(stripSpace(s))
	if err != nil {
		panic(err)
	}
	return b
}

func stripSpace(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c != ' ' && c != '\n' && c != '\t' {
			b = append(b, c)
		}
	}
	return string(b)
}
