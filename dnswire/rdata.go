package dnswire

import (
	"encoding/hex"
	"strconv"
	"strings"
)

func hexDecode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ParseErrorf("bad hex field: %v", err)
	}
	return b, nil
}

// Token helpers shared by the rdata parsers.

func needTokens(tokens []string, n int, typ uint16) error {
	if len(tokens) < n {
		return ParseErrorf("%s rdata wants %d fields, got %d", TypeToString(typ), n, len(tokens))
	}
	return nil
}

func tokenUint8(tok string) (uint8, error) {
	n, err := strconv.ParseUint(tok, 10, 8)
	if err != nil {
		return 0, ParseErrorf("bad uint8 %q", tok)
	}
	return uint8(n), nil
}

func tokenUint16(tok string) (uint16, error) {
	n, err := strconv.ParseUint(tok, 10, 16)
	if err != nil {
		return 0, ParseErrorf("bad uint16 %q", tok)
	}
	return uint16(n), nil
}

func tokenUint32(tok string) (uint32, error) {
	n, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, ParseErrorf("bad uint32 %q", tok)
	}
	return uint32(n), nil
}

func itoa8(v uint8) string   { return strconv.FormatUint(uint64(v), 10) }
func itoa16(v uint16) string { return strconv.FormatUint(uint64(v), 10) }
func itoa32(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

// dot renders a name field with its trailing dot.
func dot(name string) string {
	if name == "" || name == "." {
		return "."
	}
	return strings.TrimSuffix(name, ".") + "."
}

func quoteStrings(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = `"` + s + `"`
	}
	return strings.Join(parts, " ")
}
