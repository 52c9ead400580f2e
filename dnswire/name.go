package dnswire

import "strings"

const (
	maxLabelLen       = 63
	maxDomainNameWire = 255
	maxCompressionPtr = 0x3FFF
)

// splitLabels cuts a presentation-format name into its labels,
// honoring \. and \DDD escapes. The trailing dot, if present, is
// ignored. The root name returns no labels.
func splitLabels(name string) ([]string, error) {
	if name == "" || name == "." {
		return nil, nil
	}
	name = strings.TrimSuffix(name, ".")
	var labels []string
	var label []byte
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '\\':
			if i+3 < len(name) && isDigit(name[i+1]) && isDigit(name[i+2]) && isDigit(name[i+3]) {
				label = append(label, (name[i+1]-'0')*100+(name[i+2]-'0')*10+(name[i+3]-'0'))
				i += 3
			} else if i+1 < len(name) {
				label = append(label, name[i+1])
				i++
			} else {
				return nil, ParseErrorf("dangling backslash in name %q", name)
			}
		case c == '.':
			if len(label) == 0 {
				return nil, ParseErrorf("empty label in name %q", name)
			}
			if len(label) > maxLabelLen {
				return nil, ParseErrorf("label exceeds 63 octets in name %q", name)
			}
			labels = append(labels, string(label))
			label = label[:0]
		default:
			label = append(label, c)
		}
	}
	if len(label) == 0 {
		return nil, ParseErrorf("empty label in name %q", name)
	}
	if len(label) > maxLabelLen {
		return nil, ParseErrorf("label exceeds 63 octets in name %q", name)
	}
	labels = append(labels, string(label))
	return labels, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// escapeLabel renders a raw label in presentation format.
func escapeLabel(label []byte) string {
	var b strings.Builder
	for _, c := range label {
		switch {
		case c == '.' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 33 || c > 126:
			b.WriteByte('\\')
			b.WriteByte('0' + c/100)
			b.WriteByte('0' + (c/10)%10)
			b.WriteByte('0' + c%10)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// packDomainName appends the wire form of name to buf. When cmp is
// non-nil and compress is true, suffixes already present in cmp are
// replaced by a compression pointer and newly written suffixes are
// recorded. Offsets in cmp are relative to the start of buf, which must
// be the start of the message.
func packDomainName(buf []byte, name string, cmp map[string]int, compress bool) ([]byte, error) {
	labels, err := splitLabels(name)
	if err != nil {
		return nil, err
	}
	wireLen := 1
	for _, l := range labels {
		wireLen += len(l) + 1
	}
	if wireLen > maxDomainNameWire {
		return nil, ParseErrorf("name %q exceeds 255 octets", name)
	}
	for i := range labels {
		suffix := strings.ToLower(strings.Join(labels[i:], "."))
		if cmp != nil {
			if ptr, ok := cmp[suffix]; ok && compress {
				return append(buf, 0xC0|byte(ptr>>8), byte(ptr)), nil
			}
			if len(buf) <= maxCompressionPtr {
				cmp[suffix] = len(buf)
			}
		}
		buf = append(buf, byte(len(labels[i])))
		buf = append(buf, labels[i]...)
	}
	return append(buf, 0), nil
}

// unpackDomainName decodes a name starting at off. The returned offset
// is the position after the name as consumed in place: following a
// compression pointer never advances it past the pointer itself.
func unpackDomainName(msg []byte, off int) (string, int, error) {
	var b strings.Builder
	ptrTaken := false
	end := off
	wireLen := 0
	visited := make(map[int]bool)
	for {
		if off < 0 || off >= len(msg) {
			return "", 0, ParseErrorf("name runs past end of message")
		}
		c := msg[off]
		switch c & 0xC0 {
		case 0x00:
			if c == 0 {
				if !ptrTaken {
					end = off + 1
				}
				if b.Len() == 0 {
					return ".", end, nil
				}
				return b.String(), end, nil
			}
			wireLen += int(c) + 1
			if wireLen+1 > maxDomainNameWire {
				return "", 0, ParseErrorf("name exceeds 255 octets")
			}
			if off+1+int(c) > len(msg) {
				return "", 0, ParseErrorf("label runs past end of message")
			}
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(escapeLabel(msg[off+1 : off+1+int(c)]))
			off += 1 + int(c)
		case 0xC0:
			if off+1 >= len(msg) {
				return "", 0, ParseErrorf("truncated compression pointer")
			}
			target := int(c&0x3F)<<8 | int(msg[off+1])
			if target >= off {
				return "", 0, ParseErrorf("compression pointer not backward (%d -> %d)", off, target)
			}
			if visited[target] {
				return "", 0, ParseErrorf("compression pointer loop at offset %d", target)
			}
			visited[target] = true
			if !ptrTaken {
				end = off + 2
				ptrTaken = true
			}
			off = target
		default:
			return "", 0, ParseErrorf("reserved label type 0x%02x", c&0xC0)
		}
	}
}

// CanonicalName lowercases a name and strips any trailing dot, the form
// used for cache keys and compression lookups.
func CanonicalName(name string) string {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return "."
	}
	return strings.ToLower(name)
}
