package dnswire

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// RRHeader holds the fields common to every resource record. Rdlength
// is informational: it is set when a record is unpacked and recomputed
// on pack.
type RRHeader struct {
	Name     string
	Type     uint16
	Class    uint16
	TTL      uint32
	Rdlength uint16
}

// Header implements part of the RR interface for every embedding type.
func (h *RRHeader) Header() *RRHeader { return h }

func (h *RRHeader) headerString() string {
	name := h.Name
	if name == "" {
		name = "."
	}
	return fmt.Sprintf("%s.\t%d\t%s\t%s\t",
		strings.TrimSuffix(name, "."), h.TTL, ClassToString(h.Class), TypeToString(h.Type))
}

// RR is a single resource record of any type. Concrete types embed
// RRHeader and implement the codec operations; the package registry
// maps type codes to constructors.
type RR interface {
	Header() *RRHeader
	// String renders the record in zone-file presentation format.
	String() string

	// parse consumes whitespace-split rdata tokens, quotes already
	// honored by the tokenizer.
	parse(tokens []string) error
	// pack appends the rdata wire form through the message packer.
	pack(p *packer) error
	// unpack decodes rdata from msg[off:end]; end is the boundary set
	// by RDLENGTH and must not be read past.
	unpack(msg []byte, off, end int) error
}

var typeToRR = make(map[uint16]func() RR)

func registerType(t uint16, f func() RR) { typeToRR[t] = f }

// newRR returns a fresh record for the given type code, falling back
// to the opaque RFC 3597 representation for unregistered codes.
func newRR(t uint16) RR {
	if f, ok := typeToRR[t]; ok {
		rr := f()
		rr.Header().Type = t
		return rr
	}
	return &Unknown{RRHeader: RRHeader{Type: t}}
}

// TypeRegistered reports whether a type code has a concrete decoder.
func TypeRegistered(t uint16) bool {
	_, ok := typeToRR[t]
	return ok
}

// packRR writes a full record: owner name, fixed fields, then rdata
// behind a back-patched RDLENGTH.
func packRR(p *packer, rr RR) error {
	hdr := rr.Header()
	if err := p.name(hdr.Name, true); err != nil {
		return err
	}
	p.uint16(hdr.Type)
	p.uint16(hdr.Class)
	p.uint32(hdr.TTL)
	lenOff := len(p.buf)
	p.uint16(0)
	if err := rr.pack(p); err != nil {
		return err
	}
	rdlen := len(p.buf) - lenOff - 2
	if rdlen > 0xFFFF {
		return ParseErrorf("rdata exceeds 65535 octets")
	}
	hdr.Rdlength = uint16(rdlen)
	p.setUint16(lenOff, uint16(rdlen))
	return nil
}

// unpackRR reads a full record starting at off and returns it along
// with the offset just past its rdata.
func unpackRR(msg []byte, off int) (RR, int, error) {
	name, off, err := unpackDomainName(msg, off)
	if err != nil {
		return nil, 0, err
	}
	if off+10 > len(msg) {
		return nil, 0, ParseErrorf("record header runs past end of message")
	}
	typ, off, _ := unpackUint16(msg, off)
	class, off, _ := unpackUint16(msg, off)
	ttl, off, _ := unpackUint32(msg, off)
	rdlen, off, _ := unpackUint16(msg, off)
	end := off + int(rdlen)
	if end > len(msg) {
		return nil, 0, ParseErrorf("rdata (%d octets) runs past end of message", rdlen)
	}
	rr := newRR(typ)
	hdr := rr.Header()
	hdr.Name = name
	hdr.Class = class
	hdr.TTL = ttl
	hdr.Rdlength = rdlen
	if err := rr.unpack(msg, off, end); err != nil {
		return nil, 0, err
	}
	return rr, end, nil
}

// Unknown preserves the rdata of unregistered types verbatim, using
// the RFC 3597 \# presentation form.
type Unknown struct {
	RRHeader
	Data []byte
}

func (rr *Unknown) String() string {
	return rr.headerString() + fmt.Sprintf("\\# %d %s", len(rr.Data), hex.EncodeToString(rr.Data))
}

func (rr *Unknown) parse(tokens []string) error {
	if len(tokens) < 2 || tokens[0] != "\\#" {
		return ParseErrorf("opaque rdata must use the \\# form")
	}
	n, err := strconv.Atoi(tokens[1])
	if err != nil {
		return ParseErrorf("bad opaque rdata length %q", tokens[1])
	}
	data, err := hex.DecodeString(strings.Join(tokens[2:], ""))
	if err != nil {
		return ParseErrorf("bad opaque rdata hex: %v", err)
	}
	if len(data) != n {
		return ParseErrorf("opaque rdata length mismatch: declared %d, got %d", n, len(data))
	}
	rr.Data = data
	return nil
}

func (rr *Unknown) pack(p *packer) error {
	p.bytes(rr.Data)
	return nil
}

func (rr *Unknown) unpack(msg []byte, off, end int) error {
	data, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.Data = data
	return nil
}

// NewRR parses a single presentation-format record line: owner name,
// optional TTL and class in either order, type mnemonic, then rdata.
func NewRR(s string) (RR, error) {
	tokens := tokenizeRdata(s)
	if len(tokens) < 2 {
		return nil, &Error{Kind: KindRRInvalid, Message: fmt.Sprintf("short record %q", s)}
	}
	name := tokens[0]
	tokens = tokens[1:]

	var ttl uint32
	class := ClassINET
	for len(tokens) > 0 {
		tok := tokens[0]
		if n, err := strconv.ParseUint(tok, 10, 32); err == nil {
			ttl = uint32(n)
			tokens = tokens[1:]
			continue
		}
		if c, err := StringToClass(tok); err == nil {
			class = c
			tokens = tokens[1:]
			continue
		}
		break
	}
	if len(tokens) == 0 {
		return nil, &Error{Kind: KindRRInvalid, Message: fmt.Sprintf("record %q has no type", s)}
	}
	typ, err := StringToType(tokens[0])
	if err != nil {
		return nil, err
	}
	rr := newRR(typ)
	hdr := rr.Header()
	hdr.Name = strings.TrimSuffix(name, ".")
	hdr.Type = typ
	hdr.Class = class
	hdr.TTL = ttl
	if err := rr.parse(tokens[1:]); err != nil {
		return nil, err
	}
	return rr, nil
}

// tokenizeRdata splits on whitespace while keeping quoted strings
// together (quotes stripped) and concatenating nothing: multi-string
// TXT rdata stays as one token per quoted string.
func tokenizeRdata(s string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	escaped := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			cur.WriteByte('\\')
			cur.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			if inQuote {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inQuote = false
			} else {
				flush()
				inQuote = true
			}
		case (c == ' ' || c == '\t' || c == '\n' || c == '\r') && !inQuote:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}
