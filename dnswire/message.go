package dnswire

import (
	"strings"
)

// Question is one entry of the question section.
type Question struct {
	Name   string
	Qtype  uint16
	Qclass uint16
}

func (q *Question) String() string {
	return ";" + strings.TrimSuffix(q.Name, ".") + ".\t" +
		ClassToString(q.Qclass) + "\t" + TypeToString(q.Qtype)
}

// Msg is a complete DNS message. The section count fields of the wire
// header are derived from the slice lengths at pack time and verified
// against them at unpack time.
type Msg struct {
	MsgHdr
	Question []Question
	Answer   []RR
	Ns       []RR
	Extra    []RR
}

// SetQuestion initializes m as a query for a single question. The
// transaction ID stays zero until Pack draws one.
func (m *Msg) SetQuestion(name string, qtype uint16) *Msg {
	m.RecursionDesired = true
	m.Question = []Question{{Name: name, Qtype: qtype, Qclass: ClassINET}}
	return m
}

// SetUpdate initializes m as an RFC 2136 dynamic update for a zone.
// The zone travels in the question section with type SOA.
func (m *Msg) SetUpdate(zone string) *Msg {
	m.Opcode = OpcodeUpdate
	m.Question = []Question{{Name: zone, Qtype: TypeSOA, Qclass: ClassINET}}
	return m
}

// IsEdns0 returns the OPT record from the additional section, or nil.
func (m *Msg) IsEdns0() *OPT {
	for _, rr := range m.Extra {
		if opt, ok := rr.(*OPT); ok {
			return opt
		}
	}
	return nil
}

// Pack serializes the message, assigning a random transaction ID first
// when none is set. Name compression is always active; individual
// fields opt out per their RFC rules.
func (m *Msg) Pack() ([]byte, error) {
	if len(m.Question) > 0xFFFF || len(m.Answer) > 0xFFFF ||
		len(m.Ns) > 0xFFFF || len(m.Extra) > 0xFFFF {
		return nil, ParseErrorf("section count exceeds 65535")
	}
	if m.ID == 0 {
		id, err := RandomID()
		if err != nil {
			return nil, err
		}
		m.ID = id
	}
	p := newPacker()
	p.uint16(m.ID)
	p.uint16(m.packFlags())
	p.uint16(uint16(len(m.Question)))
	p.uint16(uint16(len(m.Answer)))
	p.uint16(uint16(len(m.Ns)))
	p.uint16(uint16(len(m.Extra)))
	for i := range m.Question {
		q := &m.Question[i]
		if err := p.name(q.Name, true); err != nil {
			return nil, err
		}
		p.uint16(q.Qtype)
		p.uint16(q.Qclass)
	}
	for _, section := range [][]RR{m.Answer, m.Ns, m.Extra} {
		for _, rr := range section {
			if err := packRR(p, rr); err != nil {
				return nil, err
			}
		}
	}
	return p.buf, nil
}

// Unpack parses a wire-format message. Section counts must match the
// records actually present.
func (m *Msg) Unpack(msg []byte) error {
	if len(msg) < headerLen {
		return ParseErrorf("message shorter than header (%d octets)", len(msg))
	}
	var off int
	m.ID, off, _ = unpackUint16(msg, 0)
	var flags uint16
	flags, off, _ = unpackUint16(msg, off)
	m.unpackFlags(flags)
	qdcount, off, _ := unpackUint16(msg, off)
	ancount, off, _ := unpackUint16(msg, off)
	nscount, off, _ := unpackUint16(msg, off)
	arcount, off, _ := unpackUint16(msg, off)

	m.Question = nil
	for i := 0; i < int(qdcount); i++ {
		var q Question
		var err error
		q.Name, off, err = unpackDomainName(msg, off)
		if err != nil {
			return err
		}
		q.Qtype, off, err = unpackUint16(msg, off)
		if err != nil {
			return err
		}
		q.Qclass, off, err = unpackUint16(msg, off)
		if err != nil {
			return err
		}
		m.Question = append(m.Question, q)
	}
	var err error
	if m.Answer, off, err = unpackSection(msg, off, int(ancount)); err != nil {
		return err
	}
	if m.Ns, off, err = unpackSection(msg, off, int(nscount)); err != nil {
		return err
	}
	if m.Extra, _, err = unpackSection(msg, off, int(arcount)); err != nil {
		return err
	}
	return nil
}

func unpackSection(msg []byte, off, count int) ([]RR, int, error) {
	if count == 0 {
		return nil, off, nil
	}
	rrs := make([]RR, 0, count)
	for i := 0; i < count; i++ {
		rr, next, err := unpackRR(msg, off)
		if err != nil {
			return nil, 0, err
		}
		rrs = append(rrs, rr)
		off = next
	}
	return rrs, off, nil
}

func (m *Msg) String() string {
	var b strings.Builder
	b.WriteString(m.MsgHdr.String())
	b.WriteString("\n")
	if len(m.Question) > 0 {
		b.WriteString(";; QUESTION SECTION:\n")
		for i := range m.Question {
			b.WriteString(m.Question[i].String() + "\n")
		}
	}
	sections := []struct {
		name string
		rrs  []RR
	}{{"ANSWER", m.Answer}, {"AUTHORITY", m.Ns}, {"ADDITIONAL", m.Extra}}
	for _, s := range sections {
		if len(s.rrs) == 0 {
			continue
		}
		b.WriteString(";; " + s.name + " SECTION:\n")
		for _, rr := range s.rrs {
			b.WriteString(rr.String() + "\n")
		}
	}
	return b.String()
}
