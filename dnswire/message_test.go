package dnswire

import (
	"bytes"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderFlagsRoundTrip(t *testing.T) {
	hdr := MsgHdr{
		ID:                 0xBEEF,
		Response:           true,
		Opcode:             OpcodeUpdate,
		Authoritative:      true,
		Truncated:          true,
		RecursionDesired:   true,
		RecursionAvailable: true,
		AuthenticatedData:  true,
		CheckingDisabled:   true,
		Rcode:              RcodeRefused,
	}
	var out MsgHdr
	out.unpackFlags(hdr.packFlags())
	out.ID = hdr.ID
	assert.Equal(t, hdr, out)
}

func TestTwoQuestionCompression(t *testing.T) {
	msg := &Msg{MsgHdr: MsgHdr{ID: 1}}
	msg.Question = []Question{
		{Name: "www.example.com", Qtype: TypeA, Qclass: ClassINET},
		{Name: "mail.example.com", Qtype: TypeA, Qclass: ClassINET},
	}
	packed, err := msg.Pack()
	require.NoError(t, err)

	// The second QNAME must use a pointer into the first.
	uncompressed, err := packDomainName(nil, "mail.example.com", nil, false)
	require.NoError(t, err)
	firstLen := headerLen + len("www.example.com") + 2 + 4
	assert.Less(t, len(packed), firstLen+len(uncompressed)+4)

	var out Msg
	require.NoError(t, out.Unpack(packed))
	require.Len(t, out.Question, 2)
	assert.Equal(t, "www.example.com", out.Question[0].Name)
	assert.Equal(t, "mail.example.com", out.Question[1].Name)
}

func TestSetQuestion(t *testing.T) {
	msg := new(Msg).SetQuestion("example.com", TypeA)
	assert.True(t, msg.RecursionDesired)
	require.Len(t, msg.Question, 1)
	assert.Equal(t, ClassINET, msg.Question[0].Qclass)

	// The transaction ID is drawn at pack time.
	assert.Zero(t, msg.ID)
	_, err := msg.Pack()
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
}

func TestRandomIDNeverZero(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := RandomID()
		require.NoError(t, err)
		assert.NotZero(t, id)
	}
}

func TestShortMessage(t *testing.T) {
	var msg Msg
	require.Error(t, msg.Unpack([]byte{0, 1, 2}))
}

// Interoperability: bytes packed here must parse under miekg/dns and
// vice versa.
func TestInteropPackAgainstMiekg(t *testing.T) {
	msg := &Msg{MsgHdr: MsgHdr{ID: 321, Response: true, RecursionAvailable: true}}
	msg.Question = []Question{{Name: "example.com", Qtype: TypeMX, Qclass: ClassINET}}
	msg.Answer = []RR{
		&MX{RRHeader: RRHeader{Name: "example.com", Type: TypeMX, Class: ClassINET, TTL: 3600},
			Preference: 10, Mx: "mail.example.com"},
		&A{RRHeader: RRHeader{Name: "mail.example.com", Type: TypeA, Class: ClassINET, TTL: 3600},
			Address: net.IPv4(192, 0, 2, 1).To4()},
	}
	packed, err := msg.Pack()
	require.NoError(t, err)

	var ref dns.Msg
	require.NoError(t, ref.Unpack(packed))
	assert.Equal(t, uint16(321), ref.Id)
	assert.True(t, ref.Response)
	require.Len(t, ref.Answer, 2)
	mx, ok := ref.Answer[0].(*dns.MX)
	require.True(t, ok)
	assert.Equal(t, "example.com.", mx.Hdr.Name)
	assert.Equal(t, uint16(10), mx.Preference)
	assert.Equal(t, "mail.example.com.", mx.Mx)
	a, ok := ref.Answer[1].(*dns.A)
	require.True(t, ok)
	assert.Equal(t, "192.0.2.1", a.A.String())
}

func TestInteropUnpackFromMiekg(t *testing.T) {
	ref := new(dns.Msg)
	ref.SetQuestion("example.com.", dns.TypeTXT)
	ref.Id = 99
	ref.Response = true
	ref.Answer = []dns.RR{
		&dns.TXT{
			Hdr: dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 60},
			Txt: []string{"hello", "world"},
		},
		&dns.SRV{
			Hdr:      dns.RR_Header{Name: "_sip._tcp.example.com.", Rrtype: dns.TypeSRV, Class: dns.ClassINET, Ttl: 60},
			Priority: 1, Weight: 2, Port: 5060, Target: "sip.example.com.",
		},
	}
	ref.Compress = true
	packed, err := ref.Pack()
	require.NoError(t, err)

	var msg Msg
	require.NoError(t, msg.Unpack(packed))
	assert.Equal(t, uint16(99), msg.ID)
	require.Len(t, msg.Answer, 2)
	txt, ok := msg.Answer[0].(*TXT)
	require.True(t, ok)
	assert.Equal(t, []string{"hello", "world"}, txt.Txt)
	srv, ok := msg.Answer[1].(*SRV)
	require.True(t, ok)
	assert.Equal(t, uint16(5060), srv.Port)
	assert.Equal(t, "sip.example.com", srv.Target)
}

func TestAppendRRIncrementsARCount(t *testing.T) {
	msg := new(Msg).SetQuestion("example.com", TypeSOA)
	packed, err := msg.Pack()
	require.NoError(t, err)
	tsig := &TSIG{
		RRHeader:   RRHeader{Name: "key.example", Type: TypeTSIG, Class: ClassANY},
		Algorithm:  HmacSHA256,
		TimeSigned: 1700000000,
		Fudge:      300,
		MAC:        "deadbeef",
		OrigID:     msg.ID,
	}
	signed, err := AppendRR(packed, tsig)
	require.NoError(t, err)
	var out Msg
	require.NoError(t, out.Unpack(signed))
	require.Len(t, out.Extra, 1)
	assert.IsType(t, &TSIG{}, out.Extra[0])
	assert.True(t, bytes.Equal(packed[:10], signed[:10]), "header bytes before ARCOUNT must be untouched")
	assert.Equal(t, []byte{0, 1}, signed[10:12], "ARCOUNT must be incremented")
	assert.True(t, bytes.Equal(packed[headerLen:], signed[headerLen:len(packed)]), "original bytes after the header must be untouched")
}

func TestStripTSIG(t *testing.T) {
	msg := new(Msg).SetQuestion("example.com", TypeSOA)
	packed, err := msg.Pack()
	require.NoError(t, err)
	tsig := &TSIG{
		RRHeader:   RRHeader{Name: "key.example", Type: TypeTSIG, Class: ClassANY},
		Algorithm:  HmacSHA256,
		TimeSigned: 1700000000,
		Fudge:      300,
		MAC:        "deadbeef",
		OrigID:     msg.ID,
	}
	signed, err := AppendRR(packed, tsig)
	require.NoError(t, err)

	stripped, got, err := StripTSIG(signed)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "deadbeef", got.MAC)
	assert.Equal(t, packed, stripped)

	// A message without TSIG passes through untouched.
	same, got, err := StripTSIG(packed)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, packed, same)
}
