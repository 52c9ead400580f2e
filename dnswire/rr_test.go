package dnswire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripWire packs a parsed record into a message, unpacks it and
// checks that the field projection survives.
func roundTripWire(t *testing.T, s string) RR {
	t.Helper()
	rr, err := NewRR(s)
	require.NoError(t, err, s)
	msg := &Msg{MsgHdr: MsgHdr{ID: 4242}, Answer: []RR{rr}}
	packed, err := msg.Pack()
	require.NoError(t, err, s)
	var out Msg
	require.NoError(t, out.Unpack(packed), s)
	require.Len(t, out.Answer, 1, s)
	assert.Equal(t, rr.String(), out.Answer[0].String(), s)
	return out.Answer[0]
}

// roundTripText re-parses a record's presentation form and checks the
// result renders identically.
func roundTripText(t *testing.T, s string) {
	t.Helper()
	rr, err := NewRR(s)
	require.NoError(t, err, s)
	again, err := NewRR(rr.String())
	require.NoError(t, err, rr.String())
	assert.Equal(t, rr.String(), again.String(), s)
}

var rrSamples = []string{
	"example.com. 3600 IN A 192.0.2.1",
	"example.com. 3600 IN AAAA 2001:db8::1",
	"example.com. 3600 IN NS ns1.example.com.",
	"alias.example.com. 300 IN CNAME real.example.com.",
	"example.com. 3600 IN PTR host.example.com.",
	"example.com. 3600 IN DNAME target.example.net.",
	"example.com. 3600 IN MX 10 mail.example.com.",
	"example.com. 3600 IN KX 5 kx.example.com.",
	"example.com. 3600 IN AFSDB 1 afs.example.com.",
	"example.com. 3600 IN RP admin.example.com. txt.example.com.",
	"example.com. 3600 IN SOA ns1.example.com. hostmaster.example.com. 2024010101 7200 900 1209600 300",
	"_sip._tcp.example.com. 300 IN SRV 10 60 5060 sip.example.com.",
	`example.com. 3600 IN TXT "v=spf1 -all" "second string"`,
	`example.com. 3600 IN SPF "v=spf1 mx -all"`,
	`example.com. 3600 IN AVC "app=1"`,
	`example.com. 3600 IN HINFO "PDP-11" "UNIX"`,
	"example.com. 3600 IN WKS 192.0.2.1 6 25 53 110",
	"example.com. 3600 IN DS 31589 8 2 49FD46E6C4B45C55D4AC69CBD3CD34AC1AFE51DE2659BC3EA6E9E78C0DB8DA9C",
	"example.com. 3600 IN CDS 31589 8 2 49FD46E6C4B45C55D4AC69CBD3CD34AC1AFE51DE2659BC3EA6E9E78C0DB8DA9C",
	"example.com. 3600 IN DLV 31589 8 1 A1A7B9D30CB8E21C90DCB660007D2BDED2F92E5B",
	"example.com. 3600 IN DNSKEY 257 3 8 AwEAAaGTx2nYt1DPBmz2Kq4ASpSMvVY4cUoB3C3o/qsz0L9TRcpM3vZL",
	"example.com. 3600 IN CDNSKEY 257 3 8 AwEAAaGTx2nYt1DPBmz2Kq4ASpSMvVY4cUoB3C3o/qsz0L9TRcpM3vZL",
	"example.com. 3600 IN KEY 256 3 5 AwEAAaGTx2nYt1DPBmz2Kq4ASpSMvVY4cUoB3C3o/qsz0L9TRcpM3vZL",
	"example.com. 3600 IN RRSIG A 8 2 3600 20260101000000 20251201000000 31589 example.com. b2JzY3VyZWRzaWduYXR1cmVieXRlcw==",
	"example.com. 3600 IN NSEC host.example.com. A MX RRSIG NSEC",
	"example.com. 3600 IN NSEC3 1 0 12 AABBCCDD 2T7B4G4VSA5SMI47K61MV5BV1A22BOJR A RRSIG",
	"example.com. 3600 IN NSEC3PARAM 1 0 12 AABBCCDD",
	"example.com. 3600 IN SSHFP 4 2 123456789ABCDEF67890123456789ABCDEF67890123456789ABCDEF123456789",
	"_443._tcp.example.com. 3600 IN TLSA 3 1 1 0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF",
	"example.com. 3600 IN SMIMEA 3 1 1 0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF",
	"example.com. 3600 IN CERT 1 12345 8 MTIzNDU2Nzg5MA==",
	"example.com. 3600 IN DHCID AAIBY2/AuCccgoJbsaxcQc9TUapptP69lOjxfNuVAA2kjEA=",
	"example.com. 3600 IN OPENPGPKEY bW9ja2tleWJ5dGVz",
	"example.com. 3600 IN NAPTR 100 50 \"s\" \"SIP+D2U\" \"\" _sip._udp.example.com.",
	"example.com. 3600 IN CAA 0 issue \"letsencrypt.org\"",
	"example.com. 3600 IN URI 10 1 \"https://example.com/\"",
	"example.com. 3600 IN LOC 52 22 23.000 N 4 53 32.000 E 2.00m 1.00m 10000.00m 10.00m",
	"example.com. 3600 IN CSYNC 2024010101 3 A NS AAAA",
	"example.com. 3600 IN EUI48 00-11-22-33-44-55",
	"example.com. 3600 IN EUI64 00-11-22-33-44-55-66-77",
	"example.com. 3600 IN NID 10 14:4fff:ff20:ee64",
	"example.com. 3600 IN L32 10 10.1.2.0",
	"example.com. 3600 IN L64 10 2001:db8:1140:1000",
	"example.com. 3600 IN LP 10 l64-subnet.example.com.",
	"example.com. 3600 IN HIP 2 200100107B1A74DF365639CC39F1D578 dGVzdGtleWJ5dGVz rvs.example.com.",
}

func TestRRWireRoundTrip(t *testing.T) {
	for _, s := range rrSamples {
		roundTripWire(t, s)
	}
}

func TestRRTextRoundTrip(t *testing.T) {
	for _, s := range rrSamples {
		roundTripText(t, s)
	}
}

func TestRRTypedFields(t *testing.T) {
	rr := roundTripWire(t, "example.com. 3600 IN MX 10 mail.example.com.")
	mx, ok := rr.(*MX)
	require.True(t, ok)
	assert.Equal(t, uint16(10), mx.Preference)
	assert.Equal(t, "mail.example.com", mx.Mx)
	assert.Equal(t, TypeMX, mx.Header().Type)

	rr = roundTripWire(t, "example.com. 3600 IN A 192.0.2.1")
	a, ok := rr.(*A)
	require.True(t, ok)
	assert.Equal(t, "192.0.2.1", a.Address.String())

	rr = roundTripWire(t, "example.com. 3600 IN SOA ns1.example.com. hostmaster.example.com. 7 1 2 3 4")
	soa, ok := rr.(*SOA)
	require.True(t, ok)
	assert.Equal(t, uint32(7), soa.Serial)
	assert.Equal(t, uint32(4), soa.Minttl)
}

func TestUnknownTypeOpaque(t *testing.T) {
	rr, err := NewRR("example.com. 3600 IN TYPE4096 \\# 4 deadbeef")
	require.NoError(t, err)
	unknown, ok := rr.(*Unknown)
	require.True(t, ok)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, unknown.Data)

	out := roundTripWire(t, "example.com. 3600 IN TYPE4096 \\# 4 deadbeef")
	assert.Equal(t, uint16(4096), out.Header().Type)
}

func TestRdataBoundary(t *testing.T) {
	// An MX rdata whose declared RDLENGTH cuts the exchange name off
	// must fail, not read into the following record.
	msg := []byte{
		0, 1, 0x80, 0, 0, 0, 0, 1, 0, 0, 0, 0,
		1, 'a', 0, // owner
		0, 15, 0, 1, 0, 0, 0, 60, // MX IN TTL 60
		0, 3, // RDLENGTH 3: preference + a 1-octet stub
		0, 10, 3,
		'w', 'w', 'w', 0,
	}
	var m Msg
	require.Error(t, m.Unpack(msg))
}

func TestSectionCountMismatch(t *testing.T) {
	msg := &Msg{MsgHdr: MsgHdr{ID: 7}}
	msg.Question = []Question{{Name: "example.com", Qtype: TypeA, Qclass: ClassINET}}
	packed, err := msg.Pack()
	require.NoError(t, err)
	packed[7] = 2 // claim two answers that are not present
	var out Msg
	require.Error(t, out.Unpack(packed))
}

func TestOPTHeaderFields(t *testing.T) {
	opt := &OPT{RRHeader: RRHeader{Name: ".", Type: TypeOPT}}
	opt.SetUDPSize(4000)
	opt.SetDo()
	opt.SetExtendedRcode(1)
	opt.SetVersion(0)
	assert.Equal(t, uint16(4000), opt.UDPSize())
	assert.True(t, opt.Do())
	assert.Equal(t, uint8(1), opt.ExtendedRcode())

	opt.Options = append(opt.Options,
		&EDNS0Cookie{Cookie: "0102030405060708"},
		&EDNS0NSID{},
	)
	msg := &Msg{MsgHdr: MsgHdr{ID: 9}, Extra: []RR{opt}}
	packed, err := msg.Pack()
	require.NoError(t, err)
	var out Msg
	require.NoError(t, out.Unpack(packed))
	got := out.IsEdns0()
	require.NotNil(t, got)
	assert.True(t, got.Do())
	assert.Equal(t, uint16(4000), got.UDPSize())
	require.Len(t, got.Options, 2)
	cookie, ok := got.Options[0].(*EDNS0Cookie)
	require.True(t, ok)
	assert.Equal(t, "0102030405060708", cookie.Cookie)
}

func TestTSIGRecordRoundTrip(t *testing.T) {
	tsig := &TSIG{
		RRHeader:   RRHeader{Name: "key.example", Type: TypeTSIG, Class: ClassANY},
		Algorithm:  HmacSHA256,
		TimeSigned: 1700000000,
		Fudge:      300,
		MAC:        "00112233445566778899aabbccddeeff",
		OrigID:     4242,
	}
	msg := &Msg{MsgHdr: MsgHdr{ID: 4242}, Extra: []RR{tsig}}
	packed, err := msg.Pack()
	require.NoError(t, err)
	var out Msg
	require.NoError(t, out.Unpack(packed))
	got, ok := out.Extra[0].(*TSIG)
	require.True(t, ok)
	assert.Equal(t, tsig.Algorithm, got.Algorithm)
	assert.Equal(t, tsig.TimeSigned, got.TimeSigned)
	assert.Equal(t, tsig.MAC, got.MAC)
	assert.Equal(t, uint16(4242), got.OrigID)
}
