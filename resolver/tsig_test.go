package resolver

import (
	"encoding/base64"
	"encoding/hex"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/powerman/check"

	"github.com/querist/dnsq/dnswire"
)

const testTSIGSecret = "c2hhcmVkc2VjcmV0c2hhcmVkc2VjcmV0" // "sharedsecretsharedsecret"

func packedQuery(t *check.C) []byte {
	msg := new(dnswire.Msg).SetQuestion("example.com", dnswire.TypeSOA)
	packed, err := msg.Pack()
	t.Nil(err)
	return packed
}

func TestTSIGSignVerifyAllAlgorithms(tt *testing.T) {
	t := check.T(tt)
	algorithms := []string{
		dnswire.HmacMD5,
		dnswire.HmacSHA1,
		dnswire.HmacSHA224,
		dnswire.HmacSHA256,
		dnswire.HmacSHA384,
		dnswire.HmacSHA512,
	}
	for _, algorithm := range algorithms {
		key, err := NewTSIGKey("testkey.example", algorithm, testTSIGSecret)
		t.Nil(err, algorithm)
		packed := packedQuery(t)
		signed, tsig, err := key.Sign(packed, "")
		t.Nil(err, algorithm)
		t.Must(len(signed) > len(packed), algorithm)
		t.Equal(tsig.OrigID, dnswire.PacketID(packed), algorithm)
		t.Nil(key.Verify(signed, ""), algorithm)
	}
}

func TestTSIGVerifyRejectsTampering(tt *testing.T) {
	t := check.T(tt)
	key, err := NewTSIGKey("testkey.example", dnswire.HmacSHA256, testTSIGSecret)
	t.Nil(err)
	packed := packedQuery(t)
	signed, _, err := key.Sign(packed, "")
	t.Nil(err)

	tampered := append([]byte(nil), signed...)
	tampered[13] ^= 0xFF // flip a question byte
	err = key.Verify(tampered, "")
	t.NotNil(err)
	werr, ok := err.(*dnswire.Error)
	t.Must(ok)
	t.Equal(werr.Rcode, dnswire.RcodeBadSig)
}

func TestTSIGVerifyRejectsWrongKey(tt *testing.T) {
	t := check.T(tt)
	key, err := NewTSIGKey("testkey.example", dnswire.HmacSHA256, testTSIGSecret)
	t.Nil(err)
	other, err := NewTSIGKey("otherkey.example", dnswire.HmacSHA256, testTSIGSecret)
	t.Nil(err)
	signed, _, err := key.Sign(packedQuery(t), "")
	t.Nil(err)
	err = other.Verify(signed, "")
	t.NotNil(err)
	werr, ok := err.(*dnswire.Error)
	t.Must(ok)
	t.Equal(werr.Rcode, dnswire.RcodeBadKey)
}

func TestTSIGVerifyRejectsStaleTime(tt *testing.T) {
	t := check.T(tt)
	key, err := NewTSIGKey("testkey.example", dnswire.HmacSHA256, testTSIGSecret)
	t.Nil(err)
	packed := packedQuery(t)
	tsig := &dnswire.TSIG{
		RRHeader: dnswire.RRHeader{
			Name: key.Name, Type: dnswire.TypeTSIG, Class: dnswire.ClassANY,
		},
		Algorithm:  key.Algorithm,
		TimeSigned: uint64(time.Now().Unix()) - 86400,
		Fudge:      tsigFudge,
		OrigID:     dnswire.PacketID(packed),
	}
	mac, err := key.mac(packed, tsig, "")
	t.Nil(err)
	tsig.MAC = hex.EncodeToString(mac)
	signed, err := dnswire.AppendRR(packed, tsig)
	t.Nil(err)
	err = key.Verify(signed, "")
	t.NotNil(err)
	werr, ok := err.(*dnswire.Error)
	t.Must(ok)
	t.Equal(werr.Rcode, dnswire.RcodeBadTime)
}

func TestTSIGBadSecret(tt *testing.T) {
	t := check.T(tt)
	_, err := NewTSIGKey("k.example", dnswire.HmacSHA256, "***not-base64***")
	t.NotNil(err)
	_, err = NewTSIGKey("k.example", "hmac-sm3", testTSIGSecret)
	t.NotNil(err)
	werr, ok := err.(*dnswire.Error)
	t.Must(ok)
	t.Equal(werr.Kind, dnswire.KindCryptoAlgorithm)
}

// End to end against a server that verifies our request signature with
// an independent implementation and signs its response.
func TestTSIGExchangeInterop(tt *testing.T) {
	t := check.T(tt)
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	t.Nil(err)
	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		if w.TsigStatus() != nil {
			m.SetRcode(req, dns.RcodeNotAuth)
			w.WriteMsg(m)
			return
		}
		m.SetReply(req)
		m.Answer = []dns.RR{&dns.A{
			Hdr: dns.RR_Header{Name: req.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
			A:   net.IPv4(192, 0, 2, 77),
		}}
		m.SetTsig("testkey.example.", dns.HmacSHA256, 300, time.Now().Unix())
		w.WriteMsg(m)
	})
	server := &dns.Server{
		PacketConn: pc,
		Handler:    handler,
		TsigSecret: map[string]string{"testkey.example.": testTSIGSecret},
	}
	go server.ActivateAndServe()
	defer server.Shutdown()

	r := newTestResolver(t, Config{Nameservers: []string{pc.LocalAddr().String()}})
	defer r.Close()
	t.Nil(r.UseTSIG("testkey.example", dnswire.HmacSHA256, testTSIGSecret))
	resp, err := r.Query("example.com", dnswire.TypeA)
	t.Nil(err)
	t.Must(len(resp.Answer) == 1)
}

func TestTSIGSecretDecoding(tt *testing.T) {
	t := check.T(tt)
	key, err := NewTSIGKey("k.example", "", testTSIGSecret)
	t.Nil(err)
	t.Equal(key.Algorithm, dnswire.HmacMD5)
	raw, err := base64.StdEncoding.DecodeString(testTSIGSecret)
	t.Nil(err)
	t.DeepEqual(key.Secret, raw)
}
