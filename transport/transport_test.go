package transport

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/jedisct1/dlog"
	"github.com/miekg/dns"
	"github.com/powerman/check"

	"github.com/querist/dnsq/dnswire"
)

func init() {
	dlog.Init("transport_test", dlog.SeverityError, "")
}

func startServerUDP(handler dns.Handler) (*dns.Server, string, error) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		return nil, "", err
	}
	server := &dns.Server{PacketConn: pc, Handler: handler}
	go server.ActivateAndServe()
	return server, pc.LocalAddr().String(), nil
}

func startServerTCP(handler dns.Handler) (*dns.Server, string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, "", err
	}
	server := &dns.Server{Listener: l, Handler: handler}
	go server.ActivateAndServe()
	return server, l.Addr().String(), nil
}

func fakeAHandler(w dns.ResponseWriter, req *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(req)
	m.Answer = []dns.RR{&dns.A{
		Hdr: dns.RR_Header{Name: req.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
		A:   net.IPv4(192, 0, 2, 1),
	}}
	w.WriteMsg(m)
}

func testQuery() ([]byte, uint16) {
	msg := new(dnswire.Msg).SetQuestion("example.com", dnswire.TypeA)
	packed, _ := msg.Pack()
	return packed, msg.ID
}

func TestExchangeUDP(tt *testing.T) {
	t := check.T(tt)
	server, addr, err := startServerUDP(dns.HandlerFunc(fakeAHandler))
	t.Nil(err)
	defer server.Shutdown()

	client := New(2 * time.Second)
	defer client.Close()
	query, id := testQuery()
	raw, err := client.ExchangeUDP(addr, query, DefaultUDPSize)
	t.Nil(err)
	resp := new(dnswire.Msg)
	t.Nil(resp.Unpack(raw))
	t.Equal(resp.ID, id)
	t.Must(resp.Response)
	t.Must(len(resp.Answer) == 1)
}

func TestExchangeUDPTimeout(tt *testing.T) {
	t := check.T(tt)
	// A bound socket nobody serves.
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	t.Nil(err)
	defer pc.Close()

	client := New(200 * time.Millisecond)
	defer client.Close()
	query, _ := testQuery()
	_, err = client.ExchangeUDP(pc.LocalAddr().String(), query, DefaultUDPSize)
	t.NotNil(err)
	werr, ok := err.(*dnswire.Error)
	t.Must(ok)
	t.Equal(werr.Kind, dnswire.KindTimeout)
}

func TestExchangeTCP(tt *testing.T) {
	t := check.T(tt)
	server, addr, err := startServerTCP(dns.HandlerFunc(fakeAHandler))
	t.Nil(err)
	defer server.Shutdown()

	client := New(2 * time.Second)
	defer client.Close()
	query, id := testQuery()
	raw, err := client.ExchangeTCP(addr, query)
	t.Nil(err)
	resp := new(dnswire.Msg)
	t.Nil(resp.Unpack(raw))
	t.Equal(resp.ID, id)

	// The connection must be kept for the next exchange.
	client.Lock()
	t.Equal(len(client.tcpConns), 1)
	client.Unlock()
	query2, id2 := testQuery()
	raw, err = client.ExchangeTCP(addr, query2)
	t.Nil(err)
	t.Nil(resp.Unpack(raw))
	t.Equal(resp.ID, id2)
	client.Lock()
	t.Equal(len(client.tcpConns), 1)
	client.Unlock()
}

func TestShortRequestRejected(tt *testing.T) {
	t := check.T(tt)
	client := New(time.Second)
	defer client.Close()
	_, err := client.ExchangeUDP("127.0.0.1:53", []byte{1, 2, 3}, DefaultUDPSize)
	t.NotNil(err)
	werr, ok := err.(*dnswire.Error)
	t.Must(ok)
	t.Equal(werr.Kind, dnswire.KindPacketInvalid)
}

// axfrChunk builds one zone-transfer message for the fake server.
func axfrChunk(id uint16, rrs ...dnswire.RR) []byte {
	msg := &dnswire.Msg{MsgHdr: dnswire.MsgHdr{ID: id, Response: true, Authoritative: true}}
	msg.Question = []dnswire.Question{{Name: "example.com", Qtype: dnswire.TypeAXFR, Qclass: dnswire.ClassINET}}
	msg.Answer = rrs
	packed, err := msg.Pack()
	if err != nil {
		panic(err)
	}
	return packed
}

func soaRR() dnswire.RR {
	rr, err := dnswire.NewRR("example.com. 3600 IN SOA ns1.example.com. host.example.com. 1 2 3 4 5")
	if err != nil {
		panic(err)
	}
	return rr
}

func aRR(name string) dnswire.RR {
	rr, err := dnswire.NewRR(name + " 3600 IN A 192.0.2.7")
	if err != nil {
		panic(err)
	}
	return rr
}

// startAXFRServer answers a single transfer with the given chunk
// builder.
func startAXFRServer(t *check.C, chunks func(id uint16) [][]byte) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	t.Nil(err)
	go func() {
		defer l.Close()
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var lenBuf [2]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		query := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
		if _, err := io.ReadFull(conn, query); err != nil {
			return
		}
		id := binary.BigEndian.Uint16(query[:2])
		for _, chunk := range chunks(id) {
			binary.BigEndian.PutUint16(lenBuf[:], uint16(len(chunk)))
			conn.Write(lenBuf[:])
			conn.Write(chunk)
		}
	}()
	return l.Addr().String()
}

func TestExchangeAXFRMultiChunk(tt *testing.T) {
	t := check.T(tt)
	addr := startAXFRServer(t, func(id uint16) [][]byte {
		return [][]byte{
			axfrChunk(id, soaRR(), aRR("one.example.com.")),
			axfrChunk(id, aRR("two.example.com.")),
			axfrChunk(id, aRR("three.example.com."), soaRR()),
		}
	})
	client := New(2 * time.Second)
	defer client.Close()

	msg := new(dnswire.Msg).SetQuestion("example.com", dnswire.TypeAXFR)
	msg.RecursionDesired = false
	packed, err := msg.Pack()
	t.Nil(err)
	resp, err := client.ExchangeAXFR(addr, packed)
	t.Nil(err)
	t.Equal(len(resp.Answer), 5)
	soas := 0
	for _, rr := range resp.Answer {
		if rr.Header().Type == dnswire.TypeSOA {
			soas++
		}
	}
	t.Equal(soas, 2)
}

func TestExchangeAXFRSingleChunk(tt *testing.T) {
	t := check.T(tt)
	addr := startAXFRServer(t, func(id uint16) [][]byte {
		return [][]byte{axfrChunk(id, soaRR(), aRR("one.example.com."), soaRR())}
	})
	client := New(2 * time.Second)
	defer client.Close()

	msg := new(dnswire.Msg).SetQuestion("example.com", dnswire.TypeAXFR)
	packed, err := msg.Pack()
	t.Nil(err)
	resp, err := client.ExchangeAXFR(addr, packed)
	t.Nil(err)
	t.Equal(len(resp.Answer), 3)
}

func TestExchangeAXFRRcodeError(tt *testing.T) {
	t := check.T(tt)
	addr := startAXFRServer(t, func(id uint16) [][]byte {
		msg := &dnswire.Msg{MsgHdr: dnswire.MsgHdr{ID: id, Response: true, Rcode: dnswire.RcodeRefused}}
		packed, err := msg.Pack()
		if err != nil {
			panic(err)
		}
		return [][]byte{packed}
	})
	client := New(2 * time.Second)
	defer client.Close()

	msg := new(dnswire.Msg).SetQuestion("example.com", dnswire.TypeAXFR)
	packed, err := msg.Pack()
	t.Nil(err)
	_, err = client.ExchangeAXFR(addr, packed)
	t.NotNil(err)
	werr, ok := err.(*dnswire.Error)
	t.Must(ok)
	t.Equal(werr.Kind, dnswire.KindRcode)
	t.Equal(werr.Rcode, dnswire.RcodeRefused)
}

func TestMain(m *testing.M) {
	check.TestMain(m)
}
