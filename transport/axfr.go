package transport

import (
	"errors"
	"time"

	"github.com/jedisct1/dlog"

	"github.com/querist/dnsq/dnswire"
)

// ExchangeAXFR drives a zone transfer over TCP. The server streams the
// zone as a sequence of framed messages; the transfer is complete once
// two SOA records have been seen across the accumulated answer
// sections. All answers are concatenated into the first message, which
// is returned as the logical response.
func (c *Client) ExchangeAXFR(server string, packet []byte) (*dnswire.Msg, error) {
	if len(packet) < MinDNSPacketSize {
		return nil, &dnswire.Error{Kind: dnswire.KindPacketInvalid, Message: "request too short to send"}
	}
	conn, reused, err := c.tcpConn(server)
	if err != nil {
		return nil, err
	}
	conn.SetDeadline(time.Now().Add(c.Timeout))
	if err := writeFramed(conn, packet); err != nil {
		c.dropTCPConn(server, conn)
		return nil, wrapNetError(server, err)
	}

	var combined *dnswire.Msg
	soaSeen := 0
	chunks := 0
	for soaSeen < 2 {
		conn.SetDeadline(time.Now().Add(c.Timeout))
		frame, err := readFramed(conn)
		if err != nil {
			c.dropTCPConn(server, conn)
			var perr *dnswire.Error
			if errors.As(err, &perr) {
				return nil, perr
			}
			return nil, wrapNetError(server, err)
		}
		chunk := new(dnswire.Msg)
		if err := chunk.Unpack(frame); err != nil {
			c.dropTCPConn(server, conn)
			return nil, err
		}
		chunks++
		if combined == nil {
			if chunk.Rcode != dnswire.RcodeSuccess {
				c.dropTCPConn(server, conn)
				return nil, dnswire.RcodeError(chunk.Rcode, nil, chunk)
			}
			combined = chunk
		} else {
			combined.Answer = append(combined.Answer, chunk.Answer...)
		}
		for _, rr := range chunk.Answer {
			if rr.Header().Type == dnswire.TypeSOA {
				soaSeen++
			}
		}
		if len(chunk.Answer) == 0 && chunks > 1 && soaSeen < 2 {
			c.dropTCPConn(server, conn)
			return nil, dnswire.ParseErrorf("zone transfer chunk carries no answers")
		}
	}
	dlog.Debugf("AXFR from %s: %d chunks, %d records (conn reused: %v)",
		server, chunks, len(combined.Answer), reused)
	return combined, nil
}
