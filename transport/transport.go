// Package transport moves serialized DNS messages over UDP and TCP.
// TCP connections are cached per server and dropped on the first error;
// UDP sockets are opened per exchange.
package transport

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/jedisct1/dlog"

	"github.com/querist/dnsq/dnswire"
)

const (
	// MinDNSPacketSize is the bare header; anything shorter is not a
	// message.
	MinDNSPacketSize = 12
	// MaxDNSPacketSize bounds a single read.
	MaxDNSPacketSize = 65535
	// DefaultUDPSize is the classic RFC 1035 payload limit.
	DefaultUDPSize = 512
)

// Client exchanges packets with name servers. The zero value is not
// usable; call New.
type Client struct {
	Timeout   time.Duration
	LocalIP   net.IP
	LocalPort int

	sync.Mutex
	tcpConns map[string]net.Conn
}

// New returns a client with the given I/O deadline per exchange.
func New(timeout time.Duration) *Client {
	return &Client{
		Timeout:  timeout,
		tcpConns: make(map[string]net.Conn),
	}
}

// Close drops every cached TCP connection.
func (c *Client) Close() {
	c.Lock()
	defer c.Unlock()
	for server, conn := range c.tcpConns {
		conn.Close()
		delete(c.tcpConns, server)
	}
}

func (c *Client) localUDPAddr() *net.UDPAddr {
	if c.LocalIP == nil && c.LocalPort == 0 {
		return nil
	}
	return &net.UDPAddr{IP: c.LocalIP, Port: c.LocalPort}
}

func (c *Client) localTCPAddr() *net.TCPAddr {
	if c.LocalIP == nil && c.LocalPort == 0 {
		return nil
	}
	return &net.TCPAddr{IP: c.LocalIP, Port: c.LocalPort}
}

// wrapNetError classifies an I/O failure into the library error type.
func wrapNetError(server string, err error) *dnswire.Error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &dnswire.Error{Kind: dnswire.KindTimeout, Message: server, Err: err}
	}
	return &dnswire.Error{Kind: dnswire.KindSocketFailed, Message: server, Err: err}
}

// ExchangeUDP sends one datagram to server ("ip:port") and waits up to
// the client timeout for a single reply of at most maxSize bytes.
func (c *Client) ExchangeUDP(server string, packet []byte, maxSize int) ([]byte, error) {
	if len(packet) < MinDNSPacketSize {
		return nil, &dnswire.Error{Kind: dnswire.KindPacketInvalid, Message: "request too short to send"}
	}
	raddr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return nil, &dnswire.Error{Kind: dnswire.KindNSSocket, Message: server, Err: err}
	}
	conn, err := net.DialUDP("udp", c.localUDPAddr(), raddr)
	if err != nil {
		return nil, wrapNetError(server, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.Timeout))
	if _, err := conn.Write(packet); err != nil {
		return nil, wrapNetError(server, err)
	}
	if maxSize < DefaultUDPSize {
		maxSize = DefaultUDPSize
	}
	response := make([]byte, maxSize)
	n, err := conn.Read(response)
	if err != nil {
		return nil, wrapNetError(server, err)
	}
	if n < MinDNSPacketSize {
		return nil, dnswire.ParseErrorf("short response from %s (%d octets)", server, n)
	}
	dlog.Debugf("UDP exchange with %s: %d octets out, %d in", server, len(packet), n)
	return response[:n], nil
}

// tcpConn returns a cached connection to server or dials a fresh one.
func (c *Client) tcpConn(server string) (net.Conn, bool, error) {
	c.Lock()
	conn, ok := c.tcpConns[server]
	c.Unlock()
	if ok {
		return conn, true, nil
	}
	raddr, err := net.ResolveTCPAddr("tcp", server)
	if err != nil {
		return nil, false, &dnswire.Error{Kind: dnswire.KindNSSocket, Message: server, Err: err}
	}
	conn, err = net.DialTCP("tcp", c.localTCPAddr(), raddr)
	if err != nil {
		return nil, false, wrapNetError(server, err)
	}
	c.Lock()
	c.tcpConns[server] = conn
	c.Unlock()
	return conn, false, nil
}

// dropTCPConn closes and evicts a connection after any failure; it is
// never reused.
func (c *Client) dropTCPConn(server string, conn net.Conn) {
	conn.Close()
	c.Lock()
	if c.tcpConns[server] == conn {
		delete(c.tcpConns, server)
	}
	c.Unlock()
}

func writeFramed(conn net.Conn, packet []byte) error {
	framed := make([]byte, 2+len(packet))
	binary.BigEndian.PutUint16(framed, uint16(len(packet)))
	copy(framed[2:], packet)
	_, err := conn.Write(framed)
	return err
}

func readFramed(conn net.Conn) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint16(lenBuf[:])
	if length < MinDNSPacketSize {
		return nil, dnswire.ParseErrorf("short TCP frame (%d octets)", length)
	}
	response := make([]byte, length)
	if _, err := io.ReadFull(conn, response); err != nil {
		return nil, err
	}
	return response, nil
}

// ExchangeTCP sends a length-prefixed message and reads one framed
// response. A cached connection that fails is discarded and, if it was
// reused, the exchange is retried once on a fresh one.
func (c *Client) ExchangeTCP(server string, packet []byte) ([]byte, error) {
	if len(packet) < MinDNSPacketSize {
		return nil, &dnswire.Error{Kind: dnswire.KindPacketInvalid, Message: "request too short to send"}
	}
	for attempt := 0; ; attempt++ {
		conn, reused, err := c.tcpConn(server)
		if err != nil {
			return nil, err
		}
		conn.SetDeadline(time.Now().Add(c.Timeout))
		if err := writeFramed(conn, packet); err != nil {
			c.dropTCPConn(server, conn)
			if reused && attempt == 0 {
				continue
			}
			return nil, wrapNetError(server, err)
		}
		response, err := readFramed(conn)
		if err != nil {
			c.dropTCPConn(server, conn)
			if reused && attempt == 0 {
				continue
			}
			var perr *dnswire.Error
			if errors.As(err, &perr) {
				return nil, perr
			}
			return nil, wrapNetError(server, err)
		}
		dlog.Debugf("TCP exchange with %s: %d octets out, %d in (conn reused: %v)",
			server, len(packet), len(response), reused)
		return response, nil
	}
}
