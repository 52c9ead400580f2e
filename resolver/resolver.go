// Package resolver drives DNS queries, dynamic updates and zone
// transfers against a configured set of name servers, with UDP to TCP
// escalation on truncation, per-server failure tracking, optional
// response caching and TSIG / SIG(0) request signing.
package resolver

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jedisct1/dlog"
	clocksmith "github.com/jedisct1/go-clocksmith"
	stamps "github.com/jedisct1/go-dnsstamps"
	"golang.org/x/net/idna"

	"github.com/querist/dnsq/dnswire"
	"github.com/querist/dnsq/transport"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

// Resolver sends DNS requests to its configured servers. One request
// is in flight per instance at a time; independent instances are safe
// to use from independent goroutines.
type Resolver struct {
	cfg      Config
	servers  *serversInfo
	client   *transport.Client
	cache    Cache
	tsigKey  *TSIGKey
	sig0Key  SignerKey
	queryLog io.Writer

	mu         sync.Mutex
	lastErrors map[string]error
}

// New builds a resolver from cfg. Nameserver entries are IP addresses,
// "ip:port" pairs, or sdns:// server stamps.
func New(cfg Config) (*Resolver, error) {
	cfg.applyDefaults()
	if cfg.UseResolvOptions {
		rc, err := ParseResolvConfFile(cfg.ResolvConf)
		if err != nil {
			return nil, err
		}
		rc.mergeInto(&cfg)
	}
	r := &Resolver{
		cfg:     cfg,
		servers: newServersInfo(),
		client:  transport.New(cfg.timeout()),
	}
	r.client.LocalPort = cfg.LocalPort
	if cfg.LocalHost != "" {
		ip := net.ParseIP(cfg.LocalHost)
		if ip == nil {
			return nil, &dnswire.Error{Kind: dnswire.KindNSSocket,
				Message: fmt.Sprintf("bad local host %q", cfg.LocalHost)}
		}
		r.client.LocalIP = ip
	}
	for _, entry := range cfg.Nameservers {
		addr, err := serverAddr(entry, cfg.Port)
		if err != nil {
			return nil, err
		}
		r.servers.register(addr)
	}
	cache, err := newCache(cfg.CacheType, cfg.CacheFile, cfg.CacheSerializer, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	r.cache = cache
	if cfg.QueryLogFile != "" {
		queryLog, err := openQueryLog(cfg)
		if err != nil {
			return nil, err
		}
		r.queryLog = queryLog
	}
	return r, nil
}

// serverAddr normalizes one nameserver entry into "ip:port".
func serverAddr(entry string, defaultPort int) (string, error) {
	entry = strings.TrimSpace(entry)
	if strings.HasPrefix(entry, "sdns://") {
		stamp, err := stamps.NewServerStampFromString(entry)
		if err != nil {
			return "", &dnswire.Error{Kind: dnswire.KindNSEntry, Message: entry, Err: err}
		}
		if stamp.ServerAddrStr == "" {
			return "", &dnswire.Error{Kind: dnswire.KindNSEntry,
				Message: fmt.Sprintf("stamp %q carries no server address", entry)}
		}
		entry = stamp.ServerAddrStr
	}
	if ip := net.ParseIP(entry); ip != nil {
		return net.JoinHostPort(entry, strconv.Itoa(defaultPort)), nil
	}
	host, port, err := net.SplitHostPort(entry)
	if err != nil || net.ParseIP(host) == nil {
		return "", &dnswire.Error{Kind: dnswire.KindNSEntry,
			Message: fmt.Sprintf("bad nameserver entry %q", entry)}
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", &dnswire.Error{Kind: dnswire.KindNSEntry,
			Message: fmt.Sprintf("bad nameserver port in %q", entry)}
	}
	return net.JoinHostPort(host, port), nil
}

// UseTSIG attaches a TSIG key; every subsequent request is signed and
// every response verified. The algorithm defaults to HMAC-MD5.
func (r *Resolver) UseTSIG(name, algorithm, secret string) error {
	key, err := NewTSIGKey(name, algorithm, secret)
	if err != nil {
		return err
	}
	r.tsigKey = key
	r.sig0Key = nil
	return nil
}

// UseSIG0 attaches a SIG(0) signing key from any key store.
func (r *Resolver) UseSIG0(key SignerKey) {
	r.sig0Key = key
	r.tsigKey = nil
}

// Close releases cached connections and the cache backend.
func (r *Resolver) Close() {
	r.client.Close()
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			dlog.Warnf("cache close: [%v]", err)
		}
	}
}

// LastErrors reports the per-server failures recorded during the most
// recent request.
func (r *Resolver) LastErrors() map[string]error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]error, len(r.lastErrors))
	for server, err := range r.lastErrors {
		out[server] = err
	}
	return out
}

// Query sends a class IN query for (name, qtype).
func (r *Resolver) Query(name string, qtype uint16) (*dnswire.Msg, error) {
	return r.QueryClass(name, qtype, dnswire.ClassINET)
}

// QueryClass sends a query, qualifying unqualified names through the
// search list or default domain.
func (r *Resolver) QueryClass(name string, qtype, qclass uint16) (*dnswire.Msg, error) {
	var lastErr error
	for _, candidate := range r.qualify(name) {
		msg := new(dnswire.Msg)
		msg.SetQuestion(candidate, qtype)
		msg.Question[0].Qclass = qclass
		msg.RecursionDesired = r.cfg.Recurse
		resp, err := r.Exchange(msg)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// qualify produces the lookup candidates for a name: the name itself
// when it is already dotted, otherwise one candidate per search suffix.
func (r *Resolver) qualify(name string) []string {
	name = strings.TrimSuffix(name, ".")
	if ascii, err := idna.ToASCII(name); err == nil && ascii != "" {
		name = ascii
	}
	if strings.Contains(name, ".") {
		return []string{name}
	}
	suffixes := r.cfg.SearchList
	if len(suffixes) == 0 && r.cfg.Domain != "" {
		suffixes = []string{r.cfg.Domain}
	}
	if len(suffixes) == 0 {
		return []string{name}
	}
	candidates := make([]string, len(suffixes))
	for i, suffix := range suffixes {
		candidates[i] = name + "." + strings.TrimSuffix(suffix, ".")
	}
	return candidates
}

// AXFR requests a full zone transfer. The result is never cached.
func (r *Resolver) AXFR(zone string) (*dnswire.Msg, error) {
	msg := new(dnswire.Msg)
	msg.SetQuestion(zone, dnswire.TypeAXFR)
	msg.RecursionDesired = false
	return r.Exchange(msg)
}

func (r *Resolver) maxUDPSize() int {
	if r.cfg.DNSSEC {
		return r.cfg.DNSSECPayloadSize
	}
	return transport.DefaultUDPSize
}

func cacheable(req *dnswire.Msg) bool {
	if req.Opcode != dnswire.OpcodeQuery || len(req.Question) != 1 {
		return false
	}
	switch req.Question[0].Qtype {
	case dnswire.TypeAXFR, dnswire.TypeIXFR, dnswire.TypeOPT, dnswire.TypeANY:
		return false
	}
	return true
}

// Exchange serializes req, walks the server list and returns the first
// valid response. Per-server failures are recorded, never raised; only
// when every server has failed does the last failure surface.
func (r *Resolver) Exchange(req *dnswire.Msg) (*dnswire.Msg, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.servers.empty() {
		return nil, &dnswire.Error{Kind: dnswire.KindNSFailed, Message: "no name servers configured", Request: req}
	}
	if len(req.Question) == 0 {
		return nil, &dnswire.Error{Kind: dnswire.KindPacketInvalid, Message: "request has no question", Request: req}
	}
	if req.ID == 0 {
		id, err := dnswire.RandomID()
		if err != nil {
			return nil, err
		}
		req.ID = id
	}
	if r.cfg.DNSSEC && req.IsEdns0() == nil {
		opt := &dnswire.OPT{RRHeader: dnswire.RRHeader{
			Name: ".", Type: dnswire.TypeOPT, Class: uint16(r.cfg.DNSSECPayloadSize),
		}}
		opt.SetDo()
		req.Extra = append(req.Extra, opt)
	}
	req.AuthenticatedData = r.cfg.DNSSECADFlag
	req.CheckingDisabled = r.cfg.DNSSECCDFlag

	key := cacheKey(req.Question[0])
	if r.cache != nil && cacheable(req) {
		if cached, ok := r.cache.Get(key); ok {
			dlog.Debugf("cache hit for [%v]", key)
			cached.ID = req.ID
			return cached, nil
		}
	}

	packed, err := req.Pack()
	if err != nil {
		return nil, err
	}
	requestMAC := ""
	switch {
	case r.tsigKey != nil:
		var tsig *dnswire.TSIG
		packed, tsig, err = r.tsigKey.Sign(packed, "")
		if err != nil {
			return nil, err
		}
		requestMAC = tsig.MAC
	case r.sig0Key != nil:
		packed, err = sig0Sign(packed, r.sig0Key)
		if err != nil {
			return nil, err
		}
	}

	axfr := req.Question[0].Qtype == dnswire.TypeAXFR
	servers := r.servers.order(r.cfg.NSRandom, r.cfg.SortByRTT)
	r.lastErrors = make(map[string]error, len(servers))
	var lastErr error
	for attempt := 0; attempt < r.cfg.Attempts; attempt++ {
		if attempt > 0 {
			clocksmith.Sleep(r.cfg.retryDelay())
		}
		for _, server := range servers {
			resp, err := r.exchangeServer(server, packed, req, requestMAC, axfr)
			if err != nil {
				dlog.Debugf("server [%v] failed: [%v]", server, err)
				r.lastErrors[server] = err
				lastErr = err
				continue
			}
			if r.cfg.StrictQueryMode {
				filterStrict(resp, req.Question[0])
			}
			r.logQuery(server, req, resp)
			if r.cache != nil && cacheable(req) {
				if ttl, ok := responseTTL(resp); ok {
					r.cache.Put(key, resp, ttl)
				}
			}
			return resp, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &dnswire.Error{Kind: dnswire.KindNSFailed, Message: "all name servers failed", Request: req}
}

// exchangeServer performs one request/response against a single
// server, escalating from UDP to TCP when the reply is truncated.
func (r *Resolver) exchangeServer(server string, packed []byte, req *dnswire.Msg, requestMAC string, axfr bool) (*dnswire.Msg, error) {
	start := time.Now()
	var resp *dnswire.Msg
	if axfr {
		msg, err := r.client.ExchangeAXFR(server, packed)
		if err != nil {
			return nil, err
		}
		resp = msg
	} else {
		useTCP := r.cfg.UseTCP || len(packed) > r.maxUDPSize()
		var raw []byte
		var err error
		if useTCP {
			raw, err = r.client.ExchangeTCP(server, packed)
		} else {
			raw, err = r.client.ExchangeUDP(server, packed, r.maxUDPSize())
			if err == nil && dnswire.HasTCFlag(raw) {
				dlog.Debugf("response from [%v] truncated, retrying over TCP", server)
				raw, err = r.client.ExchangeTCP(server, packed)
			}
		}
		if err != nil {
			return nil, err
		}
		resp = new(dnswire.Msg)
		if err := resp.Unpack(raw); err != nil {
			return nil, err
		}
		if r.tsigKey != nil {
			if err := r.tsigKey.Verify(raw, requestMAC); err != nil {
				return nil, err
			}
		}
	}
	if err := validateResponse(req, packed, resp); err != nil {
		return nil, err
	}
	r.servers.recordRtt(server, time.Since(start))
	return resp, nil
}

// validateResponse applies the header checks of a returned message:
// matching ID, QR set, matching opcode, NOERROR status.
func validateResponse(req *dnswire.Msg, packed []byte, resp *dnswire.Msg) error {
	if resp.ID != dnswire.PacketID(packed) {
		err := dnswire.HeaderErrorf("response ID %d does not match request ID %d",
			resp.ID, dnswire.PacketID(packed))
		err.Request, err.Response = req, resp
		return err
	}
	if !resp.Response {
		err := dnswire.HeaderErrorf("response QR bit not set")
		err.Request, err.Response = req, resp
		return err
	}
	if resp.Opcode != req.Opcode {
		err := dnswire.HeaderErrorf("response opcode %s does not match request opcode %s",
			dnswire.OpcodeToString(resp.Opcode), dnswire.OpcodeToString(req.Opcode))
		err.Request, err.Response = req, resp
		return err
	}
	if resp.Rcode != dnswire.RcodeSuccess {
		return dnswire.RcodeError(resp.Rcode, req, resp)
	}
	return nil
}

// filterStrict drops answers whose owner differs from the question
// name.
func filterStrict(resp *dnswire.Msg, q dnswire.Question) {
	want := dnswire.CanonicalName(q.Name)
	kept := resp.Answer[:0]
	for _, rr := range resp.Answer {
		if dnswire.CanonicalName(rr.Header().Name) == want {
			kept = append(kept, rr)
		}
	}
	resp.Answer = kept
}

// responseTTL derives a cache lifetime: the minimum TTL across the
// answer section.
func responseTTL(resp *dnswire.Msg) (uint32, bool) {
	if len(resp.Answer) == 0 {
		return 0, false
	}
	ttl := resp.Answer[0].Header().TTL
	for _, rr := range resp.Answer[1:] {
		if rr.Header().TTL < ttl {
			ttl = rr.Header().TTL
		}
	}
	return ttl, ttl > 0
}
