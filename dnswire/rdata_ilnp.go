package dnswire

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// The ILNP record family (RFC 6742) plus HIP (RFC 8005).

func init() {
	registerType(TypeHIP, func() RR { return new(HIP) })
	registerType(TypeNID, func() RR { return new(NID) })
	registerType(TypeL32, func() RR { return new(L32) })
	registerType(TypeL64, func() RR { return new(L64) })
	registerType(TypeLP, func() RR { return new(LP) })
}

// lociString renders a 64-bit value as four colon-separated hex groups,
// the ILNP presentation form.
func lociString(v uint64) string {
	return fmt.Sprintf("%x:%x:%x:%x",
		uint16(v>>48), uint16(v>>32), uint16(v>>16), uint16(v))
}

func parseLoci(tok string) (uint64, error) {
	parts := strings.Split(tok, ":")
	if len(parts) != 4 {
		return 0, ParseErrorf("bad 64-bit locator %q", tok)
	}
	var v uint64
	for _, part := range parts {
		n, err := strconv.ParseUint(part, 16, 16)
		if err != nil {
			return 0, ParseErrorf("bad locator group %q", part)
		}
		v = v<<16 | n
	}
	return v, nil
}

// HIP publishes a host identity (RFC 8005). Rendezvous server names
// never compress.
type HIP struct {
	RRHeader
	PublicKeyAlgorithm uint8
	Hit                string
	PublicKey          string
	RendezvousServers  []string
}

func (rr *HIP) String() string {
	s := rr.headerString() + itoa8(rr.PublicKeyAlgorithm) + " " +
		strings.ToUpper(rr.Hit) + " " + rr.PublicKey
	for _, rv := range rr.RendezvousServers {
		s += " " + dot(rv)
	}
	return s
}

func (rr *HIP) parse(tokens []string) error {
	if err := needTokens(tokens, 3, TypeHIP); err != nil {
		return err
	}
	alg, err := tokenUint8(tokens[0])
	if err != nil {
		return err
	}
	hit := strings.ToLower(tokens[1])
	if _, err := hex.DecodeString(hit); err != nil {
		return ParseErrorf("bad HIT hex: %v", err)
	}
	if _, err := base64.StdEncoding.DecodeString(tokens[2]); err != nil {
		return ParseErrorf("bad HIP public key base64: %v", err)
	}
	rr.PublicKeyAlgorithm = alg
	rr.Hit = hit
	rr.PublicKey = tokens[2]
	rr.RendezvousServers = nil
	for _, tok := range tokens[3:] {
		rr.RendezvousServers = append(rr.RendezvousServers, strings.TrimSuffix(tok, "."))
	}
	return nil
}

func (rr *HIP) pack(p *packer) error {
	hit, err := hex.DecodeString(rr.Hit)
	if err != nil {
		return ParseErrorf("bad HIT hex: %v", err)
	}
	key, err := base64.StdEncoding.DecodeString(rr.PublicKey)
	if err != nil {
		return ParseErrorf("bad HIP public key base64: %v", err)
	}
	if len(hit) > 255 || len(key) > 0xFFFF {
		return ParseErrorf("HIP field too long")
	}
	p.uint8(uint8(len(hit)))
	p.uint8(rr.PublicKeyAlgorithm)
	p.uint16(uint16(len(key)))
	p.bytes(hit)
	p.bytes(key)
	for _, rv := range rr.RendezvousServers {
		if err := p.name(rv, false); err != nil {
			return err
		}
	}
	return nil
}

func (rr *HIP) unpack(msg []byte, off, end int) error {
	hitLen, off, err := unpackUint8(msg, off)
	if err != nil {
		return err
	}
	rr.PublicKeyAlgorithm, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	keyLen, off, err := unpackUint16(msg, off)
	if err != nil {
		return err
	}
	hit, off, err := unpackBytes(msg, off, int(hitLen))
	if err != nil {
		return err
	}
	key, off, err := unpackBytes(msg, off, int(keyLen))
	if err != nil {
		return err
	}
	rr.Hit = hex.EncodeToString(hit)
	rr.PublicKey = base64.StdEncoding.EncodeToString(key)
	rr.RendezvousServers = nil
	for off < end {
		var rv string
		rv, off, err = unpackDomainName(msg, off)
		if err != nil {
			return err
		}
		rr.RendezvousServers = append(rr.RendezvousServers, rv)
	}
	return nil
}

// NID carries an ILNP node identifier.
type NID struct {
	RRHeader
	Preference uint16
	NodeID     uint64
}

func (rr *NID) String() string {
	return rr.headerString() + itoa16(rr.Preference) + " " + lociString(rr.NodeID)
}

func (rr *NID) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeNID); err != nil {
		return err
	}
	pref, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	id, err := parseLoci(tokens[1])
	if err != nil {
		return err
	}
	rr.Preference, rr.NodeID = pref, id
	return nil
}

func (rr *NID) pack(p *packer) error {
	p.uint16(rr.Preference)
	p.uint32(uint32(rr.NodeID >> 32))
	p.uint32(uint32(rr.NodeID))
	return nil
}

func (rr *NID) unpack(msg []byte, off, end int) error {
	var err error
	rr.Preference, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	hi, off, err := unpackUint32(msg, off)
	if err != nil {
		return err
	}
	lo, off, err := unpackUint32(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("NID rdata has trailing octets")
	}
	rr.NodeID = uint64(hi)<<32 | uint64(lo)
	return nil
}

// L32 carries a 32-bit ILNP locator in IPv4 notation.
type L32 struct {
	RRHeader
	Preference uint16
	Locator32  net.IP
}

func (rr *L32) String() string {
	return rr.headerString() + itoa16(rr.Preference) + " " + rr.Locator32.String()
}

func (rr *L32) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeL32); err != nil {
		return err
	}
	pref, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	ip := net.ParseIP(tokens[1])
	if ip == nil || ip.To4() == nil {
		return ParseErrorf("bad L32 locator %q", tokens[1])
	}
	rr.Preference, rr.Locator32 = pref, ip.To4()
	return nil
}

func (rr *L32) pack(p *packer) error {
	p.uint16(rr.Preference)
	ip := rr.Locator32.To4()
	if ip == nil {
		return ParseErrorf("L32 locator is not 32 bits")
	}
	p.bytes(ip)
	return nil
}

func (rr *L32) unpack(msg []byte, off, end int) error {
	var err error
	rr.Preference, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	b, off, err := unpackBytes(msg, off, net.IPv4len)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("L32 rdata has trailing octets")
	}
	rr.Locator32 = net.IP(b)
	return nil
}

// L64 carries a 64-bit ILNP locator.
type L64 struct {
	RRHeader
	Preference uint16
	Locator64  uint64
}

func (rr *L64) String() string {
	return rr.headerString() + itoa16(rr.Preference) + " " + lociString(rr.Locator64)
}

func (rr *L64) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeL64); err != nil {
		return err
	}
	pref, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	loc, err := parseLoci(tokens[1])
	if err != nil {
		return err
	}
	rr.Preference, rr.Locator64 = pref, loc
	return nil
}

func (rr *L64) pack(p *packer) error {
	p.uint16(rr.Preference)
	p.uint32(uint32(rr.Locator64 >> 32))
	p.uint32(uint32(rr.Locator64))
	return nil
}

func (rr *L64) unpack(msg []byte, off, end int) error {
	var err error
	rr.Preference, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	hi, off, err := unpackUint32(msg, off)
	if err != nil {
		return err
	}
	lo, off, err := unpackUint32(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("L64 rdata has trailing octets")
	}
	rr.Locator64 = uint64(hi)<<32 | uint64(lo)
	return nil
}

// LP points at an ILNP subnetwork name; the name never compresses.
type LP struct {
	RRHeader
	Preference uint16
	Fqdn       string
}

func (rr *LP) String() string {
	return rr.headerString() + itoa16(rr.Preference) + " " + dot(rr.Fqdn)
}

func (rr *LP) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeLP); err != nil {
		return err
	}
	pref, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	rr.Preference = pref
	rr.Fqdn = strings.TrimSuffix(tokens[1], ".")
	return nil
}

func (rr *LP) pack(p *packer) error {
	p.uint16(rr.Preference)
	return p.name(rr.Fqdn, false)
}

func (rr *LP) unpack(msg []byte, off, end int) error {
	var err error
	rr.Preference, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Fqdn, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("LP rdata has trailing octets")
	}
	return nil
}
