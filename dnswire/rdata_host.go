package dnswire

import (
	"net"
	"sort"
	"strings"
)

// The classic RFC 1035 host records plus their close relatives.

func init() {
	registerType(TypeA, func() RR { return new(A) })
	registerType(TypeAAAA, func() RR { return new(AAAA) })
	registerType(TypeNS, func() RR { return new(NS) })
	registerType(TypeCNAME, func() RR { return new(CNAME) })
	registerType(TypePTR, func() RR { return new(PTR) })
	registerType(TypeDNAME, func() RR { return new(DNAME) })
	registerType(TypeMX, func() RR { return new(MX) })
	registerType(TypeKX, func() RR { return new(KX) })
	registerType(TypeAFSDB, func() RR { return new(AFSDB) })
	registerType(TypeRP, func() RR { return new(RP) })
	registerType(TypeSOA, func() RR { return new(SOA) })
	registerType(TypeSRV, func() RR { return new(SRV) })
	registerType(TypeTXT, func() RR { return new(TXT) })
	registerType(TypeSPF, func() RR { return new(SPF) })
	registerType(TypeAVC, func() RR { return new(AVC) })
	registerType(TypeHINFO, func() RR { return new(HINFO) })
	registerType(TypeWKS, func() RR { return new(WKS) })
}

// A is an IPv4 address record.
type A struct {
	RRHeader
	Address net.IP
}

func (rr *A) String() string { return rr.headerString() + rr.Address.String() }

func (rr *A) parse(tokens []string) error {
	if err := needTokens(tokens, 1, TypeA); err != nil {
		return err
	}
	ip := net.ParseIP(tokens[0])
	if ip == nil || ip.To4() == nil {
		return ParseErrorf("bad IPv4 address %q", tokens[0])
	}
	rr.Address = ip.To4()
	return nil
}

func (rr *A) pack(p *packer) error {
	ip := rr.Address.To4()
	if ip == nil {
		return ParseErrorf("A record address is not IPv4")
	}
	p.bytes(ip)
	return nil
}

func (rr *A) unpack(msg []byte, off, end int) error {
	b, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	if len(b) != net.IPv4len {
		return ParseErrorf("A rdata is %d octets, want 4", len(b))
	}
	rr.Address = net.IP(b)
	return nil
}

// AAAA is an IPv6 address record.
type AAAA struct {
	RRHeader
	Address net.IP
}

func (rr *AAAA) String() string { return rr.headerString() + rr.Address.String() }

func (rr *AAAA) parse(tokens []string) error {
	if err := needTokens(tokens, 1, TypeAAAA); err != nil {
		return err
	}
	ip := net.ParseIP(tokens[0])
	if ip == nil || ip.To16() == nil || ip.To4() != nil && !strings.Contains(tokens[0], ":") {
		return ParseErrorf("bad IPv6 address %q", tokens[0])
	}
	rr.Address = ip.To16()
	return nil
}

func (rr *AAAA) pack(p *packer) error {
	ip := rr.Address.To16()
	if ip == nil {
		return ParseErrorf("AAAA record address is not IPv6")
	}
	p.bytes(ip)
	return nil
}

func (rr *AAAA) unpack(msg []byte, off, end int) error {
	b, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	if len(b) != net.IPv6len {
		return ParseErrorf("AAAA rdata is %d octets, want 16", len(b))
	}
	rr.Address = net.IP(b)
	return nil
}

// singleName factors the records whose rdata is exactly one domain
// name; compress controls rdata-level pointer emission per RFC 3597.
type singleName struct {
	target   *string
	typ      uint16
	compress bool
}

func (sn singleName) parseName(tokens []string) error {
	if err := needTokens(tokens, 1, sn.typ); err != nil {
		return err
	}
	*sn.target = strings.TrimSuffix(tokens[0], ".")
	return nil
}

func (sn singleName) packName(p *packer) error {
	return p.name(*sn.target, sn.compress)
}

func (sn singleName) unpackName(msg []byte, off, end int) error {
	name, off, err := unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("%s rdata has trailing octets", TypeToString(sn.typ))
	}
	*sn.target = name
	return nil
}

// NS is a delegation record.
type NS struct {
	RRHeader
	Ns string
}

func (rr *NS) String() string { return rr.headerString() + dot(rr.Ns) }
func (rr *NS) parse(tokens []string) error {
	return singleName{&rr.Ns, TypeNS, true}.parseName(tokens)
}
func (rr *NS) pack(p *packer) error { return singleName{&rr.Ns, TypeNS, true}.packName(p) }
func (rr *NS) unpack(msg []byte, off, end int) error {
	return singleName{&rr.Ns, TypeNS, true}.unpackName(msg, off, end)
}

// CNAME is a canonical-name alias.
type CNAME struct {
	RRHeader
	Target string
}

func (rr *CNAME) String() string { return rr.headerString() + dot(rr.Target) }
func (rr *CNAME) parse(tokens []string) error {
	return singleName{&rr.Target, TypeCNAME, true}.parseName(tokens)
}
func (rr *CNAME) pack(p *packer) error { return singleName{&rr.Target, TypeCNAME, true}.packName(p) }
func (rr *CNAME) unpack(msg []byte, off, end int) error {
	return singleName{&rr.Target, TypeCNAME, true}.unpackName(msg, off, end)
}

// PTR maps an address back to a name.
type PTR struct {
	RRHeader
	Ptr string
}

func (rr *PTR) String() string { return rr.headerString() + dot(rr.Ptr) }
func (rr *PTR) parse(tokens []string) error {
	return singleName{&rr.Ptr, TypePTR, true}.parseName(tokens)
}
func (rr *PTR) pack(p *packer) error { return singleName{&rr.Ptr, TypePTR, true}.packName(p) }
func (rr *PTR) unpack(msg []byte, off, end int) error {
	return singleName{&rr.Ptr, TypePTR, true}.unpackName(msg, off, end)
}

// DNAME redirects a whole subtree; its target never compresses.
type DNAME struct {
	RRHeader
	Target string
}

func (rr *DNAME) String() string { return rr.headerString() + dot(rr.Target) }
func (rr *DNAME) parse(tokens []string) error {
	return singleName{&rr.Target, TypeDNAME, false}.parseName(tokens)
}
func (rr *DNAME) pack(p *packer) error { return singleName{&rr.Target, TypeDNAME, false}.packName(p) }
func (rr *DNAME) unpack(msg []byte, off, end int) error {
	return singleName{&rr.Target, TypeDNAME, false}.unpackName(msg, off, end)
}

// MX is a mail exchanger.
type MX struct {
	RRHeader
	Preference uint16
	Mx         string
}

func (rr *MX) String() string {
	return rr.headerString() + itoa16(rr.Preference) + " " + dot(rr.Mx)
}

func (rr *MX) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeMX); err != nil {
		return err
	}
	pref, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	rr.Preference = pref
	rr.Mx = strings.TrimSuffix(tokens[1], ".")
	return nil
}

func (rr *MX) pack(p *packer) error {
	p.uint16(rr.Preference)
	return p.name(rr.Mx, true)
}

func (rr *MX) unpack(msg []byte, off, end int) error {
	var err error
	rr.Preference, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Mx, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("MX rdata has trailing octets")
	}
	return nil
}

// KX is the key exchanger record (RFC 2230); no rdata compression.
type KX struct {
	RRHeader
	Preference uint16
	Exchanger  string
}

func (rr *KX) String() string {
	return rr.headerString() + itoa16(rr.Preference) + " " + dot(rr.Exchanger)
}

func (rr *KX) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeKX); err != nil {
		return err
	}
	pref, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	rr.Preference = pref
	rr.Exchanger = strings.TrimSuffix(tokens[1], ".")
	return nil
}

func (rr *KX) pack(p *packer) error {
	p.uint16(rr.Preference)
	return p.name(rr.Exchanger, false)
}

func (rr *KX) unpack(msg []byte, off, end int) error {
	var err error
	rr.Preference, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Exchanger, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("KX rdata has trailing octets")
	}
	return nil
}

// AFSDB locates AFS database servers (RFC 1183).
type AFSDB struct {
	RRHeader
	Subtype  uint16
	Hostname string
}

func (rr *AFSDB) String() string {
	return rr.headerString() + itoa16(rr.Subtype) + " " + dot(rr.Hostname)
}

func (rr *AFSDB) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeAFSDB); err != nil {
		return err
	}
	sub, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	rr.Subtype = sub
	rr.Hostname = strings.TrimSuffix(tokens[1], ".")
	return nil
}

func (rr *AFSDB) pack(p *packer) error {
	p.uint16(rr.Subtype)
	return p.name(rr.Hostname, false)
}

func (rr *AFSDB) unpack(msg []byte, off, end int) error {
	var err error
	rr.Subtype, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Hostname, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("AFSDB rdata has trailing octets")
	}
	return nil
}

// RP names a responsible person (RFC 1183).
type RP struct {
	RRHeader
	Mbox string
	Txt  string
}

func (rr *RP) String() string { return rr.headerString() + dot(rr.Mbox) + " " + dot(rr.Txt) }

func (rr *RP) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeRP); err != nil {
		return err
	}
	rr.Mbox = strings.TrimSuffix(tokens[0], ".")
	rr.Txt = strings.TrimSuffix(tokens[1], ".")
	return nil
}

func (rr *RP) pack(p *packer) error {
	if err := p.name(rr.Mbox, false); err != nil {
		return err
	}
	return p.name(rr.Txt, false)
}

func (rr *RP) unpack(msg []byte, off, end int) error {
	var err error
	rr.Mbox, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	rr.Txt, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("RP rdata has trailing octets")
	}
	return nil
}

// SOA marks the start of a zone of authority.
type SOA struct {
	RRHeader
	Ns      string
	Mbox    string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minttl  uint32
}

func (rr *SOA) String() string {
	return rr.headerString() + dot(rr.Ns) + " " + dot(rr.Mbox) + " " +
		itoa32(rr.Serial) + " " + itoa32(rr.Refresh) + " " + itoa32(rr.Retry) + " " +
		itoa32(rr.Expire) + " " + itoa32(rr.Minttl)
}

func (rr *SOA) parse(tokens []string) error {
	if err := needTokens(tokens, 7, TypeSOA); err != nil {
		return err
	}
	rr.Ns = strings.TrimSuffix(tokens[0], ".")
	rr.Mbox = strings.TrimSuffix(tokens[1], ".")
	for i, dst := range []*uint32{&rr.Serial, &rr.Refresh, &rr.Retry, &rr.Expire, &rr.Minttl} {
		v, err := tokenUint32(tokens[2+i])
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

func (rr *SOA) pack(p *packer) error {
	if err := p.name(rr.Ns, true); err != nil {
		return err
	}
	if err := p.name(rr.Mbox, true); err != nil {
		return err
	}
	p.uint32(rr.Serial)
	p.uint32(rr.Refresh)
	p.uint32(rr.Retry)
	p.uint32(rr.Expire)
	p.uint32(rr.Minttl)
	return nil
}

func (rr *SOA) unpack(msg []byte, off, end int) error {
	var err error
	rr.Ns, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	rr.Mbox, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	for _, dst := range []*uint32{&rr.Serial, &rr.Refresh, &rr.Retry, &rr.Expire, &rr.Minttl} {
		*dst, off, err = unpackUint32(msg, off)
		if err != nil {
			return err
		}
	}
	if off != end {
		return ParseErrorf("SOA rdata has trailing octets")
	}
	return nil
}

// SRV locates a service (RFC 2782); the target never compresses.
type SRV struct {
	RRHeader
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

func (rr *SRV) String() string {
	return rr.headerString() + itoa16(rr.Priority) + " " + itoa16(rr.Weight) + " " +
		itoa16(rr.Port) + " " + dot(rr.Target)
}

func (rr *SRV) parse(tokens []string) error {
	if err := needTokens(tokens, 4, TypeSRV); err != nil {
		return err
	}
	for i, dst := range []*uint16{&rr.Priority, &rr.Weight, &rr.Port} {
		v, err := tokenUint16(tokens[i])
		if err != nil {
			return err
		}
		*dst = v
	}
	rr.Target = strings.TrimSuffix(tokens[3], ".")
	return nil
}

func (rr *SRV) pack(p *packer) error {
	p.uint16(rr.Priority)
	p.uint16(rr.Weight)
	p.uint16(rr.Port)
	return p.name(rr.Target, false)
}

func (rr *SRV) unpack(msg []byte, off, end int) error {
	var err error
	for _, dst := range []*uint16{&rr.Priority, &rr.Weight, &rr.Port} {
		*dst, off, err = unpackUint16(msg, off)
		if err != nil {
			return err
		}
	}
	rr.Target, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("SRV rdata has trailing octets")
	}
	return nil
}

// TXT carries one or more character-strings.
type TXT struct {
	RRHeader
	Txt []string
}

func (rr *TXT) String() string { return rr.headerString() + quoteStrings(rr.Txt) }

func (rr *TXT) parse(tokens []string) error {
	if err := needTokens(tokens, 1, TypeTXT); err != nil {
		return err
	}
	rr.Txt = append([]string(nil), tokens...)
	return nil
}

func (rr *TXT) pack(p *packer) error { return packTxtStrings(p, rr.Txt) }

func (rr *TXT) unpack(msg []byte, off, end int) error {
	txt, err := unpackTxtStrings(msg, off, end)
	if err != nil {
		return err
	}
	rr.Txt = txt
	return nil
}

func packTxtStrings(p *packer, ss []string) error {
	for _, s := range ss {
		if err := p.charString(s); err != nil {
			return err
		}
	}
	return nil
}

func unpackTxtStrings(msg []byte, off, end int) ([]string, error) {
	var out []string
	for off < end {
		s, next, err := unpackCharString(msg, off)
		if err != nil {
			return nil, err
		}
		if next > end {
			return nil, ParseErrorf("character-string crosses rdata boundary")
		}
		out = append(out, s)
		off = next
	}
	return out, nil
}

// SPF is the retired sender-policy record; same shape as TXT.
type SPF struct {
	RRHeader
	Txt []string
}

func (rr *SPF) String() string { return rr.headerString() + quoteStrings(rr.Txt) }

func (rr *SPF) parse(tokens []string) error {
	if err := needTokens(tokens, 1, TypeSPF); err != nil {
		return err
	}
	rr.Txt = append([]string(nil), tokens...)
	return nil
}

func (rr *SPF) pack(p *packer) error { return packTxtStrings(p, rr.Txt) }

func (rr *SPF) unpack(msg []byte, off, end int) error {
	txt, err := unpackTxtStrings(msg, off, end)
	if err != nil {
		return err
	}
	rr.Txt = txt
	return nil
}

// AVC carries application visibility data; same shape as TXT.
type AVC struct {
	RRHeader
	Txt []string
}

func (rr *AVC) String() string { return rr.headerString() + quoteStrings(rr.Txt) }

func (rr *AVC) parse(tokens []string) error {
	if err := needTokens(tokens, 1, TypeAVC); err != nil {
		return err
	}
	rr.Txt = append([]string(nil), tokens...)
	return nil
}

func (rr *AVC) pack(p *packer) error { return packTxtStrings(p, rr.Txt) }

func (rr *AVC) unpack(msg []byte, off, end int) error {
	txt, err := unpackTxtStrings(msg, off, end)
	if err != nil {
		return err
	}
	rr.Txt = txt
	return nil
}

// HINFO describes host hardware and OS.
type HINFO struct {
	RRHeader
	CPU string
	OS  string
}

func (rr *HINFO) String() string {
	return rr.headerString() + quoteStrings([]string{rr.CPU, rr.OS})
}

func (rr *HINFO) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeHINFO); err != nil {
		return err
	}
	rr.CPU = tokens[0]
	rr.OS = tokens[1]
	return nil
}

func (rr *HINFO) pack(p *packer) error {
	if err := p.charString(rr.CPU); err != nil {
		return err
	}
	return p.charString(rr.OS)
}

func (rr *HINFO) unpack(msg []byte, off, end int) error {
	var err error
	rr.CPU, off, err = unpackCharString(msg, off)
	if err != nil {
		return err
	}
	rr.OS, off, err = unpackCharString(msg, off)
	if err != nil {
		return err
	}
	if off > end {
		return ParseErrorf("HINFO rdata crosses boundary")
	}
	return nil
}

// WKS lists well-known services on an IPv4 host (RFC 1035 §3.4.2).
type WKS struct {
	RRHeader
	Address  net.IP
	Protocol uint8
	Ports    []uint16
}

func (rr *WKS) String() string {
	parts := []string{rr.Address.String(), itoa8(rr.Protocol)}
	for _, port := range rr.Ports {
		parts = append(parts, itoa16(port))
	}
	return rr.headerString() + strings.Join(parts, " ")
}

func (rr *WKS) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeWKS); err != nil {
		return err
	}
	ip := net.ParseIP(tokens[0])
	if ip == nil || ip.To4() == nil {
		return ParseErrorf("bad WKS address %q", tokens[0])
	}
	rr.Address = ip.To4()
	proto, err := tokenUint8(tokens[1])
	if err != nil {
		return err
	}
	rr.Protocol = proto
	rr.Ports = rr.Ports[:0]
	for _, tok := range tokens[2:] {
		port, err := tokenUint16(tok)
		if err != nil {
			return err
		}
		rr.Ports = append(rr.Ports, port)
	}
	sort.Slice(rr.Ports, func(i, j int) bool { return rr.Ports[i] < rr.Ports[j] })
	return nil
}

func (rr *WKS) pack(p *packer) error {
	ip := rr.Address.To4()
	if ip == nil {
		return ParseErrorf("WKS address is not IPv4")
	}
	p.bytes(ip)
	p.uint8(rr.Protocol)
	if len(rr.Ports) == 0 {
		return nil
	}
	max := rr.Ports[len(rr.Ports)-1]
	bitmap := make([]byte, int(max)/8+1)
	for _, port := range rr.Ports {
		bitmap[port/8] |= 0x80 >> (port % 8)
	}
	p.bytes(bitmap)
	return nil
}

func (rr *WKS) unpack(msg []byte, off, end int) error {
	b, off, err := unpackBytes(msg, off, net.IPv4len)
	if err != nil {
		return err
	}
	rr.Address = net.IP(b)
	rr.Protocol, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	rr.Ports = nil
	for i := 0; off+i < end; i++ {
		for bit := 0; bit < 8; bit++ {
			if msg[off+i]&(0x80>>bit) != 0 {
				rr.Ports = append(rr.Ports, uint16(i*8+bit))
			}
		}
	}
	return nil
}
