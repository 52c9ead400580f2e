package dnswire

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
)

// EDNS(0) per RFC 6891. The OPT pseudo-record reinterprets its fixed
// fields: CLASS carries the requestor's UDP payload size and TTL packs
// extended RCODE, version and the DO bit.

const (
	// EDNS0 option codes.
	EDNS0NSIDCode   = 3
	EDNS0SubnetCode = 8
	EDNS0CookieCode = 10

	ednsDoBit = 1 << 15
)

func init() {
	registerType(TypeOPT, func() RR { return new(OPT) })
}

// OPT is the EDNS(0) pseudo-record.
type OPT struct {
	RRHeader
	Options []EDNS0
}

// UDPSize reports the requestor's advertised payload size.
func (rr *OPT) UDPSize() uint16 { return rr.Class }

func (rr *OPT) SetUDPSize(size uint16) { rr.Class = size }

// ExtendedRcode returns the upper eight RCODE bits carried in the TTL.
func (rr *OPT) ExtendedRcode() uint8 { return uint8(rr.TTL >> 24) }

func (rr *OPT) SetExtendedRcode(v uint8) {
	rr.TTL = rr.TTL&0x00FFFFFF | uint32(v)<<24
}

func (rr *OPT) Version() uint8 { return uint8(rr.TTL >> 16) }

func (rr *OPT) SetVersion(v uint8) {
	rr.TTL = rr.TTL&0xFF00FFFF | uint32(v)<<16
}

// Do reports the DNSSEC OK bit.
func (rr *OPT) Do() bool { return rr.TTL&ednsDoBit != 0 }

func (rr *OPT) SetDo() { rr.TTL |= ednsDoBit }

func (rr *OPT) String() string {
	s := fmt.Sprintf(";; EDNS: version %d; flags:", rr.Version())
	if rr.Do() {
		s += " do"
	}
	s += fmt.Sprintf("; udp: %d", rr.UDPSize())
	for _, o := range rr.Options {
		s += "\n; " + o.String()
	}
	return s
}

func (rr *OPT) parse(tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return ParseErrorf("OPT records have no presentation format")
}

func (rr *OPT) pack(p *packer) error {
	for _, o := range rr.Options {
		data, err := o.pack()
		if err != nil {
			return err
		}
		if len(data) > 0xFFFF {
			return ParseErrorf("EDNS0 option %d too long", o.Code())
		}
		p.uint16(o.Code())
		p.uint16(uint16(len(data)))
		p.bytes(data)
	}
	return nil
}

func (rr *OPT) unpack(msg []byte, off, end int) error {
	rr.Options = nil
	for off < end {
		code, next, err := unpackUint16(msg, off)
		if err != nil {
			return err
		}
		length, next, err := unpackUint16(msg, next)
		if err != nil {
			return err
		}
		if next+int(length) > end {
			return ParseErrorf("EDNS0 option crosses rdata boundary")
		}
		data := msg[next : next+int(length)]
		var o EDNS0
		switch code {
		case EDNS0NSIDCode:
			o = new(EDNS0NSID)
		case EDNS0SubnetCode:
			o = new(EDNS0Subnet)
		case EDNS0CookieCode:
			o = new(EDNS0Cookie)
		default:
			o = &EDNS0Local{OptionCode: code}
		}
		if err := o.unpack(data); err != nil {
			return err
		}
		rr.Options = append(rr.Options, o)
		off = next + int(length)
	}
	return nil
}

// EDNS0 is one option inside an OPT record.
type EDNS0 interface {
	Code() uint16
	String() string
	pack() ([]byte, error)
	unpack(data []byte) error
}

// EDNS0NSID requests or carries a name-server identifier.
type EDNS0NSID struct {
	Nsid string // hex
}

func (o *EDNS0NSID) Code() uint16   { return EDNS0NSIDCode }
func (o *EDNS0NSID) String() string { return "NSID: " + o.Nsid }

func (o *EDNS0NSID) pack() ([]byte, error) {
	return hex.DecodeString(o.Nsid)
}

func (o *EDNS0NSID) unpack(data []byte) error {
	o.Nsid = hex.EncodeToString(data)
	return nil
}

// EDNS0Cookie carries a DNS cookie (RFC 7873).
type EDNS0Cookie struct {
	Cookie string // hex, 8 or 16..40 octets decoded
}

func (o *EDNS0Cookie) Code() uint16   { return EDNS0CookieCode }
func (o *EDNS0Cookie) String() string { return "COOKIE: " + o.Cookie }

func (o *EDNS0Cookie) pack() ([]byte, error) {
	return hex.DecodeString(o.Cookie)
}

func (o *EDNS0Cookie) unpack(data []byte) error {
	o.Cookie = hex.EncodeToString(data)
	return nil
}

// EDNS0Subnet carries client-subnet information (RFC 7871).
type EDNS0Subnet struct {
	Family        uint16 // 1 IPv4, 2 IPv6
	SourceNetmask uint8
	SourceScope   uint8
	Address       net.IP
}

func (o *EDNS0Subnet) Code() uint16 { return EDNS0SubnetCode }

func (o *EDNS0Subnet) String() string {
	return fmt.Sprintf("CLIENT-SUBNET: %s/%d/%d", o.Address, o.SourceNetmask, o.SourceScope)
}

func (o *EDNS0Subnet) pack() ([]byte, error) {
	var addr []byte
	switch o.Family {
	case 1:
		ip := o.Address.To4()
		if ip == nil {
			return nil, ParseErrorf("client-subnet family 1 wants an IPv4 address")
		}
		addr = ip
	case 2:
		ip := o.Address.To16()
		if ip == nil {
			return nil, ParseErrorf("client-subnet family 2 wants an IPv6 address")
		}
		addr = ip
	default:
		return nil, ParseErrorf("bad client-subnet family %d", o.Family)
	}
	n := (int(o.SourceNetmask) + 7) / 8
	if n > len(addr) {
		return nil, ParseErrorf("client-subnet netmask exceeds address length")
	}
	out := make([]byte, 4+n)
	binary.BigEndian.PutUint16(out, o.Family)
	out[2] = o.SourceNetmask
	out[3] = o.SourceScope
	copy(out[4:], addr[:n])
	return out, nil
}

func (o *EDNS0Subnet) unpack(data []byte) error {
	if len(data) < 4 {
		return ParseErrorf("truncated client-subnet option")
	}
	o.Family = binary.BigEndian.Uint16(data)
	o.SourceNetmask = data[2]
	o.SourceScope = data[3]
	addrLen := net.IPv4len
	if o.Family == 2 {
		addrLen = net.IPv6len
	}
	addr := make([]byte, addrLen)
	copy(addr, data[4:])
	o.Address = net.IP(addr)
	return nil
}

// EDNS0Local preserves unknown option payloads verbatim.
type EDNS0Local struct {
	OptionCode uint16
	Data       []byte
}

func (o *EDNS0Local) Code() uint16 { return o.OptionCode }

func (o *EDNS0Local) String() string {
	return fmt.Sprintf("OPT %d: %s", o.OptionCode, hex.EncodeToString(o.Data))
}

func (o *EDNS0Local) pack() ([]byte, error) { return o.Data, nil }

func (o *EDNS0Local) unpack(data []byte) error {
	o.Data = append([]byte(nil), data...)
	return nil
}
