package dnswire

import (
	"encoding/hex"
	"strings"
)

// The transaction meta-records. Their algorithm names are exempt from
// compression.

func init() {
	registerType(TypeTSIG, func() RR { return new(TSIG) })
	registerType(TypeTKEY, func() RR { return new(TKEY) })
}

// Well-known TSIG algorithm names.
const (
	HmacMD5    = "hmac-md5.sig-alg.reg.int"
	HmacSHA1   = "hmac-sha1"
	HmacSHA224 = "hmac-sha224"
	HmacSHA256 = "hmac-sha256"
	HmacSHA384 = "hmac-sha384"
	HmacSHA512 = "hmac-sha512"
)

// TSIG is the transaction signature record (RFC 2845). TimeSigned is
// 48 bits on the wire.
type TSIG struct {
	RRHeader
	Algorithm  string
	TimeSigned uint64
	Fudge      uint16
	MAC        string // hex
	OrigID     uint16
	Error      uint16
	OtherData  string // hex
}

func (rr *TSIG) String() string {
	other := rr.OtherData
	if other == "" {
		other = "-"
	}
	return rr.headerString() + dot(rr.Algorithm) + " " +
		itoa32(uint32(rr.TimeSigned)) + " " + itoa16(rr.Fudge) + " " +
		strings.ToUpper(rr.MAC) + " " + itoa16(rr.OrigID) + " " +
		RcodeToString(int(rr.Error)) + " " + other
}

func (rr *TSIG) parse(tokens []string) error {
	if err := needTokens(tokens, 6, TypeTSIG); err != nil {
		return err
	}
	rr.Algorithm = strings.TrimSuffix(tokens[0], ".")
	t, err := tokenUint32(tokens[1])
	if err != nil {
		return err
	}
	rr.TimeSigned = uint64(t)
	if rr.Fudge, err = tokenUint16(tokens[2]); err != nil {
		return err
	}
	mac := strings.ToLower(tokens[3])
	if _, err := hex.DecodeString(mac); err != nil {
		return ParseErrorf("bad TSIG MAC hex: %v", err)
	}
	rr.MAC = mac
	if rr.OrigID, err = tokenUint16(tokens[4]); err != nil {
		return err
	}
	if rr.Error, err = tokenUint16(tokens[5]); err != nil {
		return err
	}
	rr.OtherData = ""
	if len(tokens) > 6 && tokens[6] != "-" {
		other := strings.ToLower(tokens[6])
		if _, err := hex.DecodeString(other); err != nil {
			return ParseErrorf("bad TSIG other data hex: %v", err)
		}
		rr.OtherData = other
	}
	return nil
}

func (rr *TSIG) pack(p *packer) error {
	if err := p.rawName(rr.Algorithm); err != nil {
		return err
	}
	p.uint48(rr.TimeSigned)
	p.uint16(rr.Fudge)
	mac, err := hex.DecodeString(rr.MAC)
	if err != nil {
		return ParseErrorf("bad TSIG MAC hex: %v", err)
	}
	if len(mac) > 0xFFFF {
		return ParseErrorf("TSIG MAC too long")
	}
	p.uint16(uint16(len(mac)))
	p.bytes(mac)
	p.uint16(rr.OrigID)
	p.uint16(rr.Error)
	other, err := hex.DecodeString(rr.OtherData)
	if err != nil {
		return ParseErrorf("bad TSIG other data hex: %v", err)
	}
	if len(other) > 0xFFFF {
		return ParseErrorf("TSIG other data too long")
	}
	p.uint16(uint16(len(other)))
	p.bytes(other)
	return nil
}

func (rr *TSIG) unpack(msg []byte, off, end int) error {
	var err error
	rr.Algorithm, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	rr.TimeSigned, off, err = unpackUint48(msg, off)
	if err != nil {
		return err
	}
	rr.Fudge, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	macLen, off, err := unpackUint16(msg, off)
	if err != nil {
		return err
	}
	mac, off, err := unpackBytes(msg, off, int(macLen))
	if err != nil {
		return err
	}
	rr.MAC = hex.EncodeToString(mac)
	rr.OrigID, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Error, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	otherLen, off, err := unpackUint16(msg, off)
	if err != nil {
		return err
	}
	other, off, err := unpackBytes(msg, off, int(otherLen))
	if err != nil {
		return err
	}
	if off > end {
		return ParseErrorf("TSIG rdata crosses boundary")
	}
	rr.OtherData = hex.EncodeToString(other)
	return nil
}

// TKEY negotiates keying material (RFC 2930).
type TKEY struct {
	RRHeader
	Algorithm  string
	Inception  uint32
	Expiration uint32
	Mode       uint16
	Error      uint16
	Key        string // hex
	OtherData  string // hex
}

func (rr *TKEY) String() string {
	return rr.headerString() + dot(rr.Algorithm) + " " +
		itoa32(rr.Inception) + " " + itoa32(rr.Expiration) + " " +
		itoa16(rr.Mode) + " " + RcodeToString(int(rr.Error)) + " " +
		strings.ToUpper(rr.Key)
}

func (rr *TKEY) parse(tokens []string) error {
	if err := needTokens(tokens, 6, TypeTKEY); err != nil {
		return err
	}
	rr.Algorithm = strings.TrimSuffix(tokens[0], ".")
	var err error
	if rr.Inception, err = tokenUint32(tokens[1]); err != nil {
		return err
	}
	if rr.Expiration, err = tokenUint32(tokens[2]); err != nil {
		return err
	}
	if rr.Mode, err = tokenUint16(tokens[3]); err != nil {
		return err
	}
	if rr.Error, err = tokenUint16(tokens[4]); err != nil {
		return err
	}
	key := strings.ToLower(tokens[5])
	if _, err := hex.DecodeString(key); err != nil {
		return ParseErrorf("bad TKEY key hex: %v", err)
	}
	rr.Key = key
	return nil
}

func (rr *TKEY) pack(p *packer) error {
	if err := p.rawName(rr.Algorithm); err != nil {
		return err
	}
	p.uint32(rr.Inception)
	p.uint32(rr.Expiration)
	p.uint16(rr.Mode)
	p.uint16(rr.Error)
	key, err := hex.DecodeString(rr.Key)
	if err != nil {
		return ParseErrorf("bad TKEY key hex: %v", err)
	}
	other, err := hex.DecodeString(rr.OtherData)
	if err != nil {
		return ParseErrorf("bad TKEY other data hex: %v", err)
	}
	if len(key) > 0xFFFF || len(other) > 0xFFFF {
		return ParseErrorf("TKEY field too long")
	}
	p.uint16(uint16(len(key)))
	p.bytes(key)
	p.uint16(uint16(len(other)))
	p.bytes(other)
	return nil
}

func (rr *TKEY) unpack(msg []byte, off, end int) error {
	var err error
	rr.Algorithm, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	rr.Inception, off, err = unpackUint32(msg, off)
	if err != nil {
		return err
	}
	rr.Expiration, off, err = unpackUint32(msg, off)
	if err != nil {
		return err
	}
	rr.Mode, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Error, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	keyLen, off, err := unpackUint16(msg, off)
	if err != nil {
		return err
	}
	key, off, err := unpackBytes(msg, off, int(keyLen))
	if err != nil {
		return err
	}
	rr.Key = hex.EncodeToString(key)
	otherLen, off, err := unpackUint16(msg, off)
	if err != nil {
		return err
	}
	other, off, err := unpackBytes(msg, off, int(otherLen))
	if err != nil {
		return err
	}
	if off > end {
		return ParseErrorf("TKEY rdata crosses boundary")
	}
	rr.OtherData = hex.EncodeToString(other)
	return nil
}
