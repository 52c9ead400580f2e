package dnswire

import "encoding/binary"

// Byte-level helpers for callers that patch packed messages without a
// full unpack/repack cycle, which would disturb compression offsets.

// HasTCFlag reports the truncation bit of a packed message. The caller
// guarantees at least a full header.
func HasTCFlag(packet []byte) bool {
	return packet[2]&2 == 2
}

// PacketID reads the transaction ID of a packed message.
func PacketID(packet []byte) uint16 {
	return binary.BigEndian.Uint16(packet[0:2])
}

// AppendRR packs rr onto the end of an already packed message and
// increments ARCOUNT, as TSIG and SIG(0) signing require. The record's
// names are written without compression so the existing bytes, apart
// from ARCOUNT, stay untouched.
func AppendRR(packet []byte, rr RR) ([]byte, error) {
	if len(packet) < headerLen {
		return nil, ParseErrorf("message shorter than header")
	}
	buf := make([]byte, len(packet), len(packet)+64)
	copy(buf, packet)
	p := &packer{buf: buf}
	if err := packRR(p, rr); err != nil {
		return nil, err
	}
	arcount := binary.BigEndian.Uint16(p.buf[10:12])
	binary.BigEndian.PutUint16(p.buf[10:12], arcount+1)
	return p.buf, nil
}

// skipRR advances past one packed record without decoding its rdata.
func skipRR(msg []byte, off int) (int, error) {
	_, off, err := unpackDomainName(msg, off)
	if err != nil {
		return 0, err
	}
	if off+10 > len(msg) {
		return 0, ParseErrorf("record header runs past end of message")
	}
	rdlen := int(binary.BigEndian.Uint16(msg[off+8 : off+10]))
	off += 10 + rdlen
	if off > len(msg) {
		return 0, ParseErrorf("rdata runs past end of message")
	}
	return off, nil
}

// StripTSIG locates a TSIG record in the last position of the
// additional section and returns the message with that record removed
// and ARCOUNT decremented, plus the parsed TSIG. Verification must run
// over these stripped bytes, not a repack. Returns a nil TSIG when the
// message carries none.
func StripTSIG(packet []byte) ([]byte, *TSIG, error) {
	if len(packet) < headerLen {
		return nil, nil, ParseErrorf("message shorter than header")
	}
	qdcount := int(binary.BigEndian.Uint16(packet[4:6]))
	ancount := int(binary.BigEndian.Uint16(packet[6:8]))
	nscount := int(binary.BigEndian.Uint16(packet[8:10]))
	arcount := int(binary.BigEndian.Uint16(packet[10:12]))
	if arcount == 0 {
		return packet, nil, nil
	}
	off := headerLen
	var err error
	for i := 0; i < qdcount; i++ {
		if _, off, err = unpackDomainName(packet, off); err != nil {
			return nil, nil, err
		}
		off += 4
		if off > len(packet) {
			return nil, nil, ParseErrorf("question runs past end of message")
		}
	}
	for i := 0; i < ancount+nscount+arcount-1; i++ {
		if off, err = skipRR(packet, off); err != nil {
			return nil, nil, err
		}
	}
	last, _, err := unpackRR(packet, off)
	if err != nil {
		return nil, nil, err
	}
	tsig, ok := last.(*TSIG)
	if !ok {
		return packet, nil, nil
	}
	stripped := make([]byte, off)
	copy(stripped, packet[:off])
	binary.BigEndian.PutUint16(stripped[10:12], uint16(arcount-1))
	return stripped, tsig, nil
}

// SignableRdata renders the rdata with an empty signature field, the
// input to SIG(0) signature computation (RFC 2931 §4).
func (rr *RRSIG) SignableRdata() ([]byte, error) {
	saved := rr.Signature
	rr.Signature = ""
	p := &packer{}
	err := rr.pack(p)
	rr.Signature = saved
	if err != nil {
		return nil, err
	}
	return p.buf, nil
}

// TSIGDigestible renders the TSIG pseudo-record variables that enter
// the MAC: key name, class, TTL, algorithm, time, fudge, error and
// other data, all names uncompressed and lowercased (RFC 2845 §3.4.2).
func (rr *TSIG) TSIGDigestible() ([]byte, error) {
	p := &packer{}
	if err := p.rawName(CanonicalName(rr.Name)); err != nil {
		return nil, err
	}
	p.uint16(ClassANY)
	p.uint32(0)
	if err := p.rawName(CanonicalName(rr.Algorithm)); err != nil {
		return nil, err
	}
	p.uint48(rr.TimeSigned)
	p.uint16(rr.Fudge)
	p.uint16(rr.Error)
	other := rr.OtherData
	otherRaw, err := hexDecode(other)
	if err != nil {
		return nil, err
	}
	p.uint16(uint16(len(otherRaw)))
	p.bytes(otherRaw)
	return p.buf, nil
}
