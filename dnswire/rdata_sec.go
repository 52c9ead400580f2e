package dnswire

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// DNSSEC and transport-security record types.

func init() {
	registerType(TypeDS, func() RR { return new(DS) })
	registerType(TypeCDS, func() RR { return new(CDS) })
	registerType(TypeDLV, func() RR { return new(DLV) })
	registerType(TypeDNSKEY, func() RR { return new(DNSKEY) })
	registerType(TypeCDNSKEY, func() RR { return new(CDNSKEY) })
	registerType(TypeKEY, func() RR { return new(KEY) })
	registerType(TypeRRSIG, func() RR { return new(RRSIG) })
	registerType(TypeSIG, func() RR { return new(SIG) })
	registerType(TypeNSEC, func() RR { return new(NSEC) })
	registerType(TypeNSEC3, func() RR { return new(NSEC3) })
	registerType(TypeNSEC3PARAM, func() RR { return new(NSEC3PARAM) })
	registerType(TypeSSHFP, func() RR { return new(SSHFP) })
	registerType(TypeTLSA, func() RR { return new(TLSA) })
	registerType(TypeSMIMEA, func() RR { return new(SMIMEA) })
	registerType(TypeCERT, func() RR { return new(CERT) })
	registerType(TypeDHCID, func() RR { return new(DHCID) })
	registerType(TypeOPENPGPKEY, func() RR { return new(OPENPGPKEY) })
}

var base32HexNoPad = base32.HexEncoding.WithPadding(base32.NoPadding)

// sigTimeToString renders an RRSIG timestamp as YYYYMMDDHHMMSS in UTC.
func sigTimeToString(t uint32) string {
	return time.Unix(int64(t), 0).UTC().Format("20060102150405")
}

// stringToSigTime accepts both the calendar form and raw seconds.
func stringToSigTime(s string) (uint32, error) {
	if len(s) == 14 {
		t, err := time.Parse("20060102150405", s)
		if err == nil {
			return uint32(t.Unix()), nil
		}
	}
	return tokenUint32(s)
}

// packTypeBitmap writes the window-block encoding shared by NSEC,
// NSEC3 and CSYNC. Types may be handed over in any order; a sorted
// copy is encoded.
func packTypeBitmap(p *packer, types []uint16) {
	sorted := append([]uint16(nil), types...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	i := 0
	for i < len(sorted) {
		window := byte(sorted[i] >> 8)
		var bitmap [32]byte
		maxOctet := 0
		for i < len(sorted) && byte(sorted[i]>>8) == window {
			low := byte(sorted[i])
			bitmap[low/8] |= 0x80 >> (low % 8)
			if int(low/8)+1 > maxOctet {
				maxOctet = int(low/8) + 1
			}
			i++
		}
		p.uint8(window)
		p.uint8(uint8(maxOctet))
		p.bytes(bitmap[:maxOctet])
	}
}

func unpackTypeBitmap(msg []byte, off, end int) ([]uint16, error) {
	var types []uint16
	lastWindow := -1
	for off < end {
		if off+2 > end {
			return nil, ParseErrorf("truncated type bitmap header")
		}
		window := int(msg[off])
		length := int(msg[off+1])
		off += 2
		if window <= lastWindow {
			return nil, ParseErrorf("type bitmap windows out of order")
		}
		if length == 0 || length > 32 {
			return nil, ParseErrorf("bad type bitmap length %d", length)
		}
		if off+length > end {
			return nil, ParseErrorf("type bitmap crosses rdata boundary")
		}
		for i := 0; i < length; i++ {
			for bit := 0; bit < 8; bit++ {
				if msg[off+i]&(0x80>>bit) != 0 {
					types = append(types, uint16(window<<8|i*8+bit))
				}
			}
		}
		off += length
		lastWindow = window
	}
	return types, nil
}

func typeBitmapString(types []uint16) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = TypeToString(t)
	}
	return strings.Join(parts, " ")
}

func parseTypeBitmap(tokens []string) ([]uint16, error) {
	var types []uint16
	for _, tok := range tokens {
		t, err := StringToType(tok)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// DS is a delegation signer digest.
type DS struct {
	RRHeader
	KeyTag     uint16
	Algorithm  uint8
	DigestType uint8
	Digest     string
}

func (rr *DS) String() string {
	return rr.headerString() + itoa16(rr.KeyTag) + " " + itoa8(rr.Algorithm) + " " +
		itoa8(rr.DigestType) + " " + strings.ToUpper(rr.Digest)
}

func (rr *DS) parse(tokens []string) error {
	if err := needTokens(tokens, 4, rr.Type); err != nil {
		return err
	}
	keyTag, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	alg, err := tokenUint8(tokens[1])
	if err != nil {
		return err
	}
	dt, err := tokenUint8(tokens[2])
	if err != nil {
		return err
	}
	digest := strings.ToLower(strings.Join(tokens[3:], ""))
	if _, err := hex.DecodeString(digest); err != nil {
		return ParseErrorf("bad DS digest hex: %v", err)
	}
	rr.KeyTag, rr.Algorithm, rr.DigestType, rr.Digest = keyTag, alg, dt, digest
	return nil
}

func (rr *DS) pack(p *packer) error {
	p.uint16(rr.KeyTag)
	p.uint8(rr.Algorithm)
	p.uint8(rr.DigestType)
	digest, err := hex.DecodeString(rr.Digest)
	if err != nil {
		return ParseErrorf("bad DS digest hex: %v", err)
	}
	p.bytes(digest)
	return nil
}

func (rr *DS) unpack(msg []byte, off, end int) error {
	var err error
	rr.KeyTag, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Algorithm, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	rr.DigestType, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	digest, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.Digest = hex.EncodeToString(digest)
	return nil
}

// CDS is the child copy of DS.
type CDS struct{ DS }

// DLV is the retired lookaside validation record, DS-shaped.
type DLV struct{ DS }

// DNSKEY holds a zone public key.
type DNSKEY struct {
	RRHeader
	Flags     uint16
	Protocol  uint8
	Algorithm uint8
	PublicKey string
}

func (rr *DNSKEY) String() string {
	return rr.headerString() + itoa16(rr.Flags) + " " + itoa8(rr.Protocol) + " " +
		itoa8(rr.Algorithm) + " " + rr.PublicKey
}

func (rr *DNSKEY) parse(tokens []string) error {
	if err := needTokens(tokens, 4, rr.Type); err != nil {
		return err
	}
	flags, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	proto, err := tokenUint8(tokens[1])
	if err != nil {
		return err
	}
	alg, err := tokenUint8(tokens[2])
	if err != nil {
		return err
	}
	key := strings.Join(tokens[3:], "")
	if _, err := base64.StdEncoding.DecodeString(key); err != nil {
		return ParseErrorf("bad DNSKEY base64: %v", err)
	}
	rr.Flags, rr.Protocol, rr.Algorithm, rr.PublicKey = flags, proto, alg, key
	return nil
}

func (rr *DNSKEY) pack(p *packer) error {
	p.uint16(rr.Flags)
	p.uint8(rr.Protocol)
	p.uint8(rr.Algorithm)
	key, err := base64.StdEncoding.DecodeString(rr.PublicKey)
	if err != nil {
		return ParseErrorf("bad DNSKEY base64: %v", err)
	}
	p.bytes(key)
	return nil
}

func (rr *DNSKEY) unpack(msg []byte, off, end int) error {
	var err error
	rr.Flags, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Protocol, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	rr.Algorithm, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	key, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.PublicKey = base64.StdEncoding.EncodeToString(key)
	return nil
}

// CDNSKEY is the child copy of DNSKEY.
type CDNSKEY struct{ DNSKEY }

// KEY is the legacy RFC 2535 key record, DNSKEY-shaped; SIG(0) keys
// travel as KEY records.
type KEY struct{ DNSKEY }

// RRSIG signs an RRset (RFC 4034). The signer name is exempt from
// compression.
type RRSIG struct {
	RRHeader
	TypeCovered uint16
	Algorithm   uint8
	Labels      uint8
	OrigTTL     uint32
	Expiration  uint32
	Inception   uint32
	KeyTag      uint16
	SignerName  string
	Signature   string
}

func (rr *RRSIG) String() string {
	return rr.headerString() + TypeToString(rr.TypeCovered) + " " + itoa8(rr.Algorithm) + " " +
		itoa8(rr.Labels) + " " + itoa32(rr.OrigTTL) + " " + sigTimeToString(rr.Expiration) + " " +
		sigTimeToString(rr.Inception) + " " + itoa16(rr.KeyTag) + " " + dot(rr.SignerName) + " " +
		rr.Signature
}

func (rr *RRSIG) parse(tokens []string) error {
	if err := needTokens(tokens, 9, rr.Type); err != nil {
		return err
	}
	covered, err := StringToType(tokens[0])
	if err != nil {
		return err
	}
	alg, err := tokenUint8(tokens[1])
	if err != nil {
		return err
	}
	labels, err := tokenUint8(tokens[2])
	if err != nil {
		return err
	}
	origTTL, err := tokenUint32(tokens[3])
	if err != nil {
		return err
	}
	expiration, err := stringToSigTime(tokens[4])
	if err != nil {
		return err
	}
	inception, err := stringToSigTime(tokens[5])
	if err != nil {
		return err
	}
	keyTag, err := tokenUint16(tokens[6])
	if err != nil {
		return err
	}
	sig := strings.Join(tokens[8:], "")
	if _, err := base64.StdEncoding.DecodeString(sig); err != nil {
		return ParseErrorf("bad signature base64: %v", err)
	}
	rr.TypeCovered = covered
	rr.Algorithm = alg
	rr.Labels = labels
	rr.OrigTTL = origTTL
	rr.Expiration = expiration
	rr.Inception = inception
	rr.KeyTag = keyTag
	rr.SignerName = strings.TrimSuffix(tokens[7], ".")
	rr.Signature = sig
	return nil
}

func (rr *RRSIG) pack(p *packer) error {
	p.uint16(rr.TypeCovered)
	p.uint8(rr.Algorithm)
	p.uint8(rr.Labels)
	p.uint32(rr.OrigTTL)
	p.uint32(rr.Expiration)
	p.uint32(rr.Inception)
	p.uint16(rr.KeyTag)
	if err := p.rawName(rr.SignerName); err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(rr.Signature)
	if err != nil {
		return ParseErrorf("bad signature base64: %v", err)
	}
	p.bytes(sig)
	return nil
}

func (rr *RRSIG) unpack(msg []byte, off, end int) error {
	var err error
	rr.TypeCovered, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Algorithm, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	rr.Labels, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	rr.OrigTTL, off, err = unpackUint32(msg, off)
	if err != nil {
		return err
	}
	rr.Expiration, off, err = unpackUint32(msg, off)
	if err != nil {
		return err
	}
	rr.Inception, off, err = unpackUint32(msg, off)
	if err != nil {
		return err
	}
	rr.KeyTag, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.SignerName, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	sig, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.Signature = base64.StdEncoding.EncodeToString(sig)
	return nil
}

// SIG is the legacy transaction signature record, RRSIG-shaped; used
// on the wire by SIG(0).
type SIG struct{ RRSIG }

// NSEC proves nonexistence between two names (RFC 4034); the next name
// never compresses.
type NSEC struct {
	RRHeader
	NextDomain string
	TypeBitMap []uint16
}

func (rr *NSEC) String() string {
	s := rr.headerString() + dot(rr.NextDomain)
	if len(rr.TypeBitMap) > 0 {
		s += " " + typeBitmapString(rr.TypeBitMap)
	}
	return s
}

func (rr *NSEC) parse(tokens []string) error {
	if err := needTokens(tokens, 1, TypeNSEC); err != nil {
		return err
	}
	rr.NextDomain = strings.TrimSuffix(tokens[0], ".")
	types, err := parseTypeBitmap(tokens[1:])
	if err != nil {
		return err
	}
	rr.TypeBitMap = types
	return nil
}

func (rr *NSEC) pack(p *packer) error {
	if err := p.name(rr.NextDomain, false); err != nil {
		return err
	}
	packTypeBitmap(p, rr.TypeBitMap)
	return nil
}

func (rr *NSEC) unpack(msg []byte, off, end int) error {
	var err error
	rr.NextDomain, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	rr.TypeBitMap, err = unpackTypeBitmap(msg, off, end)
	return err
}

// NSEC3 is the hashed denial-of-existence record (RFC 5155).
type NSEC3 struct {
	RRHeader
	Hash       uint8
	Flags      uint8
	Iterations uint16
	Salt       string
	NextDomain string
	TypeBitMap []uint16
}

func (rr *NSEC3) saltString() string {
	if rr.Salt == "" {
		return "-"
	}
	return strings.ToUpper(rr.Salt)
}

func (rr *NSEC3) String() string {
	s := rr.headerString() + itoa8(rr.Hash) + " " + itoa8(rr.Flags) + " " +
		itoa16(rr.Iterations) + " " + rr.saltString() + " " + strings.ToUpper(rr.NextDomain)
	if len(rr.TypeBitMap) > 0 {
		s += " " + typeBitmapString(rr.TypeBitMap)
	}
	return s
}

func (rr *NSEC3) parse(tokens []string) error {
	if err := needTokens(tokens, 5, TypeNSEC3); err != nil {
		return err
	}
	if err := parseNSEC3Params(&rr.Hash, &rr.Flags, &rr.Iterations, &rr.Salt, tokens); err != nil {
		return err
	}
	next := strings.ToLower(tokens[4])
	if _, err := base32HexNoPad.DecodeString(strings.ToUpper(next)); err != nil {
		return ParseErrorf("bad NSEC3 next hashed owner: %v", err)
	}
	rr.NextDomain = next
	types, err := parseTypeBitmap(tokens[5:])
	if err != nil {
		return err
	}
	rr.TypeBitMap = types
	return nil
}

func (rr *NSEC3) pack(p *packer) error {
	if err := packNSEC3Params(p, rr.Hash, rr.Flags, rr.Iterations, rr.Salt); err != nil {
		return err
	}
	next, err := base32HexNoPad.DecodeString(strings.ToUpper(rr.NextDomain))
	if err != nil {
		return ParseErrorf("bad NSEC3 next hashed owner: %v", err)
	}
	if len(next) > 255 {
		return ParseErrorf("NSEC3 hash exceeds 255 octets")
	}
	p.uint8(uint8(len(next)))
	p.bytes(next)
	packTypeBitmap(p, rr.TypeBitMap)
	return nil
}

func (rr *NSEC3) unpack(msg []byte, off, end int) error {
	var err error
	off, err = unpackNSEC3Params(&rr.Hash, &rr.Flags, &rr.Iterations, &rr.Salt, msg, off)
	if err != nil {
		return err
	}
	hashLen, off, err := unpackUint8(msg, off)
	if err != nil {
		return err
	}
	hashed, off, err := unpackBytes(msg, off, int(hashLen))
	if err != nil {
		return err
	}
	rr.NextDomain = strings.ToLower(base32HexNoPad.EncodeToString(hashed))
	rr.TypeBitMap, err = unpackTypeBitmap(msg, off, end)
	return err
}

// NSEC3PARAM advertises the zone's NSEC3 parameters.
type NSEC3PARAM struct {
	RRHeader
	Hash       uint8
	Flags      uint8
	Iterations uint16
	Salt       string
}

func (rr *NSEC3PARAM) String() string {
	salt := "-"
	if rr.Salt != "" {
		salt = strings.ToUpper(rr.Salt)
	}
	return rr.headerString() + itoa8(rr.Hash) + " " + itoa8(rr.Flags) + " " +
		itoa16(rr.Iterations) + " " + salt
}

func (rr *NSEC3PARAM) parse(tokens []string) error {
	if err := needTokens(tokens, 4, TypeNSEC3PARAM); err != nil {
		return err
	}
	return parseNSEC3Params(&rr.Hash, &rr.Flags, &rr.Iterations, &rr.Salt, tokens)
}

func (rr *NSEC3PARAM) pack(p *packer) error {
	return packNSEC3Params(p, rr.Hash, rr.Flags, rr.Iterations, rr.Salt)
}

func (rr *NSEC3PARAM) unpack(msg []byte, off, end int) error {
	_, err := unpackNSEC3Params(&rr.Hash, &rr.Flags, &rr.Iterations, &rr.Salt, msg, off)
	return err
}

func parseNSEC3Params(hash, flags *uint8, iterations *uint16, salt *string, tokens []string) error {
	h, err := tokenUint8(tokens[0])
	if err != nil {
		return err
	}
	f, err := tokenUint8(tokens[1])
	if err != nil {
		return err
	}
	iter, err := tokenUint16(tokens[2])
	if err != nil {
		return err
	}
	s := strings.ToLower(tokens[3])
	if s == "-" {
		s = ""
	} else if _, err := hex.DecodeString(s); err != nil {
		return ParseErrorf("bad NSEC3 salt hex: %v", err)
	}
	*hash, *flags, *iterations, *salt = h, f, iter, s
	return nil
}

func packNSEC3Params(p *packer, hash, flags uint8, iterations uint16, salt string) error {
	p.uint8(hash)
	p.uint8(flags)
	p.uint16(iterations)
	raw, err := hex.DecodeString(salt)
	if err != nil {
		return ParseErrorf("bad NSEC3 salt hex: %v", err)
	}
	if len(raw) > 255 {
		return ParseErrorf("NSEC3 salt exceeds 255 octets")
	}
	p.uint8(uint8(len(raw)))
	p.bytes(raw)
	return nil
}

func unpackNSEC3Params(hash, flags *uint8, iterations *uint16, salt *string, msg []byte, off int) (int, error) {
	var err error
	*hash, off, err = unpackUint8(msg, off)
	if err != nil {
		return 0, err
	}
	*flags, off, err = unpackUint8(msg, off)
	if err != nil {
		return 0, err
	}
	*iterations, off, err = unpackUint16(msg, off)
	if err != nil {
		return 0, err
	}
	saltLen, off, err := unpackUint8(msg, off)
	if err != nil {
		return 0, err
	}
	raw, off, err := unpackBytes(msg, off, int(saltLen))
	if err != nil {
		return 0, err
	}
	*salt = hex.EncodeToString(raw)
	return off, nil
}

// SSHFP publishes an SSH host key fingerprint (RFC 4255).
type SSHFP struct {
	RRHeader
	Algorithm   uint8
	Type        uint8
	FingerPrint string
}

func (rr *SSHFP) String() string {
	return rr.headerString() + itoa8(rr.Algorithm) + " " + itoa8(rr.Type) + " " +
		strings.ToUpper(rr.FingerPrint)
}

func (rr *SSHFP) parse(tokens []string) error {
	if err := needTokens(tokens, 3, TypeSSHFP); err != nil {
		return err
	}
	alg, err := tokenUint8(tokens[0])
	if err != nil {
		return err
	}
	typ, err := tokenUint8(tokens[1])
	if err != nil {
		return err
	}
	fp := strings.ToLower(strings.Join(tokens[2:], ""))
	if _, err := hex.DecodeString(fp); err != nil {
		return ParseErrorf("bad SSHFP fingerprint hex: %v", err)
	}
	rr.Algorithm, rr.Type, rr.FingerPrint = alg, typ, fp
	return nil
}

func (rr *SSHFP) pack(p *packer) error {
	p.uint8(rr.Algorithm)
	p.uint8(rr.Type)
	fp, err := hex.DecodeString(rr.FingerPrint)
	if err != nil {
		return ParseErrorf("bad SSHFP fingerprint hex: %v", err)
	}
	p.bytes(fp)
	return nil
}

func (rr *SSHFP) unpack(msg []byte, off, end int) error {
	var err error
	rr.Algorithm, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	rr.Type, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	fp, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.FingerPrint = hex.EncodeToString(fp)
	return nil
}

// TLSA pins a TLS certificate (RFC 6698).
type TLSA struct {
	RRHeader
	Usage        uint8
	Selector     uint8
	MatchingType uint8
	Certificate  string
}

func (rr *TLSA) String() string {
	return rr.headerString() + itoa8(rr.Usage) + " " + itoa8(rr.Selector) + " " +
		itoa8(rr.MatchingType) + " " + strings.ToUpper(rr.Certificate)
}

func (rr *TLSA) parse(tokens []string) error {
	if err := needTokens(tokens, 4, rr.Type); err != nil {
		return err
	}
	usage, err := tokenUint8(tokens[0])
	if err != nil {
		return err
	}
	selector, err := tokenUint8(tokens[1])
	if err != nil {
		return err
	}
	mt, err := tokenUint8(tokens[2])
	if err != nil {
		return err
	}
	cert := strings.ToLower(strings.Join(tokens[3:], ""))
	if _, err := hex.DecodeString(cert); err != nil {
		return ParseErrorf("bad certificate association hex: %v", err)
	}
	rr.Usage, rr.Selector, rr.MatchingType, rr.Certificate = usage, selector, mt, cert
	return nil
}

func (rr *TLSA) pack(p *packer) error {
	p.uint8(rr.Usage)
	p.uint8(rr.Selector)
	p.uint8(rr.MatchingType)
	cert, err := hex.DecodeString(rr.Certificate)
	if err != nil {
		return ParseErrorf("bad certificate association hex: %v", err)
	}
	p.bytes(cert)
	return nil
}

func (rr *TLSA) unpack(msg []byte, off, end int) error {
	var err error
	rr.Usage, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	rr.Selector, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	rr.MatchingType, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	cert, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.Certificate = hex.EncodeToString(cert)
	return nil
}

// SMIMEA binds an S/MIME certificate, TLSA-shaped (RFC 8162).
type SMIMEA struct{ TLSA }

// CERT stores a certificate (RFC 4398).
type CERT struct {
	RRHeader
	CertType    uint16
	KeyTag      uint16
	Algorithm   uint8
	Certificate string
}

func (rr *CERT) String() string {
	return rr.headerString() + itoa16(rr.CertType) + " " + itoa16(rr.KeyTag) + " " +
		itoa8(rr.Algorithm) + " " + rr.Certificate
}

func (rr *CERT) parse(tokens []string) error {
	if err := needTokens(tokens, 4, TypeCERT); err != nil {
		return err
	}
	ct, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	keyTag, err := tokenUint16(tokens[1])
	if err != nil {
		return err
	}
	alg, err := tokenUint8(tokens[2])
	if err != nil {
		return err
	}
	cert := strings.Join(tokens[3:], "")
	if _, err := base64.StdEncoding.DecodeString(cert); err != nil {
		return ParseErrorf("bad CERT base64: %v", err)
	}
	rr.CertType, rr.KeyTag, rr.Algorithm, rr.Certificate = ct, keyTag, alg, cert
	return nil
}

func (rr *CERT) pack(p *packer) error {
	p.uint16(rr.CertType)
	p.uint16(rr.KeyTag)
	p.uint8(rr.Algorithm)
	cert, err := base64.StdEncoding.DecodeString(rr.Certificate)
	if err != nil {
		return ParseErrorf("bad CERT base64: %v", err)
	}
	p.bytes(cert)
	return nil
}

func (rr *CERT) unpack(msg []byte, off, end int) error {
	var err error
	rr.CertType, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.KeyTag, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Algorithm, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	cert, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.Certificate = base64.StdEncoding.EncodeToString(cert)
	return nil
}

// DHCID associates a DHCP client with a name (RFC 4701).
type DHCID struct {
	RRHeader
	Digest string
}

func (rr *DHCID) String() string { return rr.headerString() + rr.Digest }

func (rr *DHCID) parse(tokens []string) error {
	if err := needTokens(tokens, 1, TypeDHCID); err != nil {
		return err
	}
	digest := strings.Join(tokens, "")
	if _, err := base64.StdEncoding.DecodeString(digest); err != nil {
		return ParseErrorf("bad DHCID base64: %v", err)
	}
	rr.Digest = digest
	return nil
}

func (rr *DHCID) pack(p *packer) error {
	digest, err := base64.StdEncoding.DecodeString(rr.Digest)
	if err != nil {
		return ParseErrorf("bad DHCID base64: %v", err)
	}
	p.bytes(digest)
	return nil
}

func (rr *DHCID) unpack(msg []byte, off, end int) error {
	digest, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.Digest = base64.StdEncoding.EncodeToString(digest)
	return nil
}

// OPENPGPKEY publishes an OpenPGP key (RFC 7929).
type OPENPGPKEY struct {
	RRHeader
	PublicKey string
}

func (rr *OPENPGPKEY) String() string { return rr.headerString() + rr.PublicKey }

func (rr *OPENPGPKEY) parse(tokens []string) error {
	if err := needTokens(tokens, 1, TypeOPENPGPKEY); err != nil {
		return err
	}
	key := strings.Join(tokens, "")
	if _, err := base64.StdEncoding.DecodeString(key); err != nil {
		return ParseErrorf("bad OPENPGPKEY base64: %v", err)
	}
	rr.PublicKey = key
	return nil
}

func (rr *OPENPGPKEY) pack(p *packer) error {
	key, err := base64.StdEncoding.DecodeString(rr.PublicKey)
	if err != nil {
		return ParseErrorf("bad OPENPGPKEY base64: %v", err)
	}
	p.bytes(key)
	return nil
}

func (rr *OPENPGPKEY) unpack(msg []byte, off, end int) error {
	key, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.PublicKey = base64.StdEncoding.EncodeToString(key)
	return nil
}
