package dnswire

import (
	"fmt"
	"strconv"
	"strings"
)

func init() {
	registerType(TypeNAPTR, func() RR { return new(NAPTR) })
	registerType(TypeCAA, func() RR { return new(CAA) })
	registerType(TypeURI, func() RR { return new(URI) })
	registerType(TypeLOC, func() RR { return new(LOC) })
	registerType(TypeCSYNC, func() RR { return new(CSYNC) })
	registerType(TypeEUI48, func() RR { return new(EUI48) })
	registerType(TypeEUI64, func() RR { return new(EUI64) })
}

// NAPTR rewrites names through regular expressions (RFC 3403); the
// replacement name never compresses.
type NAPTR struct {
	RRHeader
	Order       uint16
	Preference  uint16
	Flags       string
	Service     string
	Regexp      string
	Replacement string
}

func (rr *NAPTR) String() string {
	return rr.headerString() + itoa16(rr.Order) + " " + itoa16(rr.Preference) + " " +
		`"` + rr.Flags + `" "` + rr.Service + `" "` + rr.Regexp + `" ` + dot(rr.Replacement)
}

func (rr *NAPTR) parse(tokens []string) error {
	if err := needTokens(tokens, 6, TypeNAPTR); err != nil {
		return err
	}
	order, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	pref, err := tokenUint16(tokens[1])
	if err != nil {
		return err
	}
	rr.Order, rr.Preference = order, pref
	rr.Flags, rr.Service, rr.Regexp = tokens[2], tokens[3], tokens[4]
	rr.Replacement = strings.TrimSuffix(tokens[5], ".")
	return nil
}

func (rr *NAPTR) pack(p *packer) error {
	p.uint16(rr.Order)
	p.uint16(rr.Preference)
	for _, s := range []string{rr.Flags, rr.Service, rr.Regexp} {
		if err := p.charString(s); err != nil {
			return err
		}
	}
	return p.name(rr.Replacement, false)
}

func (rr *NAPTR) unpack(msg []byte, off, end int) error {
	var err error
	rr.Order, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Preference, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	for _, dst := range []*string{&rr.Flags, &rr.Service, &rr.Regexp} {
		*dst, off, err = unpackCharString(msg, off)
		if err != nil {
			return err
		}
	}
	rr.Replacement, off, err = unpackDomainName(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("NAPTR rdata has trailing octets")
	}
	return nil
}

// CAA restricts which CAs may issue for a name (RFC 8659).
type CAA struct {
	RRHeader
	Flag  uint8
	Tag   string
	Value string
}

func (rr *CAA) String() string {
	return rr.headerString() + itoa8(rr.Flag) + " " + rr.Tag + ` "` + rr.Value + `"`
}

func (rr *CAA) parse(tokens []string) error {
	if err := needTokens(tokens, 3, TypeCAA); err != nil {
		return err
	}
	flag, err := tokenUint8(tokens[0])
	if err != nil {
		return err
	}
	rr.Flag = flag
	rr.Tag = strings.ToLower(tokens[1])
	rr.Value = tokens[2]
	return nil
}

func (rr *CAA) pack(p *packer) error {
	p.uint8(rr.Flag)
	if err := p.charString(rr.Tag); err != nil {
		return err
	}
	p.bytes([]byte(rr.Value))
	return nil
}

func (rr *CAA) unpack(msg []byte, off, end int) error {
	var err error
	rr.Flag, off, err = unpackUint8(msg, off)
	if err != nil {
		return err
	}
	rr.Tag, off, err = unpackCharString(msg, off)
	if err != nil {
		return err
	}
	if off > end {
		return ParseErrorf("CAA tag crosses rdata boundary")
	}
	value, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.Value = string(value)
	return nil
}

// URI maps a name to a URI (RFC 7553).
type URI struct {
	RRHeader
	Priority uint16
	Weight   uint16
	Target   string
}

func (rr *URI) String() string {
	return rr.headerString() + itoa16(rr.Priority) + " " + itoa16(rr.Weight) + ` "` + rr.Target + `"`
}

func (rr *URI) parse(tokens []string) error {
	if err := needTokens(tokens, 3, TypeURI); err != nil {
		return err
	}
	prio, err := tokenUint16(tokens[0])
	if err != nil {
		return err
	}
	weight, err := tokenUint16(tokens[1])
	if err != nil {
		return err
	}
	rr.Priority, rr.Weight, rr.Target = prio, weight, tokens[2]
	return nil
}

func (rr *URI) pack(p *packer) error {
	p.uint16(rr.Priority)
	p.uint16(rr.Weight)
	p.bytes([]byte(rr.Target))
	return nil
}

func (rr *URI) unpack(msg []byte, off, end int) error {
	var err error
	rr.Priority, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.Weight, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	target, _, err := unpackBytes(msg, off, end-off)
	if err != nil {
		return err
	}
	rr.Target = string(target)
	return nil
}

// LOC pins a name to a physical location (RFC 1876).
type LOC struct {
	RRHeader
	Version   uint8
	Size      uint8
	HorizPre  uint8
	VertPre   uint8
	Latitude  uint32
	Longitude uint32
	Altitude  uint32
}

// locEquator is the RFC 1876 zero point for latitude and longitude.
const (
	locEquator         = 1 << 31
	locAltBase         = 100000 * 100
	locDegrees         = 1000 * 60 * 60
	locDefaultSize     = 0x12 // 1m
	locDefaultHorizPre = 0x16 // 10000m
	locDefaultVertPre  = 0x13 // 10m
)

// locPrecisionString renders a size/precision octet (4-bit mantissa,
// 4-bit power-of-ten exponent, centimeters) in meters.
func locPrecisionString(v uint8) string {
	cm := uint64(v >> 4)
	for e := uint8(0); e < v&0x0F; e++ {
		cm *= 10
	}
	return fmt.Sprintf("%d.%02dm", cm/100, cm%100)
}

func parseLOCPrecision(tok string) (uint8, error) {
	tok = strings.TrimSuffix(tok, "m")
	meters, err := strconv.ParseFloat(tok, 64)
	if err != nil || meters < 0 {
		return 0, ParseErrorf("bad LOC precision %q", tok)
	}
	cm := uint64(meters * 100)
	var exp uint8
	for cm >= 10 && cm%10 == 0 {
		cm /= 10
		exp++
	}
	for cm > 9 {
		cm /= 10
		exp++
	}
	if exp > 9 {
		return 0, ParseErrorf("LOC precision %q out of range", tok)
	}
	return uint8(cm)<<4 | exp, nil
}

func locCoordString(v uint32, pos, neg string) string {
	hemi := pos
	var rel uint32
	if v >= locEquator {
		rel = v - locEquator
	} else {
		rel = locEquator - v
		hemi = neg
	}
	deg := rel / locDegrees
	rel %= locDegrees
	min := rel / (1000 * 60)
	rel %= 1000 * 60
	return fmt.Sprintf("%d %d %d.%03d %s", deg, min, rel/1000, rel%1000, hemi)
}

func (rr *LOC) String() string {
	alt := int64(rr.Altitude) - locAltBase
	return rr.headerString() +
		locCoordString(rr.Latitude, "N", "S") + " " +
		locCoordString(rr.Longitude, "E", "W") + " " +
		fmt.Sprintf("%d.%02dm", alt/100, abs64(alt)%100) + " " +
		locPrecisionString(rr.Size) + " " +
		locPrecisionString(rr.HorizPre) + " " +
		locPrecisionString(rr.VertPre)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// parse reads "d1 [m1 [s1]] {N|S} d2 [m2 [s2]] {E|W} alt[m] [siz[m]
// [hp[m] [vp[m]]]]".
func (rr *LOC) parse(tokens []string) error {
	rr.Version = 0
	rr.Size = locDefaultSize
	rr.HorizPre = locDefaultHorizPre
	rr.VertPre = locDefaultVertPre

	coord := func(pos, neg string) (uint32, error) {
		var deg, min uint32
		var sec float64
		if len(tokens) == 0 {
			return 0, ParseErrorf("short LOC rdata")
		}
		d, err := tokenUint32(tokens[0])
		if err != nil {
			return 0, err
		}
		deg = d
		tokens = tokens[1:]
		for _, dst := range []interface{}{&min, &sec} {
			if len(tokens) == 0 {
				return 0, ParseErrorf("short LOC rdata")
			}
			if tokens[0] == pos || tokens[0] == neg {
				break
			}
			switch v := dst.(type) {
			case *uint32:
				m, err := tokenUint32(tokens[0])
				if err != nil {
					return 0, err
				}
				*v = m
			case *float64:
				s, err := strconv.ParseFloat(tokens[0], 64)
				if err != nil {
					return 0, ParseErrorf("bad LOC seconds %q", tokens[0])
				}
				*v = s
			}
			tokens = tokens[1:]
		}
		if len(tokens) == 0 {
			return 0, ParseErrorf("LOC rdata missing hemisphere")
		}
		hemi := tokens[0]
		tokens = tokens[1:]
		milli := uint32(deg)*locDegrees + min*1000*60 + uint32(sec*1000+0.5)
		switch hemi {
		case pos:
			return locEquator + milli, nil
		case neg:
			return locEquator - milli, nil
		}
		return 0, ParseErrorf("bad LOC hemisphere %q", hemi)
	}

	lat, err := coord("N", "S")
	if err != nil {
		return err
	}
	lon, err := coord("E", "W")
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return ParseErrorf("LOC rdata missing altitude")
	}
	altMeters, err := strconv.ParseFloat(strings.TrimSuffix(tokens[0], "m"), 64)
	if err != nil {
		return ParseErrorf("bad LOC altitude %q", tokens[0])
	}
	tokens = tokens[1:]
	rr.Latitude = lat
	rr.Longitude = lon
	rr.Altitude = uint32(int64(altMeters*100) + locAltBase)
	for i, dst := range []*uint8{&rr.Size, &rr.HorizPre, &rr.VertPre} {
		if i >= len(tokens) {
			break
		}
		v, err := parseLOCPrecision(tokens[i])
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

func (rr *LOC) pack(p *packer) error {
	p.uint8(rr.Version)
	p.uint8(rr.Size)
	p.uint8(rr.HorizPre)
	p.uint8(rr.VertPre)
	p.uint32(rr.Latitude)
	p.uint32(rr.Longitude)
	p.uint32(rr.Altitude)
	return nil
}

func (rr *LOC) unpack(msg []byte, off, end int) error {
	var err error
	for _, dst := range []*uint8{&rr.Version, &rr.Size, &rr.HorizPre, &rr.VertPre} {
		*dst, off, err = unpackUint8(msg, off)
		if err != nil {
			return err
		}
	}
	for _, dst := range []*uint32{&rr.Latitude, &rr.Longitude, &rr.Altitude} {
		*dst, off, err = unpackUint32(msg, off)
		if err != nil {
			return err
		}
	}
	if off != end {
		return ParseErrorf("LOC rdata has trailing octets")
	}
	return nil
}

// CSYNC synchronizes child-to-parent records (RFC 7477).
type CSYNC struct {
	RRHeader
	Serial     uint32
	Flags      uint16
	TypeBitMap []uint16
}

func (rr *CSYNC) String() string {
	s := rr.headerString() + itoa32(rr.Serial) + " " + itoa16(rr.Flags)
	if len(rr.TypeBitMap) > 0 {
		s += " " + typeBitmapString(rr.TypeBitMap)
	}
	return s
}

func (rr *CSYNC) parse(tokens []string) error {
	if err := needTokens(tokens, 2, TypeCSYNC); err != nil {
		return err
	}
	serial, err := tokenUint32(tokens[0])
	if err != nil {
		return err
	}
	flags, err := tokenUint16(tokens[1])
	if err != nil {
		return err
	}
	types, err := parseTypeBitmap(tokens[2:])
	if err != nil {
		return err
	}
	rr.Serial, rr.Flags, rr.TypeBitMap = serial, flags, types
	return nil
}

func (rr *CSYNC) pack(p *packer) error {
	p.uint32(rr.Serial)
	p.uint16(rr.Flags)
	packTypeBitmap(p, rr.TypeBitMap)
	return nil
}

func (rr *CSYNC) unpack(msg []byte, off, end int) error {
	var err error
	rr.Serial, off, err = unpackUint32(msg, off)
	if err != nil {
		return err
	}
	rr.Flags, off, err = unpackUint16(msg, off)
	if err != nil {
		return err
	}
	rr.TypeBitMap, err = unpackTypeBitmap(msg, off, end)
	return err
}

// EUI48 stores a 48-bit extended unique identifier (RFC 7043).
type EUI48 struct {
	RRHeader
	Address uint64
}

func euiString(v uint64, octets int) string {
	parts := make([]string, octets)
	for i := octets - 1; i >= 0; i-- {
		parts[i] = fmt.Sprintf("%02x", v&0xFF)
		v >>= 8
	}
	return strings.Join(parts, "-")
}

func parseEUI(tok string, octets int) (uint64, error) {
	parts := strings.Split(strings.ToLower(tok), "-")
	if len(parts) != octets {
		return 0, ParseErrorf("EUI wants %d octets, got %d", octets, len(parts))
	}
	var v uint64
	for _, part := range parts {
		n, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return 0, ParseErrorf("bad EUI octet %q", part)
		}
		v = v<<8 | n
	}
	return v, nil
}

func (rr *EUI48) String() string { return rr.headerString() + euiString(rr.Address, 6) }

func (rr *EUI48) parse(tokens []string) error {
	if err := needTokens(tokens, 1, TypeEUI48); err != nil {
		return err
	}
	v, err := parseEUI(tokens[0], 6)
	if err != nil {
		return err
	}
	rr.Address = v
	return nil
}

func (rr *EUI48) pack(p *packer) error {
	p.uint48(rr.Address)
	return nil
}

func (rr *EUI48) unpack(msg []byte, off, end int) error {
	v, off, err := unpackUint48(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("EUI48 rdata has trailing octets")
	}
	rr.Address = v
	return nil
}

// EUI64 stores a 64-bit extended unique identifier (RFC 7043).
type EUI64 struct {
	RRHeader
	Address uint64
}

func (rr *EUI64) String() string { return rr.headerString() + euiString(rr.Address, 8) }

func (rr *EUI64) parse(tokens []string) error {
	if err := needTokens(tokens, 1, TypeEUI64); err != nil {
		return err
	}
	v, err := parseEUI(tokens[0], 8)
	if err != nil {
		return err
	}
	rr.Address = v
	return nil
}

func (rr *EUI64) pack(p *packer) error {
	p.uint32(uint32(rr.Address >> 32))
	p.uint32(uint32(rr.Address))
	return nil
}

func (rr *EUI64) unpack(msg []byte, off, end int) error {
	hi, off, err := unpackUint32(msg, off)
	if err != nil {
		return err
	}
	lo, off, err := unpackUint32(msg, off)
	if err != nil {
		return err
	}
	if off != end {
		return ParseErrorf("EUI64 rdata has trailing octets")
	}
	rr.Address = uint64(hi)<<32 | uint64(lo)
	return nil
}
