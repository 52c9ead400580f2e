package resolver

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
	"time"

	"github.com/querist/dnsq/dnswire"
)

// tsigFudge is the signature validity slack in seconds (RFC 2845
// recommends 300).
const tsigFudge = 300

// TSIGKey is a shared secret used to sign requests and verify
// responses (RFC 2845).
type TSIGKey struct {
	Name      string
	Algorithm string
	Secret    []byte
}

// NewTSIGKey builds a key from a base64 secret. An empty algorithm
// selects HMAC-MD5, the RFC 2845 default.
func NewTSIGKey(name, algorithm, secret string) (*TSIGKey, error) {
	if algorithm == "" {
		algorithm = dnswire.HmacMD5
	}
	key := &TSIGKey{
		Name:      strings.TrimSuffix(name, "."),
		Algorithm: strings.TrimSuffix(strings.ToLower(algorithm), "."),
	}
	if _, err := key.hasher(); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, &dnswire.Error{Kind: dnswire.KindRRInvalid, Message: "TSIG secret is not base64", Err: err}
	}
	key.Secret = raw
	return key, nil
}

func (k *TSIGKey) hasher() (func() hash.Hash, error) {
	switch k.Algorithm {
	case dnswire.HmacMD5:
		return md5.New, nil
	case dnswire.HmacSHA1:
		return sha1.New, nil
	case dnswire.HmacSHA224:
		return sha256.New224, nil
	case dnswire.HmacSHA256:
		return sha256.New, nil
	case dnswire.HmacSHA384:
		return sha512.New384, nil
	case dnswire.HmacSHA512:
		return sha512.New, nil
	}
	return nil, &dnswire.Error{
		Kind:    dnswire.KindCryptoAlgorithm,
		Message: fmt.Sprintf("unknown TSIG algorithm %q", k.Algorithm),
	}
}

// mac computes the HMAC over the RFC 2845 digest components: the
// request MAC (responses only), the packed message, then the TSIG
// pseudo-record variables.
func (k *TSIGKey) mac(packet []byte, tsig *dnswire.TSIG, requestMAC string) ([]byte, error) {
	newHash, err := k.hasher()
	if err != nil {
		return nil, err
	}
	h := hmac.New(newHash, k.Secret)
	if requestMAC != "" {
		raw, err := hex.DecodeString(requestMAC)
		if err != nil {
			return nil, &dnswire.Error{Kind: dnswire.KindRRInvalid, Message: "request MAC is not hex", Err: err}
		}
		var prefix [2]byte
		binary.BigEndian.PutUint16(prefix[:], uint16(len(raw)))
		h.Write(prefix[:])
		h.Write(raw)
	}
	h.Write(packet)
	digestible, err := tsig.TSIGDigestible()
	if err != nil {
		return nil, err
	}
	h.Write(digestible)
	return h.Sum(nil), nil
}

// Sign appends a TSIG record to a packed message and returns the new
// bytes together with the record, whose MAC a caller needs to verify
// the eventual response.
func (k *TSIGKey) Sign(packet []byte, requestMAC string) ([]byte, *dnswire.TSIG, error) {
	tsig := &dnswire.TSIG{
		RRHeader: dnswire.RRHeader{
			Name:  k.Name,
			Type:  dnswire.TypeTSIG,
			Class: dnswire.ClassANY,
		},
		Algorithm:  k.Algorithm,
		TimeSigned: uint64(time.Now().Unix()),
		Fudge:      tsigFudge,
		OrigID:     dnswire.PacketID(packet),
	}
	mac, err := k.mac(packet, tsig, requestMAC)
	if err != nil {
		return nil, nil, err
	}
	tsig.MAC = hex.EncodeToString(mac)
	signed, err := dnswire.AppendRR(packet, tsig)
	if err != nil {
		return nil, nil, err
	}
	return signed, tsig, nil
}

// Verify checks the TSIG record of a packed response against this key.
// requestMAC is the hex MAC of the corresponding request.
func (k *TSIGKey) Verify(packet []byte, requestMAC string) error {
	stripped, tsig, err := dnswire.StripTSIG(packet)
	if err != nil {
		return err
	}
	if tsig == nil {
		return dnswire.HeaderErrorf("response is not TSIG signed")
	}
	if dnswire.CanonicalName(tsig.Name) != dnswire.CanonicalName(k.Name) ||
		dnswire.CanonicalName(tsig.Algorithm) != dnswire.CanonicalName(k.Algorithm) {
		return dnswire.RcodeError(dnswire.RcodeBadKey, nil, nil)
	}
	if tsig.Error != dnswire.RcodeSuccess {
		return dnswire.RcodeError(int(tsig.Error), nil, nil)
	}
	now := uint64(time.Now().Unix())
	diff := now - tsig.TimeSigned
	if tsig.TimeSigned > now {
		diff = tsig.TimeSigned - now
	}
	if diff > uint64(tsig.Fudge) {
		return dnswire.RcodeError(dnswire.RcodeBadTime, nil, nil)
	}
	// The stripped bytes still carry the responder's ID; the MAC was
	// computed over them as sent.
	want, err := hex.DecodeString(tsig.MAC)
	if err != nil {
		return dnswire.ParseErrorf("TSIG MAC is not hex: %v", err)
	}
	got, err := k.mac(stripped, tsig, requestMAC)
	if err != nil {
		return err
	}
	if !hmac.Equal(want, got) {
		return dnswire.RcodeError(dnswire.RcodeBadSig, nil, nil)
	}
	return nil
}
