package resolver

import (
	"crypto"
	"crypto/dsa"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/crypto/ed25519"

	"github.com/querist/dnsq/dnswire"
)

// DNSSEC algorithm codes usable for SIG(0).
const (
	AlgRSAMD5    uint8 = 1
	AlgDSA       uint8 = 3
	AlgRSASHA1   uint8 = 5
	AlgRSASHA256 uint8 = 8
	AlgRSASHA512 uint8 = 10
	AlgED25519   uint8 = 15
)

// sig0Validity is the RFC 2931 signature lifetime used for requests.
const sig0Validity = 500 * time.Second

// SignerKey is the key-store contract for SIG(0): a loaded private key
// that can sign arbitrary bytes. Concrete loaders (key files, HSMs)
// live outside the core.
type SignerKey interface {
	Algorithm() uint8
	KeyTag() uint16
	SignerName() string
	Sign(data []byte) ([]byte, error)
}

// PrivateKey adapts a parsed crypto key to the SignerKey contract.
type PrivateKey struct {
	algorithm  uint8
	keyTag     uint16
	signerName string
	key        crypto.PrivateKey
}

// NewPrivateKey wraps an RSA, DSA or Ed25519 private key. The
// algorithm code must match the key's actual type.
func NewPrivateKey(algorithm uint8, keyTag uint16, signerName string, key crypto.PrivateKey) (*PrivateKey, error) {
	switch algorithm {
	case AlgRSAMD5, AlgRSASHA1, AlgRSASHA256, AlgRSASHA512:
		if _, ok := key.(*rsa.PrivateKey); !ok {
			return nil, &dnswire.Error{Kind: dnswire.KindCryptoUnavailable, Message: "algorithm wants an RSA key"}
		}
	case AlgDSA:
		if _, ok := key.(*dsa.PrivateKey); !ok {
			return nil, &dnswire.Error{Kind: dnswire.KindCryptoUnavailable, Message: "algorithm wants a DSA key"}
		}
	case AlgED25519:
		if _, ok := key.(ed25519.PrivateKey); !ok {
			return nil, &dnswire.Error{Kind: dnswire.KindCryptoUnavailable, Message: "algorithm wants an Ed25519 key"}
		}
	default:
		return nil, &dnswire.Error{
			Kind:    dnswire.KindCryptoAlgorithm,
			Message: fmt.Sprintf("unsupported SIG(0) algorithm %d", algorithm),
		}
	}
	return &PrivateKey{algorithm: algorithm, keyTag: keyTag, signerName: signerName, key: key}, nil
}

func (k *PrivateKey) Algorithm() uint8   { return k.algorithm }
func (k *PrivateKey) KeyTag() uint16     { return k.keyTag }
func (k *PrivateKey) SignerName() string { return k.signerName }

// Sign produces the DNSSEC wire-format signature for data.
func (k *PrivateKey) Sign(data []byte) ([]byte, error) {
	switch k.algorithm {
	case AlgRSAMD5:
		digest := md5.Sum(data)
		return rsa.SignPKCS1v15(rand.Reader, k.key.(*rsa.PrivateKey), crypto.MD5, digest[:])
	case AlgRSASHA1:
		digest := sha1.Sum(data)
		return rsa.SignPKCS1v15(rand.Reader, k.key.(*rsa.PrivateKey), crypto.SHA1, digest[:])
	case AlgRSASHA256:
		digest := sha256.Sum256(data)
		return rsa.SignPKCS1v15(rand.Reader, k.key.(*rsa.PrivateKey), crypto.SHA256, digest[:])
	case AlgRSASHA512:
		digest := sha512.Sum512(data)
		return rsa.SignPKCS1v15(rand.Reader, k.key.(*rsa.PrivateKey), crypto.SHA512, digest[:])
	case AlgDSA:
		priv := k.key.(*dsa.PrivateKey)
		digest := sha1.Sum(data)
		r, s, err := dsa.Sign(rand.Reader, priv, digest[:])
		if err != nil {
			return nil, err
		}
		// RFC 2536: T octet, then R and S padded to 20 octets each.
		t := byte((len(priv.P.Bytes()) - 64) / 8)
		sig := make([]byte, 41)
		sig[0] = t
		rb, sb := r.Bytes(), s.Bytes()
		copy(sig[1+20-len(rb):21], rb)
		copy(sig[21+20-len(sb):41], sb)
		return sig, nil
	case AlgED25519:
		return ed25519.Sign(k.key.(ed25519.PrivateKey), data), nil
	}
	return nil, &dnswire.Error{
		Kind:    dnswire.KindCryptoAlgorithm,
		Message: fmt.Sprintf("unsupported SIG(0) algorithm %d", k.algorithm),
	}
}

// sig0Sign appends a SIG(0) record to a packed request (RFC 2931). The
// signature covers the SIG rdata with an empty signature field followed
// by the message as it stood before the record was appended; the
// signer's name is never compressed.
func sig0Sign(packet []byte, key SignerKey) ([]byte, error) {
	now := uint32(time.Now().Unix())
	sig := &dnswire.SIG{RRSIG: dnswire.RRSIG{
		RRHeader: dnswire.RRHeader{
			Name:  ".",
			Type:  dnswire.TypeSIG,
			Class: dnswire.ClassANY,
		},
		Algorithm:  key.Algorithm(),
		Expiration: now + uint32(sig0Validity/time.Second),
		Inception:  now,
		KeyTag:     key.KeyTag(),
		SignerName: key.SignerName(),
	}}
	rdata, err := sig.SignableRdata()
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(rdata)+len(packet))
	data = append(data, rdata...)
	data = append(data, packet...)
	signature, err := key.Sign(data)
	if err != nil {
		return nil, &dnswire.Error{Kind: dnswire.KindCryptoUnavailable, Message: "SIG(0) signing failed", Err: err}
	}
	sig.Signature = base64.StdEncoding.EncodeToString(signature)
	return dnswire.AppendRR(packet, sig)
}
