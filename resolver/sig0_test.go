package resolver

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/powerman/check"
	"golang.org/x/crypto/ed25519"

	"github.com/querist/dnsq/dnswire"
)

func TestSIG0SignRSA(tt *testing.T) {
	t := check.T(tt)
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	t.Nil(err)
	key, err := NewPrivateKey(AlgRSASHA256, 12345, "signer.example", priv)
	t.Nil(err)

	packed := packedQuery(t)
	signed, err := sig0Sign(packed, key)
	t.Nil(err)

	var out dnswire.Msg
	t.Nil(out.Unpack(signed))
	t.Equal(len(out.Extra), 1)
	sig, ok := out.Extra[0].(*dnswire.SIG)
	t.Must(ok)
	t.Equal(sig.SignerName, "signer.example")
	t.Equal(sig.KeyTag, uint16(12345))
	t.Equal(sig.Algorithm, AlgRSASHA256)
	t.Equal(sig.Expiration-sig.Inception, uint32(500))
	t.Equal(sig.TypeCovered, uint16(0))

	// Recompute the signed data and check the signature with the bare
	// crypto primitives.
	rdata, err := sig.SignableRdata()
	t.Nil(err)
	data := append(rdata, packed...)
	digest := sha256.Sum256(data)
	sigBytes, err := base64.StdEncoding.DecodeString(sig.Signature)
	t.Nil(err)
	t.Nil(rsa.VerifyPKCS1v15(&priv.PublicKey, crypto.SHA256, digest[:], sigBytes))
}

func TestSIG0SignEd25519(tt *testing.T) {
	t := check.T(tt)
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	t.Nil(err)
	key, err := NewPrivateKey(AlgED25519, 7, "signer.example", priv)
	t.Nil(err)

	packed := packedQuery(t)
	signed, err := sig0Sign(packed, key)
	t.Nil(err)

	var out dnswire.Msg
	t.Nil(out.Unpack(signed))
	sig, ok := out.Extra[0].(*dnswire.SIG)
	t.Must(ok)
	rdata, err := sig.SignableRdata()
	t.Nil(err)
	data := append(rdata, packed...)
	sigBytes, err := base64.StdEncoding.DecodeString(sig.Signature)
	t.Nil(err)
	t.Must(ed25519.Verify(pub, data, sigBytes))
}

func TestSIG0KeyMismatch(tt *testing.T) {
	t := check.T(tt)
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	t.Nil(err)
	_, err = NewPrivateKey(AlgRSASHA256, 1, "signer.example", priv)
	t.NotNil(err)

	rsaKey, err := rsa.GenerateKey(rand.Reader, 1024)
	t.Nil(err)
	_, err = NewPrivateKey(42, 1, "signer.example", rsaKey)
	t.NotNil(err)
	werr, ok := err.(*dnswire.Error)
	t.Must(ok)
	t.Equal(werr.Kind, dnswire.KindCryptoAlgorithm)
}

func TestSIG0ResolverAttachesSignature(tt *testing.T) {
	t := check.T(tt)
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	t.Nil(err)
	key, err := NewPrivateKey(AlgRSASHA1, 3, "signer.example", priv)
	t.Nil(err)

	r := newTestResolver(t, Config{})
	defer r.Close()
	r.UseSIG0(key)
	t.Must(r.sig0Key != nil)
	t.Must(r.tsigKey == nil)
}
