package dnswire

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
)

// RandomID draws a fresh non-zero 16-bit transaction ID from the
// system CSPRNG. Zero is reserved to mean "not yet assigned" so that
// Pack can fill it in lazily.
func RandomID() (uint16, error) {
	var b [2]byte
	for {
		if _, err := crypto_rand.Read(b[:]); err != nil {
			return 0, &Error{Kind: KindCryptoUnavailable, Message: "no system entropy", Err: err}
		}
		if id := binary.BigEndian.Uint16(b[:]); id != 0 {
			return id, nil
		}
	}
}
