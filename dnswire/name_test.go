package dnswire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackDomainNameWire(t *testing.T) {
	buf, err := packDomainName(nil, "www.example.com", nil, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		3, 'w', 'w', 'w', 7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0,
	}, buf)

	buf, err = packDomainName(nil, ".", nil, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, buf)

	buf, err = packDomainName(nil, "example.com.", nil, false)
	require.NoError(t, err)
	name, _, err := unpackDomainName(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "example.com", name)
}

func TestPackDomainNameCompression(t *testing.T) {
	cmp := make(map[string]int)
	buf, err := packDomainName(nil, "mail.example.com", cmp, true)
	require.NoError(t, err)
	first := len(buf)

	// The shared suffix must collapse to a single 2-byte pointer.
	buf, err = packDomainName(buf, "www.example.com", cmp, true)
	require.NoError(t, err)
	assert.Equal(t, first+4+2, len(buf))
	assert.Equal(t, byte(0xC0), buf[len(buf)-2]&0xC0)

	name, next, err := unpackDomainName(buf, first)
	require.NoError(t, err)
	assert.Equal(t, "www.example.com", name)
	assert.Equal(t, len(buf), next)

	// An identical name collapses entirely.
	buf, err = packDomainName(buf, "mail.example.com", cmp, true)
	require.NoError(t, err)
	name, _, err = unpackDomainName(buf, first+6)
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", name)
}

func TestUnpackDomainNamePointerLoop(t *testing.T) {
	// Offset 12 points at itself through offset 14.
	msg := make([]byte, 16)
	msg[12] = 0xC0
	msg[13] = 14
	msg[14] = 0xC0
	msg[15] = 12
	_, _, err := unpackDomainName(msg, 14)
	require.Error(t, err)
}

func TestUnpackDomainNameForwardPointer(t *testing.T) {
	msg := []byte{0xC0, 2, 3, 'w', 'w', 'w', 0}
	_, _, err := unpackDomainName(msg, 0)
	require.Error(t, err, "pointers must reference earlier offsets")

	msg = []byte{1, 'a', 0, 0xC0, 0}
	name, next, err := unpackDomainName(msg, 3)
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	assert.Equal(t, 5, next)
}

func TestUnpackDomainNameBounds(t *testing.T) {
	_, _, err := unpackDomainName([]byte{5, 'a', 'b'}, 0)
	require.Error(t, err)

	_, _, err = unpackDomainName([]byte{0xC0}, 0)
	require.Error(t, err)

	_, _, err = unpackDomainName([]byte{0x40, 'a'}, 0)
	require.Error(t, err, "reserved label types are invalid")
}

func TestLabelLimits(t *testing.T) {
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	_, err := packDomainName(nil, string(long)+".com", nil, false)
	require.Error(t, err)

	// Four 63-octet labels exceed the 255-octet name bound.
	label := string(long[:63])
	name := label + "." + label + "." + label + "." + label
	_, err = packDomainName(nil, name, nil, false)
	require.Error(t, err)
}

func TestNameEscapes(t *testing.T) {
	labels, err := splitLabels(`a\.b.example`)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "a.b", labels[0])

	buf, err := packDomainName(nil, `a\.b.example`, nil, false)
	require.NoError(t, err)
	name, _, err := unpackDomainName(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, `a\.b.example`, name)

	labels, err = splitLabels(`\065.example`)
	require.NoError(t, err)
	assert.Equal(t, "A", labels[0])
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "example.com", CanonicalName("EXAMPLE.com."))
	assert.Equal(t, ".", CanonicalName(""))
	assert.Equal(t, ".", CanonicalName("."))
}
