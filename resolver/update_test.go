package resolver

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/powerman/check"

	"github.com/querist/dnsq/dnswire"
)

func TestUpdaterSections(tt *testing.T) {
	t := check.T(tt)
	r := newTestResolver(t, Config{})
	defer r.Close()

	add, err := dnswire.NewRR("host.example.com. 300 IN A 192.0.2.10")
	t.Nil(err)
	del, err := dnswire.NewRR("old.example.com. 300 IN A 192.0.2.11")
	t.Nil(err)

	u := r.NewUpdate("example.com").
		RequireNameNotInUse("host.example.com").
		RequireRRset("example.com", dnswire.TypeSOA).
		Add(add).
		Delete(del).
		DeleteRRset("stale.example.com", dnswire.TypeTXT).
		DeleteName("gone.example.com")
	msg := u.Msg()

	t.Equal(msg.Opcode, dnswire.OpcodeUpdate)
	t.Equal(len(msg.Question), 1)
	t.Equal(msg.Question[0].Name, "example.com")
	t.Equal(msg.Question[0].Qtype, dnswire.TypeSOA)

	// Prerequisites.
	t.Equal(len(msg.Answer), 2)
	t.Equal(msg.Answer[0].Header().Class, dnswire.ClassNONE)
	t.Equal(msg.Answer[0].Header().Type, dnswire.TypeANY)
	t.Equal(msg.Answer[1].Header().Class, dnswire.ClassANY)

	// Changes.
	t.Equal(len(msg.Ns), 4)
	t.Equal(msg.Ns[0].Header().Class, dnswire.ClassINET)
	t.Equal(msg.Ns[1].Header().Class, dnswire.ClassNONE)
	t.Equal(msg.Ns[1].Header().TTL, uint32(0))
	t.Equal(msg.Ns[2].Header().Class, dnswire.ClassANY)
	t.Equal(msg.Ns[3].Header().Type, dnswire.TypeANY)
}

// The packed update must parse as a well-formed RFC 2136 message under
// an independent implementation.
func TestUpdaterWireInterop(tt *testing.T) {
	t := check.T(tt)
	r := newTestResolver(t, Config{})
	defer r.Close()

	add, err := dnswire.NewRR("host.example.com. 300 IN A 192.0.2.10")
	t.Nil(err)
	msg := r.NewUpdate("example.com").Add(add).Msg()
	packed, err := msg.Pack()
	t.Nil(err)

	var ref dns.Msg
	t.Nil(ref.Unpack(packed))
	t.Equal(ref.Opcode, dns.OpcodeUpdate)
	t.Equal(len(ref.Question), 1)
	t.Equal(ref.Question[0].Name, "example.com.")
	t.Equal(ref.Question[0].Qtype, dns.TypeSOA)
	t.Equal(len(ref.Ns), 1)
	a, ok := ref.Ns[0].(*dns.A)
	t.Must(ok)
	t.Equal(a.A.String(), "192.0.2.10")
}
