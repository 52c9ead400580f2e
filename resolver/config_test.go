package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/powerman/check"
)

func TestDefaultConfig(tt *testing.T) {
	t := check.T(tt)
	cfg := DefaultConfig()
	t.Equal(cfg.Port, 53)
	t.Equal(cfg.Timeout, 5)
	t.Equal(cfg.DNSSECPayloadSize, 4000)
	t.Equal(cfg.Attempts, 1)
	t.True(cfg.Recurse)
	t.Equal(cfg.timeout(), 5*time.Second)
}

func TestLoadConfig(tt *testing.T) {
	t := check.T(tt)
	path := filepath.Join(tt.TempDir(), "dnsq.toml")
	content := `
nameservers = ["192.0.2.1", "192.0.2.2:5353"]
use_tcp = true
timeout = 3
ns_random = true
domain = "example.com"
search_list = ["example.com", "example.net"]
cache_type = "shared"
cache_size = 512
strict_query_mode = true
recurse = false
dnssec = true
dnssec_payload_size = 1232
`
	t.Nil(os.WriteFile(path, []byte(content), 0644))
	cfg, err := LoadConfig(path)
	t.Nil(err)
	t.Equal(len(cfg.Nameservers), 2)
	t.True(cfg.UseTCP)
	t.Equal(cfg.Timeout, 3)
	t.True(cfg.NSRandom)
	t.Equal(cfg.Domain, "example.com")
	t.Equal(len(cfg.SearchList), 2)
	t.Equal(cfg.CacheType, "shared")
	t.Equal(cfg.CacheSize, 512)
	t.True(cfg.StrictQueryMode)
	t.False(cfg.Recurse)
	t.True(cfg.DNSSEC)
	t.Equal(cfg.DNSSECPayloadSize, 1232)
}

func TestLoadConfigMissingFile(tt *testing.T) {
	t := check.T(tt)
	_, err := LoadConfig("/nonexistent/dnsq.toml")
	t.NotNil(err)
}

func TestParseResolvConf(tt *testing.T) {
	t := check.T(tt)
	input := `
# comment
; another comment
nameserver 192.0.2.1
nameserver 2001:db8::1
nameserver not-an-address
domain example.com.
search corp.example.com example.net
options timeout:90 rotate attempts:2
`
	rc, err := ParseResolvConf(strings.NewReader(input))
	t.Nil(err)
	t.Equal(len(rc.Nameservers), 2)
	t.Equal(rc.Nameservers[0], "192.0.2.1")
	t.Equal(rc.Nameservers[1], "2001:db8::1")
	t.Equal(rc.Domain, "example.com")
	t.Equal(len(rc.SearchList), 2)
	t.Equal(rc.SearchList[0], "corp.example.com")
	t.Equal(rc.Timeout, 30, "timeout must clamp to 1..30")
	t.True(rc.Rotate)
	t.Equal(rc.Attempts, 2)
}

func TestResolvConfMergeInto(tt *testing.T) {
	t := check.T(tt)
	rc := &ResolvConf{
		Nameservers: []string{"192.0.2.1"},
		Domain:      "example.com",
		Timeout:     7,
		Rotate:      true,
	}
	cfg := DefaultConfig()
	rc.mergeInto(&cfg)
	t.DeepEqual(cfg.Nameservers, []string{"192.0.2.1"})
	t.Equal(cfg.Domain, "example.com")
	t.Equal(cfg.Timeout, 7)
	t.True(cfg.NSRandom)

	// Explicit settings win over the file.
	cfg2 := DefaultConfig()
	cfg2.Nameservers = []string{"198.51.100.1"}
	cfg2.Domain = "other.example"
	rc.mergeInto(&cfg2)
	t.DeepEqual(cfg2.Nameservers, []string{"198.51.100.1"})
	t.Equal(cfg2.Domain, "other.example")
}

func TestParseResolvConfFileMissing(tt *testing.T) {
	t := check.T(tt)
	_, err := ParseResolvConfFile("/nonexistent/resolv.conf")
	t.NotNil(err)
}
