package resolver

import (
	"time"

	"github.com/BurntSushi/toml"

	"github.com/querist/dnsq/dnswire"
)

// Config carries every recognized resolver option. The zero value plus
// applyDefaults matches the behavior of a plain stub resolver.
type Config struct {
	Nameservers []string `toml:"nameservers"`
	UseTCP      bool     `toml:"use_tcp"`
	Port        int      `toml:"dns_port"`
	LocalHost   string   `toml:"local_host"`
	LocalPort   int      `toml:"local_port"`
	// Timeout is the per-exchange I/O deadline in seconds.
	Timeout  int  `toml:"timeout"`
	NSRandom bool `toml:"ns_random"`
	// SortByRTT orders servers fastest-first from observed latency;
	// ignored when NSRandom is set.
	SortByRTT  bool     `toml:"sort_by_rtt"`
	Domain     string   `toml:"domain"`
	SearchList []string `toml:"search_list"`

	CacheType       string `toml:"cache_type"` // shared, file or none
	CacheFile       string `toml:"cache_file"`
	CacheSize       int    `toml:"cache_size"`
	CacheSerializer string `toml:"cache_serializer"` // gob or json

	StrictQueryMode bool `toml:"strict_query_mode"`
	Recurse         bool `toml:"recurse"`

	DNSSEC            bool `toml:"dnssec"`
	DNSSECADFlag      bool `toml:"dnssec_ad_flag"`
	DNSSECCDFlag      bool `toml:"dnssec_cd_flag"`
	DNSSECPayloadSize int  `toml:"dnssec_payload_size"`

	// UseResolvOptions folds the system resolv.conf into this
	// configuration before the first query.
	UseResolvOptions bool   `toml:"use_resolv_options"`
	ResolvConf       string `toml:"resolv_conf"`

	// Attempts is the number of passes over the server list;
	// RetryDelayMs separates them.
	Attempts     int `toml:"attempts"`
	RetryDelayMs int `toml:"retry_delay_ms"`

	QueryLogFile  string `toml:"query_log_file"`
	LogMaxSize    int    `toml:"log_max_size"`
	LogMaxAge     int    `toml:"log_max_age"`
	LogMaxBackups int    `toml:"log_max_backups"`

	// recurseSet distinguishes an explicit "recurse = false" from the
	// unset zero value.
	recurseSet bool
}

// DefaultConfig returns the stock settings: port 53, 5 second timeout,
// recursion on, no cache.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Port == 0 {
		cfg.Port = 53
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5
	}
	if cfg.DNSSECPayloadSize == 0 {
		cfg.DNSSECPayloadSize = 4000
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 1
	}
	if cfg.RetryDelayMs == 0 {
		cfg.RetryDelayMs = 500
	}
	if cfg.ResolvConf == "" {
		cfg.ResolvConf = "/etc/resolv.conf"
	}
	if cfg.LogMaxSize == 0 {
		cfg.LogMaxSize = 10
	}
	if cfg.LogMaxAge == 0 {
		cfg.LogMaxAge = 7
	}
	if cfg.LogMaxBackups == 0 {
		cfg.LogMaxBackups = 1
	}
	if !cfg.recurseSet {
		cfg.Recurse = true
	}
}

// SetRecurse overrides the recursion-desired default explicitly.
func (cfg *Config) SetRecurse(v bool) {
	cfg.Recurse = v
	cfg.recurseSet = true
}

func (cfg *Config) timeout() time.Duration {
	return time.Duration(cfg.Timeout) * time.Second
}

func (cfg *Config) retryDelay() time.Duration {
	return time.Duration(cfg.RetryDelayMs) * time.Millisecond
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, &dnswire.Error{Kind: dnswire.KindNSFile, Message: path, Err: err}
	}
	if md.IsDefined("recurse") {
		cfg.recurseSet = true
	}
	cfg.applyDefaults()
	return cfg, nil
}
