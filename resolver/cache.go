package resolver

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dchest/safefile"
	lru "github.com/hashicorp/golang-lru"
	"github.com/jedisct1/dlog"

	"github.com/querist/dnsq/dnswire"
)

// Cache stores packed responses keyed by question fingerprint. Entries
// past their TTL are treated as misses and evicted on read.
type Cache interface {
	Get(key string) (*dnswire.Msg, bool)
	Put(key string, msg *dnswire.Msg, ttl uint32)
	Close() error
}

// cacheKey is the canonical (qname, qtype, qclass) fingerprint.
func cacheKey(q dnswire.Question) string {
	return fmt.Sprintf("%s:%d:%d", dnswire.CanonicalName(q.Name), q.Qtype, q.Qclass)
}

type cacheEntry struct {
	Packed  []byte
	Expires time.Time
}

func (e *cacheEntry) response() (*dnswire.Msg, bool) {
	if time.Now().After(e.Expires) {
		return nil, false
	}
	msg := new(dnswire.Msg)
	if err := msg.Unpack(e.Packed); err != nil {
		return nil, false
	}
	return msg, true
}

// MemoryCache is a bounded in-process LRU cache.
type MemoryCache struct {
	cache *lru.Cache
}

// NewMemoryCache builds a cache holding up to size responses.
func NewMemoryCache(size int) (*MemoryCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, &dnswire.Error{Kind: dnswire.KindCacheUnavailable, Message: "memory cache", Err: err}
	}
	return &MemoryCache{cache: cache}, nil
}

func (c *MemoryCache) Get(key string) (*dnswire.Msg, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(*cacheEntry)
	msg, ok := entry.response()
	if !ok {
		c.cache.Remove(key)
		return nil, false
	}
	return msg, true
}

func (c *MemoryCache) Put(key string, msg *dnswire.Msg, ttl uint32) {
	packed, err := msg.Pack()
	if err != nil {
		dlog.Warnf("not caching unpackable response: [%v]", err)
		return
	}
	c.cache.Add(key, &cacheEntry{
		Packed:  packed,
		Expires: time.Now().Add(time.Duration(ttl) * time.Second),
	})
}

func (c *MemoryCache) Close() error {
	c.cache.Purge()
	return nil
}

// FileCache persists responses across runs of the same program. Writes
// go through an atomic replace so a crash never leaves a torn file.
type FileCache struct {
	sync.Mutex
	path       string
	serializer string
	maxEntries int
	loaded     bool
	entries    map[string]*cacheEntry
}

// NewFileCache opens a file-backed cache. serializer is "gob" (default)
// or "json".
func NewFileCache(path, serializer string, maxEntries int) (*FileCache, error) {
	switch serializer {
	case "":
		serializer = "gob"
	case "gob", "json":
	default:
		return nil, &dnswire.Error{
			Kind:    dnswire.KindCacheUnsupported,
			Message: fmt.Sprintf("unknown cache serializer %q", serializer),
		}
	}
	if path == "" {
		return nil, &dnswire.Error{Kind: dnswire.KindCacheUnavailable, Message: "no cache file configured"}
	}
	return &FileCache{
		path:       path,
		serializer: serializer,
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
	}, nil
}

func (c *FileCache) load() {
	if c.loaded {
		return
	}
	c.loaded = true
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	entries := make(map[string]*cacheEntry)
	if c.serializer == "json" {
		err = json.Unmarshal(data, &entries)
	} else {
		err = gob.NewDecoder(bytes.NewReader(data)).Decode(&entries)
	}
	if err != nil {
		dlog.Warnf("discarding unreadable cache file [%v]: [%v]", c.path, err)
		return
	}
	c.entries = entries
}

func (c *FileCache) save() {
	var data []byte
	var err error
	if c.serializer == "json" {
		data, err = json.Marshal(c.entries)
	} else {
		var buf bytes.Buffer
		err = gob.NewEncoder(&buf).Encode(c.entries)
		data = buf.Bytes()
	}
	if err != nil {
		dlog.Warnf("unable to serialize cache: [%v]", err)
		return
	}
	if err := safefile.WriteFile(c.path, data, 0644); err != nil {
		dlog.Warnf("unable to write cache file [%v]: [%v]", c.path, err)
	}
}

func (c *FileCache) Get(key string) (*dnswire.Msg, bool) {
	c.Lock()
	defer c.Unlock()
	c.load()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	msg, ok := entry.response()
	if !ok {
		delete(c.entries, key)
		return nil, false
	}
	return msg, true
}

func (c *FileCache) Put(key string, msg *dnswire.Msg, ttl uint32) {
	packed, err := msg.Pack()
	if err != nil {
		dlog.Warnf("not caching unpackable response: [%v]", err)
		return
	}
	c.Lock()
	defer c.Unlock()
	c.load()
	now := time.Now()
	for k, entry := range c.entries {
		if now.After(entry.Expires) {
			delete(c.entries, k)
		}
	}
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		// Full even after expiry sweep: drop the entry closest to
		// expiring.
		var oldest string
		for k, entry := range c.entries {
			if oldest == "" || entry.Expires.Before(c.entries[oldest].Expires) {
				oldest = k
			}
		}
		delete(c.entries, oldest)
	}
	c.entries[key] = &cacheEntry{Packed: packed, Expires: now.Add(time.Duration(ttl) * time.Second)}
	c.save()
}

func (c *FileCache) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.loaded {
		c.save()
	}
	return nil
}

// newCache builds the backend selected by cache_type.
func newCache(cacheType, cacheFile, serializer string, size int) (Cache, error) {
	if size <= 0 {
		size = 10000
	}
	switch strings.ToLower(cacheType) {
	case "", "none":
		return nil, nil
	case "shared", "memory":
		return NewMemoryCache(size)
	case "file":
		return NewFileCache(cacheFile, serializer, size)
	}
	return nil, &dnswire.Error{
		Kind:    dnswire.KindCacheUnsupported,
		Message: fmt.Sprintf("unknown cache type %q", cacheType),
	}
}
