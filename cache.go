package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// CacheProvider is the key/value store behind the cache service. Providers
// must be safe for concurrent use. Expiry is lazy: an expired entry is
// evicted on the Get that observes it, never by a background sweep.
type CacheProvider interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
	DeletePrefix(prefix string)
	Clear()
}

type cacheEntry struct {
	value     []byte
	createdAt time.Time
	expiresAt time.Time
}

// MemoryCache is the in-process provider. There is deliberately no capacity
// bound: keys are content hashes with bounded TTLs, so growth is time-bounded
// by TTL churn.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, createdAt: now, expiresAt: now.Add(ttl)}
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *MemoryCache) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// DeriveKey builds a deterministic cache key from a payload. Go's JSON
// encoder writes map keys in sorted order, so two payloads with the same
// fields hash identically regardless of how they were assembled. Cache hits
// depend on this.
func DeriveKey(prefix string, payload map[string]any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads are maps of plain strings assembled by this package, so
		// this does not happen in practice; fmt prints map keys sorted too.
		data = []byte(fmt.Sprint(payload))
	}
	return fmt.Sprintf("%s:%x", prefix, sha256.Sum256(data))
}

type cachedIntent struct {
	Classification
}

type cachedResponse struct {
	Response string    `json:"response"`
	CachedAt time.Time `json:"cached_at"`
}

// CacheService layers typed intent and response memoization over a provider.
type CacheService struct {
	provider    CacheProvider
	intentTTL   time.Duration
	responseTTL time.Duration
}

func NewCacheService(provider CacheProvider, intentTTL, responseTTL time.Duration) *CacheService {
	return &CacheService{provider: provider, intentTTL: intentTTL, responseTTL: responseTTL}
}

// The user scope lives in the key prefix rather than the hashed payload, so
// all of one user's entries share a deletable prefix.
func intentKey(query, user string) string {
	return DeriveKey("intent:"+user, map[string]any{"query": query})
}

func responseKey(intent Intent, query, user string) string {
	return DeriveKey("response:"+user, map[string]any{"intent": string(intent), "query": query})
}

func (s *CacheService) GetIntent(query, user string) (Classification, bool) {
	data, ok := s.provider.Get(intentKey(query, user))
	if !ok {
		return Classification{}, false
	}
	var cached cachedIntent
	if err := json.Unmarshal(data, &cached); err != nil {
		log.Printf("cache intent decode error: %v", err)
		return Classification{}, false
	}
	return cached.Classification, true
}

func (s *CacheService) SetIntent(query, user string, c Classification) {
	data, _ := json.Marshal(cachedIntent{Classification: c})
	s.provider.Set(intentKey(query, user), data, s.intentTTL)
}

func (s *CacheService) GetResponse(intent Intent, query, user string) (string, bool) {
	data, ok := s.provider.Get(responseKey(intent, query, user))
	if !ok {
		return "", false
	}
	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		log.Printf("cache response decode error: %v", err)
		return "", false
	}
	return cached.Response, true
}

func (s *CacheService) SetResponse(intent Intent, query, user, response string) {
	data, _ := json.Marshal(cachedResponse{Response: response, CachedAt: time.Now().UTC()})
	s.provider.Set(responseKey(intent, query, user), data, s.responseTTL)
}

// InvalidateUser drops every cached intent and response for one user scope.
func (s *CacheService) InvalidateUser(user string) {
	s.provider.DeletePrefix("intent:" + user + ":")
	s.provider.DeletePrefix("response:" + user + ":")
}

func (s *CacheService) ClearAll() {
	s.provider.Clear()
}
