package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Cache defines the interface for research-query caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// QueryKey generates a cache key for one research query. The key covers
// everything that changes the collaborator's answer: query text, result
// limit, and domain filters.
func QueryKey(query string, limit int, include, exclude []string) string {
	raw := fmt.Sprintf("%s|%d|%s|%s", query, limit, strings.Join(include, ","), strings.Join(exclude, ","))
	hash := sha256.Sum256([]byte(raw))
	return "draftgate:v1:" + hex.EncodeToString(hash[:])
}
