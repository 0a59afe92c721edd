package catalog

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nci/gomemcache/memcache"
)

// mcClient is the slice of the memcache client the decorator needs.
type mcClient interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

// CachedSource is a read-through memcached decorator over another
// Source. Keys are md5 digests of the query so arbitrary filter
// strings stay within the memcached key length limit.
type CachedSource struct {
	inner   Source
	mc      mcClient
	expiry  int32
	verbose bool
}

func NewCachedSource(inner Source, mcURI string, expirySeconds int32, verbose bool) *CachedSource {
	return &CachedSource{
		inner:   inner,
		mc:      memcache.New(mcURI),
		expiry:  expirySeconds,
		verbose: verbose,
	}
}

func hashKey(parts string) string {
	buff := md5.Sum([]byte(parts))
	return hex.EncodeToString(buff[:])
}

func (s *CachedSource) Lookup(ctx context.Context, id string) (*Record, error) {
	key := hashKey("lookup:" + id)
	if cached, err := s.mc.Get(key); err == nil {
		var rec Record
		if err := json.Unmarshal(cached.Value, &rec); err == nil {
			return &rec, nil
		}
	}

	rec, err := s.inner.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(key, rec)
	return rec, nil
}

func (s *CachedSource) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	cadence := ""
	if filter.Cadence != nil {
		cadence = filter.Cadence.String()
	}
	key := hashKey(fmt.Sprintf("query:%s:%s:%s:%s:%v",
		filter.Domain, filter.Type, filter.Release, cadence, filter.IncludeDeprecated))

	if cached, err := s.mc.Get(key); err == nil {
		var recs []*Record
		if err := json.Unmarshal(cached.Value, &recs); err == nil {
			return recs, nil
		}
	}

	recs, err := s.inner.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.put(key, recs)
	return recs, nil
}

func (s *CachedSource) put(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	err = s.mc.Set(&memcache.Item{Key: key, Value: data, Expiration: s.expiry})
	if err != nil && s.verbose {
		log.Printf("CachedSource: memcache set error: %v", err)
	}
}
