package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/county-health/internal/config"
	"github.com/iliyamo/county-health/internal/metrics"
)

// perRequestHeaders belong to one request and are never stored or replayed.
// They are set by middleware in front of the cache.
var perRequestHeaders = map[string]bool{
	http.CanonicalHeaderKey(HeaderRequestID):         true,
	http.CanonicalHeaderKey("X-RateLimit-Limit"):     true,
	http.CanonicalHeaderKey("X-RateLimit-Remaining"): true,
	http.CanonicalHeaderKey("Retry-After"):           true,
	http.CanonicalHeaderKey("X-Cache"):               true,
	http.CanonicalHeaderKey("Content-Length"):        true,
}

// responseStore is the slice of Redis the cache needs.
type responseStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type redisStore struct{ rdb *redis.Client }

func (s redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.rdb.Get(ctx, key).Bytes()
}

func (s redisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.SetEx(ctx, key, val, ttl).Err()
}

// maxKeyBody bounds how much of a request body is read to build a cache key.
// Larger bodies bypass the cache.
const maxKeyBody = 64 << 10

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes method, route and request body. Lookups carry their
// parameters in a POST body, so the body is part of the identity.
func cacheKeyFrom(prefix, method, route string, body []byte) string {
	h := sha1.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(route))
	h.Write([]byte{0})
	h.Write(body)
	return fmt.Sprintf("%s:%x", prefix, h.Sum(nil))
}

// readBody drains the request body and puts an identical reader back so the
// handler still sees it. ok is false when the body exceeds maxKeyBody.
func readBody(r *http.Request) (body []byte, ok bool, err error) {
	if r.Body == nil {
		return nil, true, nil
	}
	body, err = io.ReadAll(io.LimitReader(r.Body, maxKeyBody+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > maxKeyBody {
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
		return nil, false, nil
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, true, nil
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	total := 4 + 4 + len(hdrJSON) + len(body)
	out := make([]byte, total)
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	var hdr http.Header
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	} else {
		hdr = make(http.Header)
	}
	body = bs[8+hlen:]
	return status, hdr, body, true
}

// NewRedisCache replays successful responses from Redis. Only 200s are
// stored, so validation failures always reach the handler. A nil client or
// a disabled config yields a pass-through middleware.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}
	return newCache(cfg, redisStore{rdb: rdb})
}

func newCache(cfg config.CacheConfig, store responseStore) echo.MiddlewareFunc {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			method := strings.ToUpper(req.Method)
			if !cfg.Methods[method] {
				return next(c)
			}

			reqBody, ok, err := readBody(req)
			if err != nil || !ok {
				return next(c)
			}

			ctx := req.Context()
			key := cacheKeyFrom(cfg.Prefix, method, c.Path(), reqBody)

			if bs, err := store.Get(ctx, key); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if perRequestHeaders[http.CanonicalHeaderKey(k)] {
							continue
						}
						c.Response().Header()[k] = append([]string(nil), vals...)
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					metrics.RecordCache("hit")
					return nil
				}
			}
			metrics.RecordCache("miss")

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			// truncated bodies are never stored
			if cw.status == http.StatusOK && (maxBody <= 0 || cw.size <= maxBody) {
				hdr := make(http.Header, len(c.Response().Header()))
				for k, vals := range c.Response().Header() {
					if perRequestHeaders[http.CanonicalHeaderKey(k)] {
						continue
					}
					vv := make([]string, len(vals))
					copy(vv, vals)
					hdr[k] = vv
				}
				if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
					_ = store.Set(context.WithoutCancel(ctx), key, payload, ttl)
				}
			}
			return nil
		}
	}
}

// InvalidateCache deletes every cached response under prefix and returns
// how many keys were removed. It walks the keyspace with SCAN so a large
// cache never blocks Redis.
func InvalidateCache(ctx context.Context, rdb *redis.Client, prefix string) (int64, error) {
	if rdb == nil {
		return 0, nil
	}
	var removed int64
	iter := rdb.Scan(ctx, 0, prefix+":*", 500).Iterator()
	batch := make([]string, 0, 500)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := rdb.Del(ctx, batch...).Result()
		removed += n
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	if err := flush(); err != nil {
		return removed, err
	}
	metrics.RecordCache("invalidate")
	return removed, nil
}
