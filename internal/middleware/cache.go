package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/irfanhabeeb-002/foodshare/internal/config"
)

// captureWriter tees the handler's response so a 200 body can be
// stored in Redis after it is sent.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// NewRedisCache caches successful GET responses for listing endpoints
// such as claimable feeds and nearby searches. Only methods named in
// the config are considered, and only 200 responses are stored. Cached
// entries are served with an X-Cache: HIT header. A nil client or a
// disabled config turns the middleware into a pass-through, and Redis
// failures fall back to the live handler.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			method := c.Request().Method
			if !cfg.Methods[strings.ToUpper(method)] {
				return next(c)
			}

			key := cacheKeyFrom(cfg, c)
			ctx := c.Request().Context()

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				contentType, body, ok := decodePayload(raw)
				if ok {
					c.Response().Header().Set("X-Cache", "HIT")
					if contentType == "" {
						contentType = echo.MIMEApplicationJSON
					}
					return c.Blob(http.StatusOK, contentType, body)
				}
				// Corrupt entry, drop it and regenerate.
				rdb.Del(ctx, key)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && cw.buf.Len() > 0 &&
				(cfg.MaxBodyBytes <= 0 || cw.buf.Len() <= cfg.MaxBodyBytes) {
				contentType := c.Response().Header().Get(echo.HeaderContentType)
				payload := encodePayload(contentType, cw.buf.Bytes())
				if err := rdb.Set(ctx, key, payload, cfg.TTL).Err(); err != nil {
					c.Logger().Warnf("cache store failed for key=%s: %v", key, err)
				}
			}
			return nil
		}
	}
}

// cacheKeyFrom hashes method, path and sorted query params. The user id
// is mixed in because feeds are membership-scoped: a private group's
// posts must never be served from another user's cached feed.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	var b strings.Builder
	b.WriteString(c.Request().Method)
	b.WriteByte(' ')
	b.WriteString(c.Request().URL.Path)

	q := c.QueryParams()
	if len(q) > 0 {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			vals := append([]string(nil), q[k]...)
			sort.Strings(vals)
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(strings.Join(vals, ","))
		}
	}

	b.WriteString(" uid=")
	b.WriteString(currentUserID(c))

	sum := sha1.Sum([]byte(b.String()))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// encodePayload stores content type and body in one value:
// [4-byte big-endian ct length][ct bytes][body bytes].
func encodePayload(contentType string, body []byte) []byte {
	ct := []byte(contentType)
	out := make([]byte, 4+len(ct)+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(len(ct)))
	copy(out[4:], ct)
	copy(out[4+len(ct):], body)
	return out
}

func decodePayload(raw []byte) (contentType string, body []byte, ok bool) {
	if len(raw) < 4 {
		return "", nil, false
	}
	n := binary.BigEndian.Uint32(raw[:4])
	if uint32(len(raw)-4) < n {
		return "", nil, false
	}
	return string(raw[4 : 4+n]), raw[4+n:], true
}
