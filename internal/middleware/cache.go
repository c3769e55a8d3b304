package middleware

import (
    "bytes"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/ticketly/ticket-booking/internal/config"
)

// cachedResponse is the entry stored in Redis for a cache hit.
type cachedResponse struct {
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// captureWriter tees the response body into a buffer, up to limit
// bytes, while forwarding it to the client.  Responses that exceed the
// limit are delivered normally but not cached.
type captureWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    overflow bool
    limit    int
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.overflow {
        if cw.buf.Len()+len(b) <= cw.limit {
            cw.buf.Write(b)
        } else {
            cw.overflow = true
            cw.buf.Reset()
        }
    }
    return cw.ResponseWriter.Write(b)
}

// CacheResponse returns an Echo middleware that serves successful GET
// responses of the wrapped routes from Redis for the configured TTL.
// The event listing changes only when an admin edits events, so a
// short TTL takes most of the read load off MySQL without users
// noticing staleness.  Anything other than a 200 GET bypasses the
// cache, and Redis errors fail open.
func CacheResponse(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
            key := cfg.Prefix + ":" + hex.EncodeToString(sum[:])
            ctx := c.Request().Context()

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var entry cachedResponse
                if json.Unmarshal(raw, &entry) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(http.StatusOK, entry.ContentType, entry.Body)
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status == http.StatusOK && !cw.overflow && cw.buf.Len() > 0 {
                entry := cachedResponse{
                    ContentType: c.Response().Header().Get(echo.HeaderContentType),
                    Body:        cw.buf.Bytes(),
                }
                if raw, err := json.Marshal(entry); err == nil {
                    _ = rdb.Set(ctx, key, raw, cfg.TTL).Err()
                }
            }
            return nil
        }
    }
}
