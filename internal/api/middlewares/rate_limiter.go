package middlewares

import (
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/5w1tchy/bookshelf-api/internal/api/apperr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type KeyFunc func(r *http.Request) string

// PerIPKey buckets requests by client address.
func PerIPKey(prefix string) KeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		return prefix + ":" + ip
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket peer. Header values that are not addresses are ignored.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// tokenBucketLua refills KEYS[1] at ARGV[1] tokens/s up to ARGV[2] and takes
// one token. Returns {allowed, whole tokens left, retry after ms}.
var tokenBucketLua = redis.NewScript(`
local rate, cap = tonumber(ARGV[1]), tonumber(ARGV[2])
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local d = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens, ts = tonumber(d[1]) or cap, tonumber(d[2]) or now
tokens = math.min(cap, tokens + math.max(0, now - ts) * rate / 1000)
local allowed, retry = 0, 0
if tokens >= 1 then
  tokens, allowed = tokens - 1, 1
else
  retry = math.ceil((1 - tokens) * 1000 / rate)
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('PEXPIRE', KEYS[1], math.ceil(cap / rate * 1000))
return {allowed, math.floor(tokens), retry}
`)

// RedisTokenBucket smooths bursts across every instance sharing the Redis.
type RedisTokenBucket struct {
	rdb   *redis.Client
	keyFn KeyFunc
	rate  float64
	burst int
}

func NewRedisTokenBucket(rdb *redis.Client, ratePerSecond float64, burst int, keyFn KeyFunc) *RedisTokenBucket {
	return &RedisTokenBucket{rdb: rdb, keyFn: keyFn, rate: ratePerSecond, burst: burst}
}

// Middleware enforces the bucket; a nil bucket or nil client lets everything through.
func (tb *RedisTokenBucket) Middleware(next http.Handler) http.Handler {
	if tb == nil || tb.rdb == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := tb.keyFn(r)
		res, err := tokenBucketLua.Run(r.Context(), tb.rdb, []string{key},
			strconv.FormatFloat(tb.rate, 'f', -1, 64), tb.burst).Int64Slice()
		if err != nil || len(res) != 3 {
			log.Printf("[ratelimit] token bucket unavailable: %v (allowing request)", err)
			next.ServeHTTP(w, r)
			return
		}

		setLimitHeaders(w, "token-bucket", tb.burst, res[1])
		if res[0] != 1 {
			reject(w, r, "token-bucket", key, time.Duration(res[2])*time.Millisecond)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedisSlidingWindow caps requests per key over a rolling window (ZSET of timestamps).
type RedisSlidingWindow struct {
	rdb    *redis.Client
	keyFn  KeyFunc
	limit  int
	window time.Duration
}

func NewRedisSlidingWindow(rdb *redis.Client, limit int, window time.Duration, keyFn KeyFunc) *RedisSlidingWindow {
	return &RedisSlidingWindow{rdb: rdb, keyFn: keyFn, limit: limit, window: window}
}

func (sw *RedisSlidingWindow) Middleware(next http.Handler) http.Handler {
	if sw == nil || sw.rdb == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := sw.keyFn(r)
		now := time.Now()
		floor := now.Add(-sw.window).UnixMilli()

		pipe := sw.rdb.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(floor, 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
		count := pipe.ZCard(ctx, key)
		oldest := pipe.ZRangeWithScores(ctx, key, 0, 0)
		pipe.PExpire(ctx, key, sw.window+time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("[ratelimit] sliding window unavailable: %v (allowing request)", err)
			next.ServeHTTP(w, r)
			return
		}

		n := int(count.Val())
		setLimitHeaders(w, "sliding-window", sw.limit, int64(max(0, sw.limit-n)))
		if n > sw.limit {
			retry := time.Second
			if first := oldest.Val(); len(first) == 1 {
				retry = time.UnixMilli(int64(first[0].Score)).Add(sw.window).Sub(now)
			}
			reject(w, r, "sliding-window", key, retry)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setLimitHeaders(w http.ResponseWriter, policy string, limit int, remaining int64) {
	h := w.Header()
	h.Set("X-RateLimit-Policy", policy)
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
}

// reject answers 429 with Retry-After rounded up to whole seconds (at least 1).
func reject(w http.ResponseWriter, r *http.Request, policy, key string, retry time.Duration) {
	sec := max(1, int64((retry+time.Second-1)/time.Second))
	w.Header().Set("Retry-After", strconv.FormatInt(sec, 10))
	log.Printf("[ratelimit] %s blocked %s, retry in %ds", policy, key, sec)
	tooMany(w, r)
}

func tooMany(w http.ResponseWriter, r *http.Request) {
	apperr.Write(w, r, apperr.Problem{
		Status:    http.StatusTooManyRequests,
		Title:     "Too Many Requests",
		Retryable: true,
	})
}
