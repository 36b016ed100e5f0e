package middleware

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// keyPrefix namespaces every token bucket in Redis.
const keyPrefix = "ratelimit:tb:"

// bucketTTL keeps idle buckets around long enough to refill completely.
const bucketTTL = 60

// tokenBucket refills ARGV[1] tokens per second up to ARGV[2] and takes one token.
// The bucket lives in a hash {last_refill, tokens}. Returns 1 when allowed.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
redis.call('EXPIRE', key, ttl)
return allowed
`)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstCapacity     int
	Enabled           bool
	// TrustedProxies lists the peers, as IPs or CIDRs, whose x-forwarded-for and
	// x-real-ip metadata is believed. Empty means the peer address is always used.
	TrustedProxies    []string
}

// RateLimiter is a Redis token bucket used by the gRPC interceptor and the
// HTTP middleware. Buckets are keyed per route and client.
type RateLimiter struct {
	client  *redis.Client
	config  RateLimiterConfig
	trusted []netip.Prefix
	log     *zap.Logger
	now     func() time.Time
}

// NewRateLimiter creates a new rate limiter. A nil client disables limiting.
// Unparseable trusted proxy entries are logged and ignored.
func NewRateLimiter(client *redis.Client, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	trusted := make([]netip.Prefix, 0, len(config.TrustedProxies))
	for _, entry := range config.TrustedProxies {
		p, err := ParseProxy(entry)
		if err != nil {
			log.Warn("ignoring trusted proxy", zap.String("entry", entry), zap.Error(err))
			continue
		}
		trusted = append(trusted, p)
	}

	return &RateLimiter{
		client:  client,
		config:  config,
		trusted: trusted,
		log:     log,
		now:     time.Now,
	}
}

// ParseProxy accepts a CIDR or a single address.
func ParseProxy(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		p, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// Enabled reports whether requests are being limited.
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.config.Enabled && rl.client != nil
}

// Config returns the limiter settings.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}

// Allow takes one token from the bucket named by key. Redis errors fail open.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if !rl.Enabled() {
		return true
	}

	now := float64(rl.now().UnixMilli()) / 1000
	allowed, err := tokenBucket.Run(ctx, rl.client, []string{keyPrefix + key},
		rl.config.RequestsPerSecond,
		rl.config.BurstCapacity,
		now,
		bucketTTL,
	).Int64()
	if err != nil {
		rl.log.Warn("rate limiter redis error, allowing request",
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}

	return allowed == 1
}

// UnaryInterceptor returns a gRPC unary interceptor for rate limiting.
func (rl *RateLimiter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !rl.Enabled() {
			return handler(ctx, req)
		}

		clientIP := rl.ClientIP(ctx)
		if !rl.Allow(ctx, info.FullMethod+":"+clientIP) {
			rl.log.Warn("rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("method", info.FullMethod),
			)
			return nil, status.Error(codes.ResourceExhausted, rl.LimitMessage())
		}

		return handler(ctx, req)
	}
}

// LimitMessage describes the configured limit.
func (rl *RateLimiter) LimitMessage() string {
	return fmt.Sprintf("rate limit exceeded: %.2f requests/second (burst capacity: %d)",
		rl.config.RequestsPerSecond, rl.config.BurstCapacity)
}

// ClientIP returns the address a bucket is keyed by. Forwarding metadata counts only
// when the direct peer is a trusted proxy; x-forwarded-for is then read right to left
// and the first hop that is not itself a trusted proxy wins.
func (rl *RateLimiter) ClientIP(ctx context.Context) string {
	remote, ok := peerAddr(ctx)
	if !ok {
		return "unknown"
	}
	if !rl.trusts(remote) {
		return remote.String()
	}

	md, _ := metadata.FromIncomingContext(ctx)
	if hops := forwardedHops(md.Get("x-forwarded-for")); len(hops) > 0 {
		for i := len(hops) - 1; i > 0; i-- {
			if !rl.trusts(hops[i]) {
				return hops[i].String()
			}
		}
		return hops[0].String()
	}
	if xri := md.Get("x-real-ip"); len(xri) > 0 {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri[0])); err == nil {
			return addr.Unmap().String()
		}
	}

	return remote.String()
}

func (rl *RateLimiter) trusts(addr netip.Addr) bool {
	if rl == nil {
		return false
	}
	for _, p := range rl.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func peerAddr(ctx context.Context) (netip.Addr, bool) {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return netip.Addr{}, false
	}
	ap, err := netip.ParseAddrPort(p.Addr.String())
	if err != nil {
		return netip.Addr{}, false
	}
	return ap.Addr().Unmap(), true
}

// forwardedHops flattens x-forwarded-for values in order. Only the well-formed suffix
// is kept, since nothing left of a malformed hop can be attributed.
func forwardedHops(values []string) []netip.Addr {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, ",")...)
	}

	hops := make([]netip.Addr, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(parts[i]))
		if err != nil {
			return hops[i+1:]
		}
		hops[i] = addr.Unmap()
	}
	return hops
}
