package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finovate/healthcheck-go/internal/config"
	"github.com/finovate/healthcheck-go/internal/domain"
	"github.com/finovate/healthcheck-go/internal/report"
)

const (
	reportKeyPrefix  = "healthcheck:report"
	scanBatchSize    = 100
	defaultReportTTL = 15 * time.Minute
)

// ReportKey identifies one cached report run: tenant, period, the set of
// sections that were requested, and a digest of any uploaded sync error
// rows. The digest keeps runs fed different workbooks from sharing an
// entry within the TTL.
type ReportKey struct {
	Client     string
	Year       int
	Month      int
	Sections   []string
	SyncDigest string
}

// SyncRowsDigest fingerprints uploaded sync error rows for use in a
// ReportKey. Runs without an upload digest to the empty string.
func SyncRowsDigest(rows []domain.Record) string {
	if len(rows) == 0 {
		return ""
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return "unhashable"
	}
	hash := sha1.Sum(payload)
	return hex.EncodeToString(hash[:])
}

// ReportCache stores finished report runs so that repeat dashboard loads do
// not redo the full API pull. A run takes minutes against a rate-limited
// API, so even a short TTL pays for itself.
type ReportCache interface {
	Get(ctx context.Context, key ReportKey) (*report.Report, bool, error)
	Set(ctx context.Context, key ReportKey, rpt *report.Report) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.ReportTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultReportTTL
	}

	return &redisReportCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) Get(ctx context.Context, key ReportKey) (*report.Report, bool, error) {
	payload, err := c.client.Get(ctx, buildReportKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rpt report.Report
	if err := json.Unmarshal(payload, &rpt); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}

	return &rpt, true, nil
}

func (c *redisReportCache) Set(ctx context.Context, key ReportKey, rpt *report.Report) error {
	payload, err := json.Marshal(rpt)
	if err != nil {
		return fmt.Errorf("encode report for cache: %w", err)
	}

	if err := c.client.Set(ctx, buildReportKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, reportKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

func (n *noopReportCache) Get(ctx context.Context, key ReportKey) (*report.Report, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) Set(ctx context.Context, key ReportKey, rpt *report.Report) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func buildReportKey(key ReportKey) string {
	sections := append([]string(nil), key.Sections...)
	sort.Strings(sections)

	raw := fmt.Sprintf("client=%s|year=%d|month=%d|sections=%s|sync=%s",
		strings.ToLower(key.Client), key.Year, key.Month, strings.Join(sections, ","), key.SyncDigest)
	hash := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", reportKeyPrefix, hex.EncodeToString(hash[:]))
}
