package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"donationsystem/internal/config"

	"github.com/go-redis/redis/v8"
)

var RedisClient *redis.Client

func InitRedis(cfg *config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("连接 Redis 失败: %v", err)
	}

	RedisClient = client
	log.Println("Redis 连接成功")
	return client
}

// ============================================================
// 排行榜缓存
// 读路径从缓存拿快照，写路径（积分入账/扣减）负责失效。
// 缓存带有界 TTL，失效消息丢失时快照最旧不超过一个 TTL。
// ============================================================

const rankingCacheKey = "ranking:top"

// RankingCache 排行榜快照缓存
type RankingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRankingCache(client *redis.Client, ttl time.Duration) *RankingCache {
	return &RankingCache{client: client, ttl: ttl}
}

// Get 取缓存快照，未命中返回 (nil, false)
func (c *RankingCache) Get(ctx context.Context) ([]byte, bool) {
	data, err := c.client.Get(ctx, rankingCacheKey).Bytes()
	if err != nil {
		// 未命中或 Redis 异常都按未命中处理，缓存不挡读路径
		return nil, false
	}
	return data, true
}

func (c *RankingCache) Set(ctx context.Context, payload []byte) {
	if err := c.client.Set(ctx, rankingCacheKey, payload, c.ttl).Err(); err != nil {
		log.Printf("[RankingCache] 写入缓存失败: %v", err)
	}
}

// Invalidate 积分每次变动后调用
func (c *RankingCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, rankingCacheKey).Err(); err != nil {
		log.Printf("[RankingCache] 失效缓存失败: %v", err)
	}
}
