package service

import (
	"context"
	"encoding/json"
	"time"

	"donationsystem/internal/config"
	"donationsystem/internal/infrastructure/cache"
	"donationsystem/internal/repository"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// 缓存里固定存前 100 名的快照，n <= 100 的查询都切自同一份快照
const rankingCacheSize = 100

// RankingService 积分排行榜
//
// 纯读组件：对积分余额做确定性排序（积分降序、账号ID升序），
// 不修改任何状态。读路径走 Redis 快照，积分每次变动时失效，
// 外加有界 TTL，调用方看到的最大滞后就是这个 TTL。
type RankingService struct {
	db           *gorm.DB
	balanceRepo  *repository.BalanceRepository
	rankingCache *cache.RankingCache
}

func NewRankingService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *RankingService {
	ttl := time.Duration(cfg.Business.RankingCacheSeconds) * time.Second
	return &RankingService{
		db:           db,
		balanceRepo:  repository.NewBalanceRepository(db),
		rankingCache: cache.NewRankingCache(redisClient, ttl),
	}
}

// TopN 按积分取前 n 名
func (s *RankingService) TopN(ctx context.Context, n int) ([]repository.RankEntry, error) {
	if n <= 0 {
		return nil, ErrInvalidQuantity
	}

	// 超出快照范围的查询直接落库，不污染缓存
	if n > rankingCacheSize {
		return s.balanceRepo.TopN(ctx, n)
	}

	if data, ok := s.rankingCache.Get(ctx); ok {
		var entries []repository.RankEntry
		if err := json.Unmarshal(data, &entries); err == nil {
			if len(entries) > n {
				entries = entries[:n]
			}
			return entries, nil
		}
		// 快照损坏时当未命中处理，落库重建
	}

	entries, err := s.balanceRepo.TopN(ctx, rankingCacheSize)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(entries); err == nil {
		s.rankingCache.Set(ctx, payload)
	}

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}
