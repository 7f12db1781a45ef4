package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/factlens/factlens/internal/cache"
)

const schedLockKey = "factlens:sched:cache_maintenance"

// Scheduler trims the persistent cache tier on a cron schedule. A redis
// lock keeps replicas from evicting concurrently; without redis the
// scheduler still runs locally.
type Scheduler struct {
	Cache      *cache.Cache
	Rdb        *redis.Client
	CronSpec   string
	MaxEntries int
	Stop       chan struct{}
	Logger     *log.Logger

	lastRun *time.Time
}

func (s *Scheduler) Start() {
	if s.Logger == nil {
		s.Logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	ticker := time.NewTicker(time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	if !isDue(s.CronSpec, s.lastRun) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.Rdb != nil {
		ok, err := s.Rdb.SetNX(ctx, schedLockKey, "1", 2*time.Minute).Result()
		if err != nil {
			s.Logger.Printf("maintenance lock: %v", err)
			return
		}
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, schedLockKey)
	}

	now := time.Now()
	s.lastRun = &now
	removed, err := s.Cache.EvictOldest(ctx, s.MaxEntries)
	if err != nil {
		s.Logger.Printf("cache maintenance: %v", err)
		return
	}
	if removed > 0 {
		s.Logger.Printf("cache maintenance removed %d entries", removed)
	}
}

// isDue determines whether the schedule has come around since last.
// Supports "@daily", "@hourly", and standard 5-field cron expressions;
// an unparseable spec degrades to @daily.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
