package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mgaultier/marks/internal/gateway"
	"github.com/mgaultier/marks/internal/logger"
	"github.com/mgaultier/marks/internal/session"
	storeredis "github.com/mgaultier/marks/internal/store/redis"
)

type Deps struct {
	Logger            logger.Logger
	StartTime         time.Time
	Version           string
	Commit            string
	BuildDate         string
	GoVersion         string
	TimeNow           func() time.Time       // for testing, defaults to time.Now
	RedisClient       *redis.Client          // Redis client connection
	Store             *storeredis.Store      // Bookmark persistence
	Gateway           *gateway.Gateway       // Owner-scoped mutation gateway
	Verifier          *session.TokenVerifier // Access token verifier
	ListCacheTTL      time.Duration          // TTL for the cached list view
	SeedReloadTrigger chan struct{}          // Channel to trigger manual seed reload (nil if seed import disabled)
}
