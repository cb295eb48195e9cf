package storage

import (
	"context"
	"fmt"
	"time"
)

// ComponentStatus is the health of one backing service.
type ComponentStatus struct {
	Status    string  `json:"status"`
	Message   string  `json:"message,omitempty"`
	LatencyMS float64 `json:"latency_ms"`
}

// Health pings PostgreSQL and Redis. The returned map is keyed by component.
func (s *Service) Health(ctx context.Context) (map[string]ComponentStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out := map[string]ComponentStatus{
		"database": timed(func() error {
			sqlDB, err := s.DB.DB()
			if err != nil {
				return fmt.Errorf("get sql handle: %w", err)
			}
			return sqlDB.PingContext(ctx)
		}),
		"redis": timed(func() error { return s.Redis.Ping(ctx).Err() }),
	}
	healthy := true
	for _, c := range out {
		if c.Status != "healthy" {
			healthy = false
		}
	}
	return out, healthy
}

func timed(check func() error) ComponentStatus {
	start := time.Now()
	err := check()
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		return ComponentStatus{Status: "unhealthy", Message: err.Error(), LatencyMS: latency}
	}
	return ComponentStatus{Status: "healthy", LatencyMS: latency}
}
