// Package scheduler posts the day's featured item to every registered
// channel once per day.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"nasabot/internal/config"
	"nasabot/internal/nasa"
	"nasabot/internal/render"
	"nasabot/internal/store"
	kit "nasabot/internal/transport"
	logx "nasabot/pkg/logx"
)

const defaultPostTime = "12:10"

type Config struct {
	Enabled  bool
	PostTime string // "HH:MM" wall clock
	Timezone string // IANA name, default UTC
}

// featuredFetcher is the single upstream call the daily job needs.
type featuredFetcher interface {
	Apod(ctx context.Context, date string) (*nasa.Apod, error)
}

type Service struct {
	log     logx.Logger
	adapter kit.Adapter
	store   *store.Store
	fetch   featuredFetcher

	mu    sync.Mutex
	cfg   Config
	c     *cron.Cron
	entry cron.EntryID
	ctx   context.Context
}

func New(cfg Config, adapter kit.Adapter, st *store.Store, fetch featuredFetcher, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:     log,
		adapter: adapter,
		store:   st,
		fetch:   fetch,
		cfg:     cfg,
	}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Start registers the daily trigger. The job itself is idempotent-safe: a
// second firing just posts the same day's item again, so a restart close to
// the trigger time cannot corrupt anything.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	s.ctx = ctx

	loc, err := s.location()
	if err != nil {
		return err
	}
	spec, err := cronSpec(s.cfg.PostTime)
	if err != nil {
		return err
	}

	s.c = cron.New(cron.WithLocation(loc))
	id, err := s.c.AddFunc(spec, s.fire)
	if err != nil {
		s.c = nil
		return err
	}
	s.entry = id
	s.c.Start()
	s.log.Info("daily post scheduled", logx.String("at", spec), logx.String("tz", loc.String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		// best-effort
	}
	s.log.Info("daily post scheduler stopped")
}

// Apply re-registers the trigger when the post time changes (hot reload).
func (s *Service) Apply(cfg config.DailyConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Config{Enabled: cfg.Enabled, PostTime: cfg.PostTime, Timezone: cfg.Timezone}
	if next == s.cfg {
		return
	}
	s.cfg = next
	if s.c == nil {
		return
	}

	spec, err := cronSpec(next.PostTime)
	if err != nil {
		s.log.Warn("daily post time rejected", logx.String("post_time", next.PostTime), logx.Err(err))
		return
	}
	s.c.Remove(s.entry)
	id, err := s.c.AddFunc(spec, s.fire)
	if err != nil {
		s.log.Warn("daily post reschedule failed", logx.Err(err))
		return
	}
	s.entry = id
	s.log.Info("daily post rescheduled", logx.String("at", spec))
}

func (s *Service) fire() {
	s.mu.Lock()
	ctx := s.ctx
	enabled := s.cfg.Enabled
	s.mu.Unlock()
	if ctx == nil || !enabled {
		return
	}
	sent, skipped := s.RunOnce(ctx)
	s.log.Info("daily post run finished", logx.Int("sent", sent), logx.Int("skipped", skipped))
}

// RunOnce walks every registered tenant and posts today's featured item
// (upstream's own current-day record; no explicit date). One tenant failing
// never aborts the rest.
func (s *Service) RunOnce(ctx context.Context) (sent, skipped int) {
	bindings := s.store.All()
	for tenant, targetID := range bindings {
		log := s.log.With(logx.String("tenant", tenant), logx.String("target", targetID))

		target, err := s.adapter.ResolveTarget(ctx, targetID)
		if err != nil {
			log.Warn("target unreachable; skipping tenant", logx.Err(err))
			skipped++
			continue
		}

		item, err := s.fetch.Apod(ctx, "")
		if err != nil {
			log.Warn("featured item fetch failed; skipping tenant", logx.Err(err))
			skipped++
			continue
		}

		ok := true
		for _, p := range render.Apod(item) {
			if err := s.adapter.SendPayload(ctx, target, p); err != nil {
				log.Warn("daily post send failed", logx.Err(err))
				ok = false
				break
			}
		}
		if ok {
			sent++
		} else {
			skipped++
		}
	}
	return sent, skipped
}

func (s *Service) location() (*time.Location, error) {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(tz)
}

func cronSpec(postTime string) (string, error) {
	if strings.TrimSpace(postTime) == "" {
		postTime = defaultPostTime
	}
	hour, minute, err := config.ParseHHMM(postTime)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
