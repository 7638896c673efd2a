// Package app wires config, logging, transport, storage, the command
// dispatcher and the daily scheduler into one process.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nasabot/internal/bot"
	"nasabot/internal/config"
	"nasabot/internal/nasa"
	"nasabot/internal/runtime/supervisor"
	"nasabot/internal/scheduler"
	"nasabot/internal/store"
	kit "nasabot/internal/transport"
	"nasabot/internal/transport/telegram"
	logx "nasabot/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	adapter kit.Adapter
	store   *store.Store
	disp    *bot.Dispatcher
	sched   *scheduler.Service

	updates chan kit.Update
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.NASA.APIKey) == "" {
		return nil, fmt.Errorf("nasa.api_key is required (or set NASA_API_KEY)")
	}

	logSvc, log := logx.New(logConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:          cfg.Telegram.Token,
		PollTimeout:    pollTimeout,
		SendRatePerSec: cfg.Telegram.SendRatePerSec,
	}, logSvc.Logger().With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.Config{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
	}, logSvc.Logger().With(logx.String("comp", "store")))
	if err != nil {
		return nil, err
	}

	nasaTimeout, err := config.ParseDurationOrDefault("nasa.timeout", cfg.NASA.Timeout, 15*time.Second)
	if err != nil {
		return nil, err
	}
	client := nasa.NewClient(nasa.Config{
		APIKey:     cfg.NASA.APIKey,
		APIBase:    cfg.NASA.APIBase,
		ImagesBase: cfg.NASA.ImagesBase,
		TriviaBase: cfg.NASA.TriviaBase,
		Timeout:    nasaTimeout,
	})

	disp := bot.NewDispatcher(logSvc.Logger().With(logx.String("comp", "commands")), adapter, st, client)

	sched := scheduler.New(scheduler.Config{
		Enabled:  cfg.Daily.Enabled,
		PostTime: cfg.Daily.PostTime,
		Timezone: cfg.Daily.Timezone,
	}, adapter, st, client, logSvc.Logger().With(logx.String("comp", "scheduler")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		adapter: adapter,
		store:   st,
		disp:    disp,
		sched:   sched,
		updates: make(chan kit.Update, 256),
	}, nil
}

// Done is closed when the app supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true),
	)

	a.cfgm.SetLogger(a.logs.Logger().With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validate(cfg)
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	if a.sched.Enabled() {
		if err := a.sched.Start(a.sup.Context()); err != nil {
			return err
		}
	}

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.disp.Run(c, a.updates)
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	// Hot reload: log level/sinks and the daily post time can change at
	// runtime; everything else requires a restart.
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.logs.Apply(logConfig(cfg))
				a.sched.Apply(cfg.Daily)
			}
		}
	})

	a.log.Info("started", logx.String("config", a.cfgPath))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup != nil {
		a.sup.Cancel()
	}
	a.sched.Stop(ctx)
	_ = a.adapter.Stop(ctx)
	var waitErr error
	if a.sup != nil {
		waitErr = a.sup.Wait(ctx)
	}
	_ = a.store.Close()
	_ = a.logs.Close()
	return waitErr
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func validate(cfg *config.Config) error {
	if _, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := config.ParseDurationField("nasa.timeout", cfg.NASA.Timeout); err != nil {
		return err
	}
	if pt := strings.TrimSpace(cfg.Daily.PostTime); pt != "" {
		if _, _, err := config.ParseHHMM(pt); err != nil {
			return fmt.Errorf("daily.post_time: %w", err)
		}
	}
	if tz := strings.TrimSpace(cfg.Daily.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("daily.timezone: invalid %q: %w", tz, err)
		}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Store.Driver)) {
	case "", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", cfg.Store.Driver)
	}
	return nil
}
