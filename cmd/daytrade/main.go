package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/config"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/marketdata"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/metrics"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/notification"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/scheduler"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/series"
	redisstore "github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/store/redis"
	sqlitestore "github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/store/sqlite"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/strategy"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/watchlist"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/pkg/fubon"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("[daytrade] starting...")

	// .env is optional; the config file and real env still apply.
	if err := godotenv.Load(); err == nil {
		log.Println("[daytrade] loaded .env")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[daytrade] config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[daytrade] invalid config: %v", err)
	}

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[daytrade] received %v, shutting down", sig)
		cancel()
	}()

	// ---- Broker login ----
	api := fubon.NewClient(fubon.Config{
		ID:       cfg.Broker.ID,
		Password: cfg.Broker.Password,
		CertPath: cfg.Broker.CertPath,
		CertPass: cfg.Broker.CertPass,
		RootURL:  cfg.Broker.RootURL,
	})
	if err := api.Login(ctx); err != nil {
		log.Fatalf("[daytrade] broker login failed: %v", err)
	}
	log.Println("[daytrade] broker login ok")

	// Realtime stream keeps the session token warm for the REST calls.
	realtime := api.Realtime()
	if err := realtime.Connect(ctx); err != nil {
		log.Printf("[daytrade] WARNING: realtime connect failed: %v (continuing on REST only)", err)
		health.SetWSConnected(false)
	} else {
		health.SetWSConnected(true)
		defer realtime.Close()
		go reconnectRealtime(ctx, realtime, health, prom)
	}

	md := marketdata.New(api, prom)

	// ---- Session journal (optional) ----
	var journal *sqlitestore.Journal
	if cfg.Database.SQLitePath != "" {
		journal, err = sqlitestore.New(sqlitestore.Config{DBPath: cfg.Database.SQLitePath})
		if err != nil {
			log.Fatalf("[daytrade] sqlite init failed: %v", err)
		}
		defer journal.Close()
		log.Println("[daytrade] session journal ready")
	}

	// ---- Tail cache (optional) ----
	var tailCache *redisstore.TailCache
	if cfg.Redis.Addr != "" {
		tailCache, err = redisstore.New(redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Printf("[daytrade] WARNING: redis init failed: %v (continuing without tail cache)", err)
			tailCache = nil
		} else {
			defer tailCache.Close()
			log.Println("[daytrade] tail cache ready")
		}
	}

	// ---- Liveness probes ----
	if tailCache != nil || journal != nil {
		var rdb *goredis.Client
		if tailCache != nil {
			rdb = tailCache.Client()
		}
		var db *sql.DB
		if journal != nil {
			db = journal.DB()
		}
		health.StartLivenessChecker(ctx, rdb, db, 30*time.Second)
	}

	// ---- Alert channels ----
	channels := []notification.Notifier{
		notification.NewConsoleNotifier(),
		notification.NewSoundNotifier(cfg.Alert.Player, cfg.Alert.SoundFile),
	}
	if cfg.Telegram.BotToken != "" {
		channels = append(channels, notification.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
		log.Println("[daytrade] telegram alerts enabled")
	}

	// ---- Session ----
	var seedCache series.TailCache
	if tailCache != nil {
		seedCache = tailCache
	}
	session := scheduler.New(scheduler.Deps{
		Market:   md,
		Reports:  watchlist.NewReportReader(cfg.Reports.Dir, cfg.Reports.Names),
		Strong:   watchlist.NewStrongScanner(md),
		Seeder:   series.NewTailSeeder(md, seedCache, prom),
		Strategy: strategy.New(),
		Alerts:   notification.NewMulti(prom, channels...),
		Journal:  journalOrNil(journal),
		Metrics:  prom,
		Health:   health,
	})

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[daytrade] session aborted: %v", err)
	}
	log.Println("[daytrade] session complete")
	metricsSrv.Stop(context.Background())
}

// reconnectRealtime redials the streaming channel whenever the current
// connection drops, retrying every few seconds until it sticks or the
// session ends.
func reconnectRealtime(ctx context.Context, rt *fubon.RealtimeClient, health *metrics.HealthStatus, prom *metrics.Metrics) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.Done():
		}
		health.SetWSConnected(false)
		log.Println("[daytrade] realtime connection lost, reconnecting")

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			if err := rt.Connect(ctx); err != nil {
				log.Printf("[daytrade] realtime reconnect failed: %v", err)
				continue
			}
			prom.WSReconnects.Inc()
			health.SetWSConnected(true)
			break
		}
	}
}

// journalOrNil avoids handing the session a typed nil interface.
func journalOrNil(j *sqlitestore.Journal) scheduler.Journal {
	if j == nil {
		return nil
	}
	return j
}
