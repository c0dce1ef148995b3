package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof" // Register pprof handlers
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	slackbot "github.com/malbeclabs/videolake/internal/slack"
	"github.com/malbeclabs/videolake/pkg/analytics"
	"github.com/malbeclabs/videolake/pkg/logger"
	"github.com/malbeclabs/videolake/pkg/postgres"
	"github.com/malbeclabs/videolake/pkg/querier"
	"github.com/malbeclabs/videolake/pkg/translator"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slack-go/slack/socketmode"
	flag "github.com/spf13/pflag"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	defaultMetricsAddr = "0.0.0.0:0"
	defaultHTTPAddr    = "0.0.0.0:3000"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the Slack bot.
//
// Required Slack Bot Token Scopes:
//   - chat:write - Post messages
//   - reactions:write - Add and remove the processing reaction
//   - im:history - Read DM history
//   - app_mentions:read - Receive channel mentions
//
// Required Event Subscriptions (Subscribe to bot events):
//   - message.im - Receive direct messages
//   - app_mention - Receive events when the bot is mentioned in channels
func run() error {
	_ = godotenv.Load()

	verboseFlag := flag.Bool("verbose", false, "Enable verbose (debug) logging")
	enablePprofFlag := flag.Bool("enable-pprof", false, "Enable pprof server")
	metricsAddrFlag := flag.String("metrics-addr", defaultMetricsAddr, "Address to listen on for prometheus metrics")
	modeFlag := flag.String("mode", "", "Mode: 'socket' (dev) or 'http' (prod). Defaults to 'socket' if SLACK_APP_TOKEN is set, otherwise 'http'")
	httpAddrFlag := flag.String("http-addr", defaultHTTPAddr, "Address to listen on for HTTP events (production mode)")
	workersFlag := flag.Int("workers", 16, "Maximum number of questions answered concurrently")
	shutdownTimeoutFlag := flag.Duration("shutdown-timeout", 60*time.Second, "Maximum time to wait for in-flight operations to complete during graceful shutdown")
	flag.Parse()

	log := logger.New(*verboseFlag)

	cfg, err := slackbot.LoadFromEnv(*modeFlag, *httpAddrFlag, *metricsAddrFlag, *workersFlag, *verboseFlag, *enablePprofFlag)
	if err != nil {
		return err
	}
	pgCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		return err
	}
	llmCfg, err := translator.LLMConfigFromEnv()
	if err != nil {
		return err
	}

	if cfg.EnablePprof {
		go func() {
			log.Info("starting pprof server", "address", "localhost:6060")
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				log.Error("failed to start pprof server", "error", err)
			}
		}()
	}

	if cfg.MetricsAddr != "" {
		slackbot.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		go func() {
			listener, err := net.Listen("tcp", cfg.MetricsAddr)
			if err != nil {
				log.Error("failed to start prometheus metrics server listener", "error", err)
				return
			}
			log.Info("prometheus metrics server listening", "address", listener.Addr().String())
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.Serve(listener, mux); err != nil {
				log.Error("failed to start prometheus metrics server", "error", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := postgres.Open(ctx, log, pgCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	q, err := querier.New(querier.Config{Logger: log, Pool: db.Pool()})
	if err != nil {
		return err
	}

	llm, err := translator.NewLLMClient(ctx, llmCfg)
	if err != nil {
		return err
	}
	tr, err := translator.New(translator.Config{Logger: log, LLM: llm})
	if err != nil {
		return err
	}
	log.Info("translator initialized", "provider", llmCfg.Provider, "model", llmCfg.Model)

	svc, err := analytics.New(analytics.Config{Logger: log, Translator: tr, Executor: q})
	if err != nil {
		return err
	}

	slackClient := slackbot.NewClient(cfg.BotToken, cfg.AppToken, log)
	botUserID, err := slackClient.Initialize(ctx)
	if err != nil {
		log.Warn("slack auth test failed, continuing anyway", "error", err)
	}
	cfg.BotUserID = botUserID

	processor := slackbot.NewProcessor(slackClient, svc, log, slackbot.WithBotUserID(cfg.BotUserID))

	eventHandler := slackbot.NewEventHandler(ctx, processor, log, cfg.BotUserID, cfg.Workers)
	eventHandler.StartCleanup(ctx)

	if cfg.Mode == slackbot.ModeSocket {
		err = runSocketMode(ctx, slackClient, eventHandler, log)
	} else {
		err = runHTTPMode(ctx, cfg.HTTPAddr, cfg.SigningSecret, eventHandler, log)
	}

	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		log.Info("shutdown signal received, waiting for in-flight operations", "timeout", *shutdownTimeoutFlag)
		shutdownComplete := eventHandler.StopAcceptingNew()

		waitDone := make(chan struct{})
		go func() {
			shutdownComplete()
			close(waitDone)
		}()

		select {
		case <-waitDone:
			log.Info("all in-flight operations completed")
		case <-time.After(*shutdownTimeoutFlag):
			log.Warn("timeout waiting for in-flight operations, proceeding with shutdown", "timeout", *shutdownTimeoutFlag)
			eventHandler.CancelInFlight()
		}
		log.Info("slack bot shutting down", "reason", err)
		return nil
	}
	return err
}

// runSocketMode runs the bot in Socket Mode (development)
func runSocketMode(ctx context.Context, slackClient *slackbot.Client, eventHandler *slackbot.EventHandler, log *slog.Logger) error {
	client := socketmode.New(slackClient.API())

	go func() {
		if err := client.RunContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("socketmode client error", "error", err)
		}
	}()

	log.Info("bot running in socket mode")
	return eventHandler.HandleSocketMode(ctx, client)
}

// runHTTPMode runs the bot in HTTP Mode (production)
func runHTTPMode(ctx context.Context, httpAddr, signingSecret string, eventHandler *slackbot.EventHandler, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/events", func(w http.ResponseWriter, r *http.Request) {
		eventHandler.HandleHTTP(w, r, signingSecret)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			log.Error("failed to write readyz response", "error", err)
		}
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening for Slack events", "addr", httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("bot running in HTTP mode")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping HTTP server from accepting new connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("error shutting down HTTP server", "error", err)
	}

	return ctx.Err()
}
