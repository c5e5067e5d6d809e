package main

import (
	"flag"
	stdlog "log"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/communityforge/notify/pkg/api"
	"github.com/communityforge/notify/pkg/config"
	"github.com/communityforge/notify/pkg/mail"
	"github.com/communityforge/notify/pkg/notify"
	"github.com/communityforge/notify/pkg/ratelimit"
	"github.com/communityforge/notify/pkg/version"
)

func main() {
	var (
		debug      bool
		configPath string
	)
	flag.BoolVar(&debug, "debug", false, "enable debug level logging")
	flag.StringVar(&configPath, "config", "", "path to the config file (default ./config.yaml)")
	flag.Parse()

	zl := setupLogger(debug)
	log := zl.Sugar()
	log.With("version", version.Version).Info("Starting notify api")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Error loading notify config: %v", err)
	}

	if debug {
		log.Infof("%#v", cfg)
	}

	mailProvider := mail.NewProvider(log, cfg.VerifyTimeout(), cfg.SendTimeout())
	renderer := notify.NewRenderer(cfg.Site.BaseURL, cfg.Site.BrandingName)
	executor := notify.NewExecutor(
		notify.NewSMTPProvider(mailProvider),
		renderer,
		log,
		cfg.Mail.AdminEmail,
		cfg.Site.BrandingName,
	)

	limiter := ratelimit.New(ratelimit.DefaultDispatchConfig())
	defer limiter.Stop()

	server := api.NewServer(zl, cfg, debug)
	err = server.RegisterAll([]api.APIController{
		api.NewNotificationController(executor, log, limiter),
	})
	if err != nil {
		log.Fatalf("Error registering notification controller: %v", err)
	}

	server.Listen()
}

func setupLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	// Disable automatic stacktraces for non-fatal levels to avoid noisy traces in WARN/INFO logs
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	return logger
}
