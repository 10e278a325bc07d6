package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/teamchat/internal/api"
	"github.com/npezzotti/teamchat/internal/chat"
	"github.com/npezzotti/teamchat/internal/config"
	"github.com/npezzotti/teamchat/internal/database"
	"github.com/npezzotti/teamchat/internal/server"
	"github.com/npezzotti/teamchat/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "", "server address")
	flag.StringVar(&dsn, "dsn", "", "database connection string")
	flag.StringVar(&signingKey, "signing-key", "", "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[teamchat] ", log.LstdFlags)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("config:", err)
	}

	db, err := database.NewPgTeamChatRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	hub := server.NewHub(logger, statsUpdater)
	chatSvc := chat.NewService(logger, db, hub, &chat.LogNotifier{Log: logger})

	app := api.NewTeamChatApp(mux, logger, hub, chatSvc, db, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go hub.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := app.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down hub...")
	hub.Shutdown()

	logger.Println("shutdown complete")
}

// loadConfig reads the environment first, then applies any flags that
// were set on the command line.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil && addr == "" && dsn == "" && signingKey == "" {
		return nil, err
	}

	var (
		cfgAddr    = addr
		cfgDsn     = dsn
		cfgKey     = signingKey
		cfgOrigins = []string(allowedOrigins)
	)

	if cfg != nil {
		if cfgAddr == "" {
			cfgAddr = cfg.ServerAddr
		}
		if cfgDsn == "" {
			cfgDsn = cfg.DatabaseDSN
		}
		if cfgKey == "" {
			cfgKey = cfg.SigningSecret
		}
		if len(cfgOrigins) == 0 {
			cfgOrigins = cfg.AllowedOrigins
		}
	}

	return config.NewConfig(cfgAddr, cfgDsn, cfgKey, cfgOrigins)
}
