// Command table serves a single-human Belote table over websocket, or runs
// bot self-play with `table selfplay`.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"belote/internal/app"
	"belote/internal/config"
	"belote/internal/domain"
	"belote/internal/ports/ws"
	"belote/internal/sim"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = serve(ctx, logger, args)
	case "selfplay":
		err = selfPlay(ctx, logger, args)
	default:
		err = fmt.Errorf("unknown command %q (want serve or selfplay)", cmd)
	}
	if err != nil {
		logger.Error("table: exiting", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("BELOTE_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadConfig reads the JSON config then applies BELOTE_* overrides.
func loadConfig() (config.GameConfig, error) {
	cfg, err := config.Get()
	if err != nil {
		return cfg, err
	}
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(strings.ToLower(k), app.EnvPrefix) {
			env[strings.ToLower(k)] = v
		}
	}
	if err := cfg.ApplyEnv(env, app.EnvPrefix); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func serve(ctx context.Context, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", envOr("BELOTE_ADDR", ":8080"), "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc := app.NewService(rand.New(rand.NewSource(time.Now().UnixNano())), logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewServer(cfg, svc, ws.WithLogger(logger)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("table: listening", zap.String("addr", *addr), zap.String("variant", cfg.Variant))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func selfPlay(ctx context.Context, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("selfplay", flag.ContinueOnError)
	seeds := fs.Int("seeds", 100, "number of matches to play")
	first := fs.Int64("seed", 1, "first seed")
	rounds := fs.Int("rounds", 0, "round cap per match, 0 plays to the target")
	paced := fs.Bool("paced", false, "keep the configured delays")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !*paced {
		cfg = sim.Unpaced(cfg)
	}

	var us, them, failed int
	for seed := *first; seed < *first+int64(*seeds); seed++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rep, err := sim.RunSelfPlay(ctx, seed, sim.Options{Config: cfg, Rounds: *rounds})
		if err != nil {
			failed++
			logger.Error("selfplay: match failed", zap.Int64("seed", seed), zap.Error(err))
			continue
		}
		if rep.Over {
			if rep.Winner == domain.Us {
				us++
			} else {
				them++
			}
		}
		logger.Debug("selfplay: match done",
			zap.Int64("seed", seed),
			zap.Int("rounds", rep.Rounds),
			zap.Int("redeals", rep.Redeals),
			zap.Int("us", rep.Score.Us),
			zap.Int("them", rep.Score.Them),
		)
	}
	logger.Info("selfplay: finished",
		zap.String("variant", cfg.Variant),
		zap.Int("matches", *seeds),
		zap.Int("won_us", us),
		zap.Int("won_them", them),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		return fmt.Errorf("%d of %d matches broke an invariant or errored", failed, *seeds)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
