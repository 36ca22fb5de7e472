package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/redforge/server/internal/config"
	"github.com/redforge/server/internal/content"
	"github.com/redforge/server/internal/dispatch"
	"github.com/redforge/server/internal/goal"
	"github.com/redforge/server/internal/proxy"
	"github.com/redforge/server/internal/scripting"
	"github.com/redforge/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, worldID int64) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            RedForge  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     scriptable voxel game server          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(world: %d)\033[0m\n\n", serverName, worldID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("REDFORGE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.WorldID)

	// 3. Registration layer: dispatch table, registry context, queue
	printSection("registries")

	table := dispatch.NewTable(log)
	regCtx := proxy.NewContext(log, table)
	queue := proxy.NewQueue(regCtx, log)

	// 4. Content sources fill the queue concurrently: the scripting isolate
	// on its own goroutine, content packs on another. Everything still
	// registers in one total order when the queue is flushed below.
	var luaEngine *scripting.Engine
	g, _ := errgroup.WithContext(context.Background())
	if cfg.Scripting.Enabled {
		g.Go(func() error {
			var err error
			luaEngine, err = scripting.NewEngine(cfg.Scripting.ScriptsDir, regCtx, queue, log)
			if err != nil {
				return fmt.Errorf("lua engine: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		loader := content.NewLoader(queue, regCtx, log)
		if err := loader.LoadDir(cfg.Content.PacksDir); err != nil {
			return fmt.Errorf("content packs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if luaEngine != nil {
		defer luaEngine.Close()
		printOK("lua scripts loaded")
	}
	printStat("queued registrations", queue.Len())

	// 5. Flush the queue and freeze: past this point the type registries
	// are immutable.
	if err := queue.FlushAll(); err != nil {
		return fmt.Errorf("flush registrations: %w", err)
	}
	if pb, pi, pe, pc, pg := regCtx.PendingCounts(); pb+pi+pe+pc+pg > 0 {
		log.Warn("created settings never registered",
			zap.Int("blocks", pb), zap.Int("items", pi), zap.Int("entities", pe),
			zap.Int("containers", pc), zap.Int("goals", pg))
	}
	regCtx.Freeze()
	printOK("registries frozen")
	fmt.Println()

	// 6. World
	factory := goal.NewFactory(log, table, regCtx)
	w := world.New(cfg.Server.WorldID, regCtx, factory, cfg.Engine.RandomTickAttempts, log)

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Engine.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			w.Tick()
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			log.Info("server stopped", zap.Int("entities", w.EntityCount()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
