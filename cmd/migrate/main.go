package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/simguard/internal/config"
	"github.com/dropDatabas3/simguard/internal/store/pg"
	migrations "github.com/dropDatabas3/simguard/migrations/postgres"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("SIMGUARD_CONFIG"), "Path to YAML config")
		dir        = flag.String("dir", "", "Directorio de migraciones en disco (vacío = embebidas)")
	)
	flag.Parse()
	_ = godotenv.Load()

	// Positional args: [action] [steps]
	action := "up"
	steps := 0
	args := flag.Args()
	if len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			steps = n
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.Storage.DSN == "" {
		log.Fatal("storage.dsn (o SIMGUARD_STORAGE_DSN) es requerido")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	pool, err := pg.Open(ctx, cfg.Storage.DSN, pg.PoolConfig{MaxConns: 2})
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	m := pg.NewMigrator(pool, migrations.PostgresFS, ".")
	if *dir != "" {
		m = pg.NewMigrator(pool, os.DirFS(*dir), ".")
	}

	switch action {
	case "up":
		n, err := m.Up(ctx, steps)
		if err != nil {
			log.Fatalf("up: %v", err)
		}
		log.Printf("Up migrations completed (%d applied).", n)
	case "down":
		if steps == 0 {
			steps = 1 // down sin steps revierte solo la última
		}
		n, err := m.Down(ctx, steps)
		if err != nil {
			log.Fatalf("down: %v", err)
		}
		log.Printf("Down migrations completed (%d reverted).", n)
	default:
		log.Fatalf("unknown action %q (use up|down)", action)
	}
}
