package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerencsarMichal/citacka/internal/auth"
	"github.com/HerencsarMichal/citacka/internal/bookstore"
	"github.com/HerencsarMichal/citacka/internal/catalog"
	"github.com/HerencsarMichal/citacka/internal/httpapi"
	"github.com/HerencsarMichal/citacka/internal/snapshot"
	"github.com/HerencsarMichal/citacka/pkg/kit"
)

func main() {
	service := "bookstore"
	_ = godotenv.Load()

	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8080")
	dataDir := getenv("DATA_DIR", "./data")
	jwtSecret := getenv("JWT_SECRET", "dev-secret")
	passphrase := getenv("OWNER_PASSPHRASE", "owner")

	kv := openSnapshots(log, dataDir)

	store := bookstore.New(kv, catalog.DirContent{Dirs: contentDirs(dataDir)}, log)
	store.Initialize(context.Background(), catalogSource(dataDir))
	store.RestoreState()

	owner, err := auth.NewOwner(passphrase)
	if err != nil {
		log.Fatal("owner passphrase", zap.Error(err))
	}

	s := &httpapi.Server{
		Store:   store,
		Owner:   owner,
		JWT:     auth.NewTokenMaker(jwtSecret),
		KV:      kv,
		Log:     log,
		Limiter: kit.NewIPRateLimiter(10, time.Minute),
	}

	h := httpapi.NewHandler(s, httpapi.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: getenv("METRICS_ENABLED", "") == "1",
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openSnapshots(log *zap.Logger, dataDir string) snapshot.KV {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		db, err := sql.Open("pgx", url)
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}

		pg := snapshot.NewPostgresKV(db)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pg.Setup(ctx); err != nil {
			log.Fatal("snapshot schema", zap.Error(err))
		}
		return pg
	}

	kv, err := snapshot.NewFileKV(filepath.Join(dataDir, "snapshots"))
	if err != nil {
		log.Fatal("snapshot dir", zap.Error(err))
	}
	return kv
}

func catalogSource(dataDir string) bookstore.CatalogSource {
	if getenv("CATALOG_SOURCE", "file") == "generated" {
		size, _ := strconv.Atoi(getenv("CATALOG_SIZE", "12"))
		seed, _ := strconv.ParseInt(getenv("CATALOG_SEED", "1"), 10, 64)
		return catalog.GeneratedSource{Size: size, Seed: seed}
	}

	return catalog.FileSource{
		Path: getenv("CATALOG_PATH", filepath.Join(dataDir, "books.json")),
	}
}

func contentDirs(dataDir string) []string {
	raw := getenv("CONTENT_DIRS", filepath.Join(dataDir, "books")+","+dataDir)

	var dirs []string
	for _, d := range strings.Split(raw, ",") {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
