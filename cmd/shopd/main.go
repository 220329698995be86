package main

import (
	"context"
	"log"
	"net/http"
	"os"

	cartservice "github.com/jcmexdev/shopkit/internal/cart/service"
	catalogdomain "github.com/jcmexdev/shopkit/internal/catalog/domain"
	catalogservice "github.com/jcmexdev/shopkit/internal/catalog/service"
	"github.com/jcmexdev/shopkit/internal/order/confirmlog"
	confirmlogsqlite "github.com/jcmexdev/shopkit/internal/order/confirmlog/sqlite"
	orderservice "github.com/jcmexdev/shopkit/internal/order/service"
	"github.com/jcmexdev/shopkit/internal/pkg/cache"
	"github.com/jcmexdev/shopkit/internal/pkg/telemetry"
	"github.com/jcmexdev/shopkit/internal/shopapp/httpx"
	"github.com/jcmexdev/shopkit/internal/storage/sqlite"
)

func main() {
	ctx := context.Background()

	telemetry.InitLogger()

	shutdown, err := telemetry.SetupTracer(ctx, "shopd")
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer func() { _ = shutdown(context.Background()) }()
	}

	store, err := sqlite.Open(getEnv("SHOPKIT_DB", "./data/shop.db"))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	// Confirmation audit log is optional but cheap to keep on.
	var logRepo confirmlog.Repository
	var logReader confirmlog.Reader
	if path := getEnv("SHOPKIT_CONFIRMLOG_DB", "./data/confirmlog.db"); path != "off" {
		repo, err := confirmlogsqlite.Open(path)
		if err != nil {
			log.Fatalf("failed to open confirmation log: %v", err)
		}
		defer repo.Close()
		logRepo = repo
		logReader = repo
	}

	// Redis is optional; without it every catalog read hits SQLite.
	var productCache cache.Cache
	if addr := os.Getenv("SHOPKIT_REDIS_ADDR"); addr != "" {
		productCache = cache.NewRedisCache(addr, "shopd")
	}

	policy := catalogdomain.DefaultPolicy{CurrencyCode: getEnv("SHOPKIT_CURRENCY", "EUR")}

	catalog, err := catalogservice.NewService(store, productCache, policy)
	if err != nil {
		log.Fatalf("failed to wire catalog service: %v", err)
	}
	carts, err := cartservice.NewService(store, store, store)
	if err != nil {
		log.Fatalf("failed to wire cart service: %v", err)
	}
	orders, err := orderservice.NewService(store, store, store, store, logRepo, nil)
	if err != nil {
		log.Fatalf("failed to wire order service: %v", err)
	}

	handler := httpx.NewHandler(catalog, carts, orders, logReader)
	addr := getEnv("SHOPKIT_HTTP_ADDR", ":8080")

	log.Printf("shopd listening on %s", addr)
	if err := http.ListenAndServe(addr, httpx.NewRouter(handler)); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
