package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/stockroom/internal/adapter/storage"
	"github.com/rl1809/stockroom/internal/config"
	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
)

const (
	barcode       = "stress-test-barcode"
	totalRequests = 200
	parallelism   = 50
	unitsPerAdd   = 3
)

// Fires concurrent add-or-merge calls for one barcode against Redis and
// checks that every increment landed.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	log := cfg.NewLogger()
	log.SetLevel(logrus.WarnLevel)

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB, PoolSize: parallelism * 2})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	store := storage.NewRedisAdapter(rdb)
	defer store.Close()

	// Every goroutine can lose at most one race per competing writer.
	inventory := service.NewInventoryService(store, service.NewAuditLogger(store, log, 0), log, parallelism)

	// Clear previous test data
	if _, err := inventory.DeleteByBarcode(ctx, barcode); err != nil && !errors.Is(err, service.ErrNotFound) {
		log.Fatalf("failed to clear previous run: %v", err)
	}

	var created, merged, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		g.Go(func() error {
			result, err := inventory.AddOrMerge(gctx, domain.Item{Barcode: barcode, Name: "Stress Test Item", Quantity: unitsPerAdd})
			switch {
			case err != nil:
				failed.Add(1)
			case result.Created:
				created.Add(1)
			default:
				merged.Add(1)
			}
			return nil
		})
	}

	g.Wait()
	elapsed := time.Since(start)

	item, err := inventory.GetByBarcode(ctx, barcode)
	if err != nil {
		log.Fatalf("failed to read final item: %v", err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Created:          %d\n", created.Load())
	fmt.Printf("Merged:           %d\n", merged.Load())
	fmt.Printf("Failed:           %d\n", failed.Load())
	fmt.Printf("Final Quantity:   %d\n", item.Quantity)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	ok := true
	if created.Load() != 1 {
		fmt.Printf("FAIL: expected exactly 1 insert, got %d\n", created.Load())
		ok = false
	}

	want := int(created.Load()+merged.Load()) * unitsPerAdd
	if item.Quantity != want {
		fmt.Printf("FAIL: expected quantity %d, got %d (lost updates)\n", want, item.Quantity)
		ok = false
	}

	if !ok {
		os.Exit(1)
	}
	fmt.Println("PASS: one insert, no lost increments")
}
