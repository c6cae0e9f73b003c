package main

import (
	"context"
	"flag"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/stockroom/internal/adapter/handler"
	"github.com/rl1809/stockroom/internal/config"
)

type seedItem struct {
	name     string
	category string
	supplier string
	quantity int
	price    string
}

var catalogue = []seedItem{
	{"Coca-Cola 500ml", "Drinks", "Coca-Cola", 50, "1.50"},
	{"Pepsi Max 500ml", "Drinks", "PepsiCo", 40, "1.50"},
	{"Walkers Crisps", "Snacks", "Walkers", 30, "1.20"},
	{"Doritos Cool Original", "Snacks", "PepsiCo", 25, "1.50"},
	{"Cadbury Dairy Milk", "Confectionery", "Cadbury", 20, "1.00"},
	{"Galaxy Chocolate Bar", "Confectionery", "Mars", 15, "1.10"},
	{"Kingsmill Bread", "Bakery", "Kingsmill", 10, "1.20"},
	{"Milk 2L", "Dairy", "Local Farm", 20, "2.00"},
	{"Butter 250g", "Dairy", "Anchor", 12, "2.50"},
	{"Eggs (12 pack)", "Dairy", "Farm Fresh", 18, "2.20"},
	{"Bananas (per kg)", "Produce", "Fruit Market", 25, "1.30"},
	{"Apples (per kg)", "Produce", "Fruit Market", 20, "1.50"},
	{"Potatoes (2kg)", "Produce", "Local Farm", 10, "2.80"},
	{"Ready Meal (Lasagna)", "Frozen", "Iceland", 8, "3.00"},
	{"Frozen Peas", "Frozen", "Birds Eye", 15, "2.00"},
}

// Seeds the demo catalogue through the gRPC API of a running server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	log := cfg.NewLogger()

	addr := flag.String("addr", "localhost:"+cfg.Server.GRPCPort, "gRPC address of the inventory server")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to dial %s: %v", *addr, err)
	}
	defer conn.Close()

	client := handler.NewInventoryClient(conn)

	var seeded int
	for _, item := range catalogue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		price := decimal.RequireFromString(item.price)
		resp, err := client.AddItem(ctx, &handler.ItemRequest{
			Barcode:  randomBarcode(),
			Name:     item.name,
			Category: item.category,
			Supplier: item.supplier,
			Quantity: item.quantity,
			Price:    &price,
		})
		cancel()

		if err != nil {
			log.WithError(err).WithField("item", item.name).Error("failed to seed item")
			continue
		}
		seeded++
		log.WithFields(logrus.Fields{"item": item.name, "barcode": resp.Item.Barcode}).Info("seeded item")
	}

	log.Infof("seeded %d of %d items", seeded, len(catalogue))
}

// randomBarcode returns 12 random digits.
func randomBarcode() string {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}
