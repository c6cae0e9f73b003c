package handler

import (
	"context"
	"net"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newTestGRPCClient(t *testing.T) (*InventoryClient, *grpc.ClientConn, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	logger, _ := logtest.NewNullLogger()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterInventoryServer(srv, NewGRPCHandler(env.inventory, env.reports, logger))
	healthpb.RegisterHealthServer(srv, health.NewServer())

	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewInventoryClient(conn), conn, env
}

func TestGRPC_AddMergeAndList(t *testing.T) {
	client, _, _ := newTestGRPCClient(t)
	ctx := context.Background()

	added, err := client.AddItem(ctx, &ItemRequest{Barcode: "b1", Name: "Rice", Quantity: 2, Category: "Grains"})
	require.NoError(t, err)
	assert.True(t, added.Created)

	merged, err := client.AddItem(ctx, &ItemRequest{Barcode: "B1", Name: "Rice", Quantity: 5})
	require.NoError(t, err)
	assert.False(t, merged.Created)
	assert.Equal(t, 7, merged.Item.Quantity)

	_, err = client.AddItem(ctx, &ItemRequest{Barcode: "b2", Name: "Milk", Quantity: 1})
	require.NoError(t, err)

	all, err := client.ListItems(ctx, &ListItemsRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	found, err := client.ListItems(ctx, &ListItemsRequest{Search: "milk"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Uncategorized", found.Items[0].Category)

	low, err := client.ListLowStock(ctx, &LowStockRequest{})
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "Milk", low.Items[0].Name)

	analytics, err := client.GetAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, analytics.TotalItems)
	assert.Equal(t, 8, analytics.TotalStock)
	assert.Equal(t, map[string]int{"Grains": 1}, analytics.Categories)
}

func TestGRPC_UpdateAndDelete(t *testing.T) {
	client, _, _ := newTestGRPCClient(t)
	ctx := context.Background()

	_, err := client.AddItem(ctx, &ItemRequest{Barcode: "b1", Name: "Rice", Quantity: 20})
	require.NoError(t, err)

	name := "Brown Rice"
	updated, err := client.UpdateItem(ctx, &UpdateItemRequest{Barcode: "b1", Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Brown Rice", updated.Name)
	assert.Equal(t, 20, updated.Quantity)

	deleted, err := client.DeleteItem(ctx, &BarcodeRequest{Barcode: "b1"})
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	_, err = client.DeleteItem(ctx, &BarcodeRequest{Barcode: "b1"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_ErrorCodes(t *testing.T) {
	client, _, env := newTestGRPCClient(t)
	ctx := context.Background()

	_, err := client.AddItem(ctx, &ItemRequest{Barcode: "b1", Quantity: 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err), "name is required")

	_, err = client.UpdateItem(ctx, &UpdateItemRequest{Barcode: "b1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err), "empty patch")

	qty := 3
	_, err = client.UpdateItem(ctx, &UpdateItemRequest{Barcode: "missing", Quantity: &qty})
	assert.Equal(t, codes.NotFound, status.Code(err))

	env.mr.Close()
	_, err = client.AddItem(ctx, &ItemRequest{Barcode: "b1", Name: "Rice", Quantity: 1})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	list, err := client.ListItems(ctx, &ListItemsRequest{})
	require.NoError(t, err, "reads degrade to empty")
	assert.Empty(t, list.Items)
}

func TestGRPC_Health(t *testing.T) {
	_, conn, _ := newTestGRPCClient(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
