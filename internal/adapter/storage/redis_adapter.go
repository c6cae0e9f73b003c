package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

const (
	itemKeyPrefix    = "item:"
	barcodeKeyPrefix = "barcode:"
	itemSetKey       = "items"
	quantityIndexKey = "items:by_quantity"
	logStreamKey     = "inventory:logs"

	logStreamMaxLen = 10000
)

// KEYS: barcode, item, id set, quantity index
// ARGV: id, quantity, then field/value pairs
var insertItemScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
	return 0
end

redis.call('HSET', KEYS[2], unpack(ARGV, 3))
redis.call('SADD', KEYS[3], ARGV[1])
redis.call('ZADD', KEYS[4], ARGV[2], ARGV[1])
return 1
`)

// KEYS: item, quantity index
// ARGV: id, delta, expected version, now
var addQuantityScript = redis.NewScript(`
local version = redis.call('HGET', KEYS[1], 'version')
if not version then
	return -1
end

if tonumber(version) ~= tonumber(ARGV[3]) then
	return 0
end

local quantity = redis.call('HINCRBY', KEYS[1], 'quantity', ARGV[2])
redis.call('HINCRBY', KEYS[1], 'version', 1)
redis.call('HSET', KEYS[1], 'updated_at', ARGV[4])
redis.call('ZADD', KEYS[2], quantity, ARGV[1])
return 1
`)

// KEYS: item, quantity index
// ARGV: id, now, then field/value pairs
var updateItemScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end

for i = 3, #ARGV, 2 do
	redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
	if ARGV[i] == 'quantity' then
		redis.call('ZADD', KEYS[2], ARGV[i + 1], ARGV[1])
	end
end

redis.call('HINCRBY', KEYS[1], 'version', 1)
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return 1
`)

// KEYS: item, barcode, id set, quantity index
// ARGV: id
var deleteItemScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end

redis.call('DEL', KEYS[1])
if redis.call('GET', KEYS[2]) == ARGV[1] then
	redis.call('DEL', KEYS[2])
end
redis.call('SREM', KEYS[3], ARGV[1])
redis.call('ZREM', KEYS[4], ARGV[1])
return 1
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Close() error {
	return r.client.Close()
}

func (r *RedisAdapter) FindByBarcode(ctx context.Context, barcode string) (*domain.Item, error) {
	id, err := r.client.Get(ctx, barcodeKeyPrefix+barcode).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup barcode: %w", err)
	}

	return r.getItem(ctx, id)
}

func (r *RedisAdapter) InsertItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	now, err := r.serverTime(ctx)
	if err != nil {
		return nil, err
	}

	item.ID = uuid.NewString()
	item.Version = 0
	item.CreatedAt = now
	item.UpdatedAt = now

	args := []any{item.ID, item.Quantity}
	args = append(args, itemFields(item)...)

	keys := []string{barcodeKeyPrefix + item.Barcode, itemKeyPrefix + item.ID, itemSetKey, quantityIndexKey}
	result, err := insertItemScript.Run(ctx, r.client, keys, args...).Int()
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	if result == 0 {
		return nil, port.ErrDuplicateBarcode
	}

	return &item, nil
}

func (r *RedisAdapter) AddQuantity(ctx context.Context, id string, delta, version int) (*domain.Item, error) {
	now, err := r.serverTime(ctx)
	if err != nil {
		return nil, err
	}

	keys := []string{itemKeyPrefix + id, quantityIndexKey}
	result, err := addQuantityScript.Run(ctx, r.client, keys, id, delta, version, formatTime(now)).Int()
	if err != nil {
		return nil, fmt.Errorf("add quantity: %w", err)
	}

	switch result {
	case -1:
		return nil, port.ErrNotFound
	case 0:
		return nil, port.ErrOptimisticLock
	}

	item, err := r.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, port.ErrNotFound
	}
	return item, nil
}

func (r *RedisAdapter) UpdateItem(ctx context.Context, id string, patch domain.ItemPatch) error {
	now, err := r.serverTime(ctx)
	if err != nil {
		return err
	}

	args := []any{id, formatTime(now)}
	args = append(args, patchFields(patch)...)

	keys := []string{itemKeyPrefix + id, quantityIndexKey}
	result, err := updateItemScript.Run(ctx, r.client, keys, args...).Int()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if result == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (r *RedisAdapter) DeleteItem(ctx context.Context, id string) error {
	barcode, err := r.client.HGet(ctx, itemKeyPrefix+id, "barcode").Result()
	if errors.Is(err, redis.Nil) {
		return port.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	keys := []string{itemKeyPrefix + id, barcodeKeyPrefix + barcode, itemSetKey, quantityIndexKey}
	result, err := deleteItemScript.Run(ctx, r.client, keys, id).Int()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if result == 0 {
		return port.ErrNotFound
	}
	return nil
}

func (r *RedisAdapter) ListItems(ctx context.Context) ([]domain.Item, error) {
	ids, err := r.client.SMembers(ctx, itemSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items, err := r.getItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Barcode < items[j].Barcode
	})
	return items, nil
}

// ListItemsAtOrBelow returns items ordered by ascending quantity.
func (r *RedisAdapter) ListItemsAtOrBelow(ctx context.Context, threshold int) ([]domain.Item, error) {
	ids, err := r.client.ZRangeByScore(ctx, quantityIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.Itoa(threshold),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}

	return r.getItems(ctx, ids)
}

func (r *RedisAdapter) AppendLog(ctx context.Context, action domain.LogAction, itemName string) error {
	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: logStreamKey,
		MaxLen: logStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"action":    string(action),
			"item_name": itemName,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// ListLogs returns the newest entries first. Timestamps come from the
// stream ids, which Redis assigns from its own clock.
func (r *RedisAdapter) ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	messages, err := r.client.XRevRangeN(ctx, logStreamKey, "+", "-", int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	entries := make([]domain.LogEntry, 0, len(messages))
	for _, msg := range messages {
		action, _ := msg.Values["action"].(string)
		name, _ := msg.Values["item_name"].(string)
		entries = append(entries, domain.LogEntry{
			ID:        msg.ID,
			Action:    domain.LogAction(action),
			ItemName:  name,
			Timestamp: streamIDTime(msg.ID),
		})
	}
	return entries, nil
}

func (r *RedisAdapter) serverTime(ctx context.Context) (time.Time, error) {
	now, err := r.client.Time(ctx).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("server time: %w", err)
	}
	return now.UTC(), nil
}

func (r *RedisAdapter) getItem(ctx context.Context, id string) (*domain.Item, error) {
	fields, err := r.client.HGetAll(ctx, itemKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	item, err := parseItem(id, fields)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *RedisAdapter) getItems(ctx context.Context, ids []string) ([]domain.Item, error) {
	if len(ids) == 0 {
		return []domain.Item{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, itemKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	items := make([]domain.Item, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// removed between the index read and the fetch
			continue
		}
		item, err := parseItem(ids[i], fields)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func itemFields(item domain.Item) []any {
	return []any{
		"barcode", item.Barcode,
		"name", item.Name,
		"category", item.Category,
		"supplier", item.Supplier,
		"quantity", item.Quantity,
		"price", formatDecimal(item.Price),
		"cost_price", formatDecimal(item.CostPrice),
		"weekly_usage", formatFloat(item.WeeklyUsage),
		"version", item.Version,
		"created_at", formatTime(item.CreatedAt),
		"updated_at", formatTime(item.UpdatedAt),
	}
}

func patchFields(patch domain.ItemPatch) []any {
	var fields []any
	if patch.Name != nil {
		fields = append(fields, "name", *patch.Name)
	}
	if patch.Category != nil {
		fields = append(fields, "category", *patch.Category)
	}
	if patch.Supplier != nil {
		fields = append(fields, "supplier", *patch.Supplier)
	}
	if patch.Quantity != nil {
		fields = append(fields, "quantity", *patch.Quantity)
	}
	if patch.Price != nil {
		fields = append(fields, "price", patch.Price.String())
	}
	if patch.CostPrice != nil {
		fields = append(fields, "cost_price", patch.CostPrice.String())
	}
	if patch.WeeklyUsage != nil {
		fields = append(fields, "weekly_usage", formatFloat(*patch.WeeklyUsage))
	}
	return fields
}

func parseItem(id string, fields map[string]string) (domain.Item, error) {
	item := domain.Item{
		ID:       id,
		Barcode:  fields["barcode"],
		Name:     fields["name"],
		Category: fields["category"],
		Supplier: fields["supplier"],
	}

	var err error
	if item.Quantity, err = strconv.Atoi(fields["quantity"]); err != nil {
		return domain.Item{}, fmt.Errorf("item %s: quantity: %w", id, err)
	}
	if item.Version, err = strconv.Atoi(fields["version"]); err != nil {
		return domain.Item{}, fmt.Errorf("item %s: version: %w", id, err)
	}
	if item.Price, err = parseDecimal(fields["price"]); err != nil {
		return domain.Item{}, fmt.Errorf("item %s: price: %w", id, err)
	}
	if item.CostPrice, err = parseDecimal(fields["cost_price"]); err != nil {
		return domain.Item{}, fmt.Errorf("item %s: cost price: %w", id, err)
	}
	if v := fields["weekly_usage"]; v != "" {
		if item.WeeklyUsage, err = strconv.ParseFloat(v, 64); err != nil {
			return domain.Item{}, fmt.Errorf("item %s: weekly usage: %w", id, err)
		}
	}
	item.CreatedAt = parseTime(fields["created_at"])
	item.UpdatedAt = parseTime(fields["updated_at"])
	return item, nil
}

// Absent optional values are stored as empty strings.

func formatDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func parseDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func formatFloat(f float64) string {
	if f <= 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UnixMicro(), 10)
}

func parseTime(s string) time.Time {
	us, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

func streamIDTime(id string) time.Time {
	ms, _, _ := strings.Cut(id, "-")
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(n).UTC()
}
