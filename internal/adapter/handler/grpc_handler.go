package handler

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/stockroom/internal/core/service"
)

const inventoryServiceName = "inventory.v1.Inventory"

type Empty struct{}

type ListItemsRequest struct {
	Search string `json:"search,omitempty"`
}

// InventoryServer is the server API of inventory.v1.Inventory.
type InventoryServer interface {
	AddItem(context.Context, *ItemRequest) (*AddItemResponse, error)
	UpdateItem(context.Context, *UpdateItemRequest) (*ItemResponse, error)
	DeleteItem(context.Context, *BarcodeRequest) (*DeleteItemResponse, error)
	ListItems(context.Context, *ListItemsRequest) (*ItemsResponse, error)
	ListLowStock(context.Context, *LowStockRequest) (*ItemsResponse, error)
	GetAnalytics(context.Context, *Empty) (*AnalyticsResponse, error)
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: inventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddItem", Handler: unaryHandler("AddItem", InventoryServer.AddItem)},
		{MethodName: "UpdateItem", Handler: unaryHandler("UpdateItem", InventoryServer.UpdateItem)},
		{MethodName: "DeleteItem", Handler: unaryHandler("DeleteItem", InventoryServer.DeleteItem)},
		{MethodName: "ListItems", Handler: unaryHandler("ListItems", InventoryServer.ListItems)},
		{MethodName: "ListLowStock", Handler: unaryHandler("ListLowStock", InventoryServer.ListLowStock)},
		{MethodName: "GetAnalytics", Handler: unaryHandler("GetAnalytics", InventoryServer.GetAnalytics)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/inventory.proto",
}

func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

func unaryHandler[Req, Resp any](method string, call func(InventoryServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + inventoryServiceName + "/" + method

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InventoryServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InventoryServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var _ InventoryServer = (*GRPCHandler)(nil)

type GRPCHandler struct {
	inventory *service.InventoryService
	reports   *service.ReportService
	log       logrus.FieldLogger
}

func NewGRPCHandler(inventory *service.InventoryService, reports *service.ReportService, log logrus.FieldLogger) *GRPCHandler {
	return &GRPCHandler{inventory: inventory, reports: reports, log: log}
}

func (h *GRPCHandler) AddItem(ctx context.Context, req *ItemRequest) (*AddItemResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := h.inventory.AddOrMerge(ctx, req.toDomain())
	if err != nil {
		return nil, h.toStatus(err)
	}

	return &AddItemResponse{Item: newItemResponse(result.Item.WithDefaults()), Created: result.Created}, nil
}

func (h *GRPCHandler) UpdateItem(ctx context.Context, req *UpdateItemRequest) (*ItemResponse, error) {
	if req.Barcode == "" {
		return nil, status.Error(codes.InvalidArgument, "barcode is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	patch := req.toPatch()
	if patch.IsEmpty() {
		return nil, status.Error(codes.InvalidArgument, "no fields to update")
	}

	if err := h.inventory.UpdateByBarcode(ctx, req.Barcode, patch); err != nil {
		return nil, h.toStatus(err)
	}

	item, err := h.inventory.GetByBarcode(ctx, req.Barcode)
	if err != nil {
		return nil, h.toStatus(err)
	}
	resp := newItemResponse(item)
	return &resp, nil
}

func (h *GRPCHandler) DeleteItem(ctx context.Context, req *BarcodeRequest) (*DeleteItemResponse, error) {
	deleted, err := h.inventory.DeleteByBarcode(ctx, req.Barcode)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &DeleteItemResponse{Deleted: deleted}, nil
}

func (h *GRPCHandler) ListItems(ctx context.Context, req *ListItemsRequest) (*ItemsResponse, error) {
	if req.Search != "" {
		return &ItemsResponse{Items: newItemResponses(h.inventory.Search(ctx, req.Search))}, nil
	}
	return &ItemsResponse{Items: newItemResponses(h.inventory.ListAll(ctx))}, nil
}

func (h *GRPCHandler) ListLowStock(ctx context.Context, req *LowStockRequest) (*ItemsResponse, error) {
	threshold := -1
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	return &ItemsResponse{Items: newItemResponses(h.inventory.ListLowStock(ctx, threshold))}, nil
}

func (h *GRPCHandler) GetAnalytics(ctx context.Context, _ *Empty) (*AnalyticsResponse, error) {
	resp := newAnalyticsResponse(h.reports.Analytics(ctx))
	return &resp, nil
}

func (h *GRPCHandler) toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidItem):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "item not found")
	case errors.Is(err, service.ErrConflict):
		return status.Error(codes.Aborted, "item is being modified concurrently")
	case errors.Is(err, service.ErrStorage):
		h.log.WithError(err).Warn("grpc call hit storage error")
		return status.Error(codes.Unavailable, "storage unavailable")
	default:
		h.log.WithError(err).Error("grpc call failed")
		return status.Error(codes.Internal, "internal error")
	}
}

// InventoryClient calls inventory.v1.Inventory over the JSON codec.
type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

func (c *InventoryClient) AddItem(ctx context.Context, req *ItemRequest, opts ...grpc.CallOption) (*AddItemResponse, error) {
	return invoke[AddItemResponse](ctx, c.cc, "AddItem", req, opts)
}

func (c *InventoryClient) UpdateItem(ctx context.Context, req *UpdateItemRequest, opts ...grpc.CallOption) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c.cc, "UpdateItem", req, opts)
}

func (c *InventoryClient) DeleteItem(ctx context.Context, req *BarcodeRequest, opts ...grpc.CallOption) (*DeleteItemResponse, error) {
	return invoke[DeleteItemResponse](ctx, c.cc, "DeleteItem", req, opts)
}

func (c *InventoryClient) ListItems(ctx context.Context, req *ListItemsRequest, opts ...grpc.CallOption) (*ItemsResponse, error) {
	return invoke[ItemsResponse](ctx, c.cc, "ListItems", req, opts)
}

func (c *InventoryClient) ListLowStock(ctx context.Context, req *LowStockRequest, opts ...grpc.CallOption) (*ItemsResponse, error) {
	return invoke[ItemsResponse](ctx, c.cc, "ListLowStock", req, opts)
}

func (c *InventoryClient) GetAnalytics(ctx context.Context, opts ...grpc.CallOption) (*AnalyticsResponse, error) {
	return invoke[AnalyticsResponse](ctx, c.cc, "GetAnalytics", &Empty{}, opts)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+inventoryServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
