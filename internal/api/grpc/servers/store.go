package servers

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/0mlml/localstorage-window-sync/internal/api/grpc/service"
	"github.com/0mlml/localstorage-window-sync/internal/storage"
)

// StoreServiceServer exposes a storage.Store to other processes over gRPC.
// It plays the role the browser's origin-wide storage plays for tabs.
type StoreServiceServer struct {
	store  storage.Store
	logger *zap.Logger
}

var _ service.SharedStoreServer = (*StoreServiceServer)(nil)

// NewStoreServiceServer creates a StoreServiceServer.
func NewStoreServiceServer(store storage.Store, logger *zap.Logger) *StoreServiceServer {
	return &StoreServiceServer{store: store, logger: logger}
}

// Register attaches the service to an existing gRPC server.
func (s *StoreServiceServer) Register(srv *grpc.Server) {
	service.RegisterSharedStoreServer(srv, s)
}

// Serve starts the gRPC listener on addr.
func (s *StoreServiceServer) Serve(addr string) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return s.ServeListener(lis), nil
}

// ServeListener serves on an already-open listener.
func (s *StoreServiceServer) ServeListener(lis net.Listener) *grpc.Server {
	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(16*1024*1024),
		grpc.KeepaliveParams(keepalive.ServerParameters{Time: 300 * time.Second}),
	)
	s.Register(srv)
	go func() {
		if err := srv.Serve(lis); err != nil {
			s.logger.Error("SharedStore gRPC server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("SharedStore gRPC listening", zap.String("addr", lis.Addr().String()))
	return srv
}

func (s *StoreServiceServer) Get(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	v, err := s.store.Get(ctx, req.GetValue())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "key %q not found", req.GetValue())
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.String(v), nil
}

func (s *StoreServiceServer) Set(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	fields := req.GetFields()
	key := fields[service.FieldKey].GetStringValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "missing key")
	}
	if err := s.store.Set(ctx, key, fields[service.FieldValue].GetStringValue()); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &emptypb.Empty{}, nil
}

func (s *StoreServiceServer) Delete(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.store.Delete(ctx, req.GetValue()); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	s.logger.Debug("delete", zap.String("key", req.GetValue()))
	return &emptypb.Empty{}, nil
}

func (s *StoreServiceServer) Keys(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	keys, err := s.store.Keys(ctx, req.GetValue())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	values := make([]*structpb.Value, len(keys))
	for i, k := range keys {
		values[i] = structpb.NewStringValue(k)
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *StoreServiceServer) Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}
