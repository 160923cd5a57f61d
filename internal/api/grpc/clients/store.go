// Package clients provides gRPC client wrappers.
package clients

import (
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/0mlml/localstorage-window-sync/internal/api/grpc/service"
	"github.com/0mlml/localstorage-window-sync/internal/storage"
)

// storeDeadline bounds a single store call. It is well under the election
// lease so one slow call cannot silently cost a peer its authority.
const storeDeadline = 150 * time.Millisecond

// StoreClient is a storage.Store backed by a remote SharedStore service.
type StoreClient struct {
	conn   *grpc.ClientConn
	client *service.SharedStoreClient
	logger *zap.Logger
	target string
}

var _ storage.Store = (*StoreClient)(nil)

// NewStoreClient creates a client for the store service at target. The
// connection is established lazily; use Connect to wait for the service.
func NewStoreClient(target string, logger *zap.Logger, opts ...grpc.DialOption) (*StoreClient, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{Time: 300 * time.Second}),
	}, opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &StoreClient{
		conn:   conn,
		client: service.NewSharedStoreClient(conn),
		logger: logger,
		target: target,
	}, nil
}

// Connect pings the service until it answers or the attempts run out.
func (c *StoreClient) Connect(ctx context.Context, attempts uint, delay time.Duration) error {
	err := retry.Do(func() error {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		_, err := c.client.Ping(callCtx, &emptypb.Empty{}, grpc.WaitForReady(true))
		return err
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(5*time.Second),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Store ping retry", zap.String("target", c.target), zap.Uint("attempt", n), zap.Error(err))
		}),
	)
	if err != nil {
		return fmt.Errorf("store %s unreachable: %w", c.target, err)
	}
	c.logger.Info("Connected to shared store", zap.String("target", c.target))
	return nil
}

func (c *StoreClient) Close() error { return c.conn.Close() }

func (c *StoreClient) Target() string { return c.target }

func (c *StoreClient) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, storeDeadline)
	defer cancel()
	resp, err := c.client.Get(ctx, wrapperspb.String(key))
	if status.Code(err) == codes.NotFound {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return resp.GetValue(), nil
}

func (c *StoreClient) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, storeDeadline)
	defer cancel()
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		service.FieldKey:   structpb.NewStringValue(key),
		service.FieldValue: structpb.NewStringValue(value),
	}}
	if _, err := c.client.Set(ctx, req); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (c *StoreClient) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, storeDeadline)
	defer cancel()
	if _, err := c.client.Delete(ctx, wrapperspb.String(key)); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (c *StoreClient) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, storeDeadline)
	defer cancel()
	resp, err := c.client.Keys(ctx, wrapperspb.String(prefix))
	if err != nil {
		return nil, fmt.Errorf("keys %q: %w", prefix, err)
	}
	keys := make([]string, 0, len(resp.GetValues()))
	for _, v := range resp.GetValues() {
		keys = append(keys, v.GetStringValue())
	}
	return keys, nil
}
