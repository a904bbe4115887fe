package rpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/jesterKing/bfgminer/internal/proto/bitforcev1"
)

// StatsClient is a thin wrapper around a StatsServer connection: a small
// struct hiding the raw gRPC plumbing behind a few typed methods.
type StatsClient struct {
	conn   *grpc.ClientConn
	client pb.BitforceStatsServiceClient
}

// DialStatsClient connects to a running driver's stats RPC address.
func DialStatsClient(addr string) (*StatsClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial bitforce stats server: %w", err)
	}
	return &StatsClient{conn: conn, client: pb.NewBitforceStatsServiceClient(conn)}, nil
}

func (c *StatsClient) Close() error { return c.conn.Close() }

func (c *StatsClient) GetDeviceInfo(ctx context.Context) (*pb.GetDeviceInfoResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.client.GetDeviceInfo(ctx, &pb.GetDeviceInfoRequest{})
}

func (c *StatsClient) GetMetrics(ctx context.Context) (*pb.GetMetricsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.client.GetMetrics(ctx, &pb.GetMetricsRequest{})
}

func (c *StatsClient) Identify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := c.client.Identify(ctx, &pb.IdentifyRequest{})
	return err
}
