// Package rpc exposes a Device's stats surface over gRPC for external
// consumption.
package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jesterKing/bfgminer/internal/bitforce/control"
	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	pb "github.com/jesterKing/bfgminer/internal/proto/bitforcev1"
)

// StatsServer implements pb.BitforceStatsServiceServer against one Device.
type StatsServer struct {
	pb.UnimplementedBitforceStatsServiceServer

	dev       *device.Device
	startTime time.Time
}

// NewStatsServer wraps an already-probed Device.
func NewStatsServer(dev *device.Device) *StatsServer {
	return &StatsServer{dev: dev, startTime: time.Now()}
}

func (s *StatsServer) GetDeviceInfo(ctx context.Context, req *pb.GetDeviceInfoRequest) (*pb.GetDeviceInfoResponse, error) {
	if s.dev == nil {
		return nil, status.Error(codes.FailedPrecondition, "no device attached")
	}
	return &pb.GetDeviceInfoResponse{
		Path:           s.dev.Path,
		Style:          s.dev.Style.String(),
		Name:           s.dev.Name,
		Manufacturer:   s.dev.Manufacturer,
		ProcessorCount: int32(len(s.dev.Processors)),
	}, nil
}

func (s *StatsServer) GetMetrics(ctx context.Context, req *pb.GetMetricsRequest) (*pb.GetMetricsResponse, error) {
	if s.dev == nil {
		return nil, status.Error(codes.FailedPrecondition, "no device attached")
	}
	snap := s.dev.Stats.Snapshot()
	return &pb.GetMetricsResponse{
		SleepMs:     snap.SleepMS,
		AvgWaitMs:   snap.AvgWaitMS,
		TempC:       snap.TempC,
		VoltsMilli:  snap.VoltsMilli,
		HwErrors:    snap.HWErrors,
		QueuedCount: snap.QueuedCount,
	}, nil
}

func (s *StatsServer) Identify(ctx context.Context, req *pb.IdentifyRequest) (*pb.IdentifyResponse, error) {
	if s.dev == nil {
		return nil, status.Error(codes.FailedPrecondition, "no device attached")
	}
	if err := control.Identify(s.dev); err != nil {
		return nil, status.Errorf(codes.Internal, "identify failed: %v", err)
	}
	return &pb.IdentifyResponse{Ok: true}, nil
}
