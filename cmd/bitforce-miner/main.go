package main

import (
	"context"
	"crypto/rand"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"google.golang.org/grpc"

	"github.com/jesterKing/bfgminer/internal/bitforce/control"
	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	"github.com/jesterKing/bfgminer/internal/bitforce/minerloop"
	"github.com/jesterKing/bfgminer/internal/bitforce/probe"
	"github.com/jesterKing/bfgminer/internal/bitforce/transport"
	"github.com/jesterKing/bfgminer/internal/bitforce/work"
	"github.com/jesterKing/bfgminer/internal/config"
	"github.com/jesterKing/bfgminer/internal/host"
	pb "github.com/jesterKing/bfgminer/internal/proto/bitforcev1"
	"github.com/jesterKing/bfgminer/internal/rpc"
)

var (
	devicePath = flag.String("device", "", "serial device path, e.g. /dev/ttyUSB0")
	pciBars    = flag.String("pci", "", "comma-separated BAR0,BAR1,BAR2 resource paths for PCI transport")
	nonceRange = flag.Bool("noncerange", false, "allow nonce-range mode on FPGA boards")
	fanMode    = flag.Int("fanmode", -1, "fan mode 0-5 or 9, -1 leaves firmware default")
	statsAddr  = flag.String("stats-addr", "", "bind address for the stats gRPC surface")
)

func init() {
	cfg, err := config.LoadDriverConfig()
	if err != nil {
		return
	}
	if *devicePath == "" {
		*devicePath = cfg.DevicePath
	}
	if !*nonceRange {
		*nonceRange = cfg.NonceRange
	}
	if *fanMode == -1 {
		*fanMode = cfg.FanMode
	}
	if *statsAddr == "" {
		*statsAddr = cfg.StatsAddr
	}
}

// demoSource is a minimal, self-exercising host.WorkSource used when this
// CLI is run standalone (no real mining pool attached): it hands out
// randomly-seeded jobs and logs any nonce the device reports.
type demoSource struct{}

func (demoSource) NextWork(procIndex int) (*work.Work, bool) {
	w := &work.Work{NonceCount: 0xffffffff}
	rand.Read(w.Midstate[:])
	rand.Read(w.Tail[:])
	return w, true
}

func (demoSource) SubmitNonce(procIndex int, w *work.Work, nonce uint32) {
	log.Printf("bitforce: proc %d found nonce %08x for job %s", procIndex, nonce, w.MidstateHex()[:8])
}

func openTransport() (transport.Transport, transport.Kind, string) {
	if *pciBars != "" {
		bars := strings.Split(*pciBars, ",")
		if len(bars) != 3 {
			log.Fatal("bitforce: -pci takes three comma-separated paths: BAR0,BAR1,BAR2")
		}
		return transport.NewPCITransport(bars[0], bars[1], bars[2]), transport.KindPCI, *pciBars
	}
	return transport.NewSerialTransport(*devicePath), transport.KindSerial, *devicePath
}

func main() {
	flag.Parse()

	if *devicePath == "" && *pciBars == "" {
		log.Fatal("bitforce: must specify -device or -pci")
	}

	t, kind, path := openTransport()

	dev, err := probe.Probe(path, kind, t)
	if err != nil {
		log.Fatalf("bitforce: probe failed: %v", err)
	}
	log.Printf("bitforce: probed %s: style=%s name=%q processors=%d", path, dev.Style, dev.Name, len(dev.Processors))

	if *fanMode >= 0 {
		maybeSetFanMode(dev, *fanMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("bitforce: shutting down")
		cancel()
	}()

	source := demoSource{}
	var loops []*minerloop.Loop
	for _, proc := range dev.Processors {
		if !proc.IsBoardHandler {
			continue
		}
		l := minerloop.New(dev, proc, source, *nonceRange)
		loops = append(loops, l)
		go l.Run(ctx)
	}

	if *statsAddr != "" {
		go serveStats(ctx, dev)
	}

	<-ctx.Done()
	dev.Close()
}

func maybeSetFanMode(dev *device.Device, mode int) {
	if !control.ProbeFanspeedSupport(dev) {
		return
	}
	if err := control.SetFanMode(dev, mode); err != nil {
		log.Printf("bitforce: set fan mode failed: %v", err)
	}
}

func serveStats(ctx context.Context, dev *device.Device) {
	lis, err := net.Listen("tcp", *statsAddr)
	if err != nil {
		log.Printf("bitforce: stats listen failed: %v", err)
		return
	}
	srv := grpc.NewServer()
	pb.RegisterBitforceStatsServiceServer(srv, rpc.NewStatsServer(dev))
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()
	log.Printf("bitforce: stats RPC listening on %s", *statsAddr)
	if err := srv.Serve(lis); err != nil {
		log.Printf("bitforce: stats serve ended: %v", err)
	}
}

var _ host.WorkSource = demoSource{}
