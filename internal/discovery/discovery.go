// Package discovery scans a subnet for other running miners that expose
// the stats gRPC surface (internal/rpc), so a fleet operator can find
// every board on the network without per-host configuration.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/jesterKing/bfgminer/internal/proto/bitforcev1"
)

// Result is one scanned host's outcome.
type Result struct {
	Address        string
	IPAddress      string
	Port           int
	Style          string
	Name           string
	ProcessorCount int
	LatencyMs      int64
	Responding     bool
	Error          string
}

// Config controls a subnet scan.
type Config struct {
	Subnet          string        // CIDR, e.g. "192.168.1.0/24"; "" autodetects
	Port            int           // stats gRPC port, default 8899
	Timeout         time.Duration // per-host connect+call timeout
	ConcurrentScans int
	SkipLocalhost   bool
}

// NewConfig returns scan defaults matching this driver's stats server port.
func NewConfig() Config {
	return Config{
		Port:            8899,
		Timeout:         2 * time.Second,
		ConcurrentScans: 20,
	}
}

// Scan probes every host in config.Subnet (or the local /24 if unset) for
// a responding stats service.
func Scan(config Config) ([]Result, error) {
	if config.Subnet == "" {
		subnet, err := localSubnet()
		if err != nil {
			return nil, fmt.Errorf("discovery: determine local subnet: %w", err)
		}
		config.Subnet = subnet
	}

	ip, ipnet, err := net.ParseCIDR(config.Subnet)
	if err != nil {
		return nil, fmt.Errorf("discovery: invalid subnet %s: %w", config.Subnet, err)
	}

	var ips []string
	for walk := ip.Mask(ipnet.Mask); ipnet.Contains(walk); incrementIP(walk) {
		ips = append(ips, walk.String())
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, config.ConcurrentScans)
	resultCh := make(chan Result, len(ips)+1)

	if !config.SkipLocalhost {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resultCh <- probe(fmt.Sprintf("127.0.0.1:%d", config.Port), "127.0.0.1", config.Port, config.Timeout)
		}()
	}

	for _, ipStr := range ips {
		if isLocalIP(ipStr) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(ip string) {
			defer wg.Done()
			defer func() { <-sem }()
			address := fmt.Sprintf("%s:%d", ip, config.Port)
			resultCh <- probe(address, ip, config.Port, config.Timeout)
		}(ipStr)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var results []Result
	for r := range resultCh {
		results = append(results, r)
	}
	return results, nil
}

func probe(address, ipAddress string, port int, timeout time.Duration) Result {
	start := time.Now()
	result := Result{Address: address, IPAddress: ipAddress, Port: port}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := grpc.DialContext(ctx, address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		result.Error = fmt.Sprintf("connect failed: %v", err)
		result.LatencyMs = time.Since(start).Milliseconds()
		return result
	}
	defer conn.Close()

	client := pb.NewBitforceStatsServiceClient(conn)
	infoCtx, infoCancel := context.WithTimeout(context.Background(), timeout/2)
	defer infoCancel()

	info, err := client.GetDeviceInfo(infoCtx, &pb.GetDeviceInfoRequest{})
	if err != nil {
		result.Error = fmt.Sprintf("GetDeviceInfo failed: %v", err)
		result.LatencyMs = time.Since(start).Milliseconds()
		return result
	}

	result.Responding = true
	result.Style = info.GetStyle()
	result.Name = info.GetName()
	result.ProcessorCount = int(info.GetProcessorCount())
	result.LatencyMs = time.Since(start).Milliseconds()
	return result
}

func localSubnet() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil {
				continue
			}
			parts := strings.Split(ip.String(), ".")
			if len(parts) == 4 {
				return fmt.Sprintf("%s.%s.%s.0/24", parts[0], parts[1], parts[2]), nil
			}
		}
	}
	return "", fmt.Errorf("discovery: no suitable network interface found")
}

func incrementIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}

func isLocalIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	interfaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range interfaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ifaceIP net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ifaceIP = v.IP
			case *net.IPAddr:
				ifaceIP = v.IP
			}
			if ifaceIP != nil && ifaceIP.Equal(ip) {
				return true
			}
		}
	}
	return false
}

// Best returns the discovered result with the most processors (ties
// broken by lower latency), or nil if nothing responded.
func Best(results []Result) *Result {
	var best *Result
	for i := range results {
		r := &results[i]
		if !r.Responding {
			continue
		}
		if best == nil || r.ProcessorCount > best.ProcessorCount ||
			(r.ProcessorCount == best.ProcessorCount && r.LatencyMs < best.LatencyMs) {
			best = r
		}
	}
	return best
}
