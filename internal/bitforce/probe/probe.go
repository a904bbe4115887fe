// Package probe implements device enumeration: opening a candidate
// transport, confirming it speaks the BitForce protocol, and parsing its
// configuration dump into a negotiated Style, chip layout, and chain
// presence mask.
package probe

import (
	"log"
	"strconv"
	"strings"

	"github.com/jesterKing/bfgminer/internal/bitforce/device"
	"github.com/jesterKing/bfgminer/internal/bitforce/errs"
	"github.com/jesterKing/bfgminer/internal/bitforce/transport"
)

var (
	cmdIdentify = [3]byte{'Z', 'G', 'X'}
	cmdConfig   = [3]byte{'Z', 'C', 'X'}
)

// chipPlan is the fixed ladder of processor counts the driver will plan
// for, given an observed max chip index.
var chipPlan = []int{1, 2, 4, 8, 16, 32}

// planProcessorCount returns the smallest entry in chipPlan strictly
// greater than maxChipIndex (0 chips observed -> 1 processor).
func planProcessorCount(maxChipIndex int) int {
	for _, n := range chipPlan {
		if n > maxChipIndex {
			return n
		}
	}
	return chipPlan[len(chipPlan)-1]
}

// boardConfig is the parsed result of one ZCX exchange for one board on
// the chain.
type boardConfig struct {
	style        device.Style
	devicesInChain int
	chainMask    uint32
	parallel     int
	manufacturer string
	maxChipIndex int
}

func parseConfig(lines []string) boardConfig {
	var cfg boardConfig
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "PROCESSOR "):
			if idx, err := strconv.Atoi(strings.TrimSpace(line[len("PROCESSOR "):])); err == nil && idx > cfg.maxChipIndex {
				cfg.maxChipIndex = idx
			}
		case strings.HasPrefix(upper, "DEVICES IN CHAIN:"):
			v := strings.TrimSpace(line[len("DEVICES IN CHAIN:"):])
			if n, err := strconv.Atoi(v); err == nil {
				cfg.devicesInChain = n
			}
		case strings.HasPrefix(upper, "CHAIN PRESENCE MASK:"):
			v := strings.TrimSpace(line[len("CHAIN PRESENCE MASK:"):])
			v = strings.TrimPrefix(strings.ToLower(v), "0x")
			if mask, err := strconv.ParseUint(v, 16, 32); err == nil {
				cfg.chainMask = uint32(mask)
			}
		case strings.HasPrefix(upper, "DEVICE:") && strings.Contains(upper, "SC"):
			if cfg.style == device.StyleFPGA {
				cfg.style = device.StyleA65
			}
		case strings.HasPrefix(upper, "CHIP PARALLELIZATION: YES"):
			cfg.parallel = parseAtSuffix(line)
			if cfg.style == device.StyleFPGA {
				cfg.style = device.StyleA65
			}
		case strings.HasPrefix(upper, "ASIC CHANNELS:"):
			v := strings.TrimSpace(line[len("ASIC CHANNELS:"):])
			if n, err := strconv.Atoi(v); err == nil {
				cfg.parallel = n
				cfg.maxChipIndex = n - 1
			}
			cfg.style = device.StyleA28
		case strings.HasPrefix(upper, "MANUFACTURER:"):
			cfg.manufacturer = strings.TrimSpace(line[len("MANUFACTURER:"):])
		}
	}
	return cfg
}

// parseAtSuffix extracts the integer following "@" in a line such as
// "CHIP PARALLELIZATION: YES @4".
func parseAtSuffix(line string) int {
	i := strings.LastIndex(line, "@")
	if i < 0 {
		return 0
	}
	v := strings.TrimSpace(line[i+1:])
	n, _ := strconv.Atoi(v)
	return n
}

const maxConfigLines = 64
const configRetries = 4

// Probe opens t, confirms identity, and parses the full chain's
// configuration into a Device with its Processors populated. kind
// labels the transport for logging/bookkeeping only.
func Probe(path string, kind transport.Kind, t transport.Transport) (*device.Device, error) {
	if err := t.Open(); err != nil {
		return nil, errs.Wrap("probe", errs.KindTransportClosed, err)
	}
	dev := device.NewDevice(path, kind, t)
	dev.IsOpen = true

	idLine, err := dev.Framer.CmdText(cmdIdentify)
	if err != nil {
		dev.Close()
		return nil, errs.Wrap("probe.identify", errs.KindUnexpectedResponse, err)
	}
	if !strings.Contains(strings.ToUpper(idLine), "SHA256") {
		dev.Close()
		return nil, errs.New("probe.identify", errs.KindUnexpectedResponse)
	}
	dev.Name = extractIDMarker(idLine)

	var cfgLines []string
	var cfgErr error
	for attempt := 0; attempt < configRetries; attempt++ {
		cfgLines, cfgErr = dev.Framer.ReadLinesUntilAfterCmd(cmdConfig, maxConfigLines, "OK")
		if cfgErr == nil {
			break
		}
	}
	if cfgErr != nil {
		dev.Close()
		return nil, errs.Wrap("probe.config", errs.KindUnexpectedResponse, cfgErr)
	}

	cfg := parseConfig(cfgLines)
	if cfg.style == device.StyleFPGA && (cfg.maxChipIndex > 0 || cfg.parallel > 1) {
		cfg.style = device.StyleA65
		log.Printf("bitforce: probe: multi-processor board reported FPGA style, forcing 65nm")
	}
	dev.Style = cfg.style
	dev.ChainPresenceMask = cfg.chainMask
	dev.Manufacturer = cfg.manufacturer

	procCount := planProcessorCount(cfg.maxChipIndex)
	dev.ParallelProtocol = cfg.parallel > 0
	addBoard(dev, 0, cfg.parallel, procCount)

	for board := 1; board < cfg.devicesInChain; board++ {
		blines, err := dev.WithXLink(board).ReadLinesUntilAfterCmd(cmdConfig, maxConfigLines, "OK")
		if err != nil {
			log.Printf("bitforce: probe: board %d on chain did not respond to ZCX: %v", board, err)
			continue
		}
		bcfg := parseConfig(blines)
		bcount := planProcessorCount(bcfg.maxChipIndex)
		addBoard(dev, board, bcfg.parallel, bcount)
	}

	return dev, nil
}

func addBoard(dev *device.Device, xlinkID, parallel, procCount int) {
	for i := 0; i < procCount; i++ {
		dev.Processors = append(dev.Processors, &device.Processor{
			Device:         dev,
			Index:          i,
			XLinkID:        xlinkID,
			Parallel:       abs(parallel),
			IsBoardHandler: i == 0 && xlinkID == 0,
		})
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// extractIDMarker pulls the NAME out of a ">>>ID: NAME>>>" substring; if
// the marker is absent the raw line is returned trimmed.
func extractIDMarker(line string) string {
	const open, close = ">>>ID:", ">>>"
	i := strings.Index(line, open)
	if i < 0 {
		return strings.TrimSpace(line)
	}
	rest := line[i+len(open):]
	j := strings.Index(rest, close)
	if j < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:j])
}
