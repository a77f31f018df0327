package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Riboost-Studio/pos-device-bridge/internal/logging"
	"github.com/Riboost-Studio/pos-device-bridge/internal/metrics"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
	"github.com/Riboost-Studio/pos-device-bridge/internal/utils"
)

const scanWorkers = 50

// Scanner sweeps a /24 for hosts accepting raw print connections.
type Scanner struct {
	Workers int
	Timeout time.Duration
	// Probe is replaceable in tests; nil uses utils.Probe.
	Probe  func(ctx context.Context, host string, port int, timeout time.Duration) bool
	Logger *slog.Logger
}

// ScanNetwork probes subnet.1 through subnet.254 on port with the default
// scanner. An empty subnet uses the local machine's.
func ScanNetwork(ctx context.Context, subnet string, port int, logger *slog.Logger) ([]model.PortDescriptor, error) {
	s := Scanner{Logger: logger}
	return s.Scan(ctx, subnet, port)
}

func (s Scanner) Scan(ctx context.Context, subnet string, port int) ([]model.PortDescriptor, error) {
	logger := logging.OrDiscard(s.Logger).With("component", "netscan")
	if port == 0 {
		port = model.DefaultNetworkPort
	}
	if subnet == "" {
		localIP, err := utils.DetectLocalIP()
		if err != nil {
			return nil, fmt.Errorf("detect local subnet: %w", err)
		}
		subnet = localIP
	}
	prefix, err := utils.SubnetPrefix(subnet)
	if err != nil {
		return nil, err
	}

	workers := s.Workers
	if workers <= 0 {
		workers = scanWorkers
	}
	probe := s.Probe
	if probe == nil {
		probe = utils.Probe
	}

	logger.Info("scanning subnet", "subnet", prefix+".0/24", "port", port)

	ipChan := make(chan string, 256)
	foundChan := make(chan string, 256)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ip := range ipChan {
				if ctx.Err() != nil {
					continue
				}
				if probe(ctx, ip, port, s.Timeout) {
					foundChan <- ip
				}
			}
		}()
	}

	go func() {
		for i := 1; i <= 254; i++ {
			ipChan <- fmt.Sprintf("%s.%d", prefix, i)
		}
		close(ipChan)
	}()

	go func() {
		wg.Wait()
		close(foundChan)
	}()

	var found []string
	for ip := range foundChan {
		logger.Debug("printer port open", "ip", ip)
		found = append(found, ip)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return lastOctet(found[i]) < lastOctet(found[j]) })

	ports := make([]model.PortDescriptor, 0, len(found))
	for _, ip := range found {
		ports = append(ports, model.PortDescriptor{
			Port:        net.JoinHostPort(ip, strconv.Itoa(port)),
			DisplayName: "Network printer at " + ip,
			Transport:   model.TransportNetwork,
			Source:      "netscan",
		})
	}
	metrics.DiscoveredPorts.WithLabelValues("netscan").Add(float64(len(ports)))
	logger.Info("subnet scan finished", "found", len(ports))
	return ports, nil
}

func lastOctet(ip string) int {
	parsed := net.ParseIP(ip).To4()
	if parsed == nil {
		return 0
	}
	return int(parsed[3])
}
