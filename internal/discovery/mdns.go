// ABOUTME: mDNS discovery for the duplex monitor
// ABOUTME: Advertises a running monitor and lets websocket outputs find it
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
)

// ServiceType is the mDNS service a monitor advertises
const ServiceType = "_duplex-monitor._tcp"

const queryTimeout = 3 * time.Second

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	// Path is the websocket path advertised in the TXT record
	Path   string
	Logger *zap.Logger
}

// Manager handles mDNS operations
type Manager struct {
	config   Config
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	monitors chan *MonitorInfo
}

// MonitorInfo describes a discovered monitor
type MonitorInfo struct {
	Name string
	Host string
	Port int
	Path string
}

// URL returns the websocket url of the monitor
func (m *MonitorInfo) URL() string {
	path := m.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + net.JoinHostPort(m.Host, strconv.Itoa(m.Port)) + path
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ServiceName == "" {
		config.ServiceName = "duplex-monitor"
	}

	return &Manager{
		config:   config,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		monitors: make(chan *MonitorInfo, 10),
	}
}

// newService builds the mDNS zone for a monitor on ips
func newService(config Config, ips []net.IP) (*mdns.MDNSService, error) {
	var txt []string
	if config.Path != "" {
		txt = append(txt, "path="+config.Path)
	}
	return mdns.NewMDNSService(config.ServiceName, ServiceType, "", "", config.Port, ips, txt)
}

// Advertise publishes the monitor until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := newService(m.config, ips)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.logger.Info("advertising monitor",
		zap.String("name", m.config.ServiceName),
		zap.Int("port", m.config.Port),
		zap.String("type", ServiceType))

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for monitors until Stop is called
func (m *Manager) Browse() {
	go m.browseLoop()
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				info := parseEntry(entry)
				if info == nil {
					continue
				}
				m.logger.Info("discovered monitor",
					zap.String("name", info.Name), zap.String("url", info.URL()))

				select {
				case m.monitors <- info:
				case <-m.ctx.Done():
				}
			}
		}()

		params := mdns.DefaultParams(ServiceType)
		params.Entries = entries
		params.Timeout = queryTimeout
		params.DisableIPv6 = true
		if err := mdns.Query(params); err != nil {
			m.logger.Debug("mdns query failed", zap.Error(err))
			select {
			case <-m.ctx.Done():
			case <-time.After(queryTimeout):
			}
		}
		close(entries)
		<-done
	}
}

// parseEntry converts a service entry, returning nil when it has no IPv4
// address or is not a monitor
func parseEntry(entry *mdns.ServiceEntry) *MonitorInfo {
	if entry == nil || entry.AddrV4 == nil || !strings.Contains(entry.Name, ServiceType) {
		return nil
	}

	info := &MonitorInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Path: "/",
	}
	for _, field := range entry.InfoFields {
		if v, ok := strings.CutPrefix(field, "path="); ok {
			info.Path = v
		}
	}
	return info
}

// Monitors returns the channel of discovered monitors
func (m *Manager) Monitors() <-chan *MonitorInfo {
	return m.monitors
}

// Stop ends advertisement and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// Find browses until the first monitor answers, ctx is done or timeout passes
func Find(ctx context.Context, timeout time.Duration, logger *zap.Logger) (*MonitorInfo, error) {
	m := NewManager(Config{Logger: logger})
	defer m.Stop()
	m.Browse()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case info := <-m.Monitors():
		return info, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no monitor found: %w", ctx.Err())
	}
}

// getLocalIPs returns the IPv4 addresses of interfaces that are up
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
