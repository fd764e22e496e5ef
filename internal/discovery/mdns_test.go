// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests service records, entry parsing and monitor urls
package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{Port: 8927, Path: "/monitor"})
	defer mgr.Stop()

	if mgr.config.ServiceName != "duplex-monitor" {
		t.Errorf("expected default service name, got %q", mgr.config.ServiceName)
	}
	if mgr.monitors == nil {
		t.Error("monitors channel should not be nil")
	}
}

func TestNewService(t *testing.T) {
	config := Config{ServiceName: "studio", Port: 8927, Path: "/monitor"}

	svc, err := newService(config, []net.IP{net.ParseIP("192.168.1.20")})
	if err != nil {
		t.Fatalf("newService failed: %v", err)
	}

	if svc.Service != ServiceType {
		t.Errorf("expected service %s, got %s", ServiceType, svc.Service)
	}
	if svc.Port != 8927 {
		t.Errorf("expected port 8927, got %d", svc.Port)
	}
	if len(svc.TXT) != 1 || svc.TXT[0] != "path=/monitor" {
		t.Errorf("unexpected TXT record: %v", svc.TXT)
	}
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *mdns.ServiceEntry
		wantURL string
	}{
		{
			name: "with path",
			entry: &mdns.ServiceEntry{
				Name:       "studio." + ServiceType + ".local.",
				AddrV4:     net.ParseIP("10.0.0.5"),
				Port:       8927,
				InfoFields: []string{"path=/monitor"},
			},
			wantURL: "ws://10.0.0.5:8927/monitor",
		},
		{
			name: "without path",
			entry: &mdns.ServiceEntry{
				Name:   "studio." + ServiceType + ".local.",
				AddrV4: net.ParseIP("10.0.0.5"),
				Port:   9000,
			},
			wantURL: "ws://10.0.0.5:9000/",
		},
		{
			name: "no ipv4",
			entry: &mdns.ServiceEntry{
				Name: "studio." + ServiceType + ".local.",
				Port: 8927,
			},
		},
		{
			name: "other service",
			entry: &mdns.ServiceEntry{
				Name:   "speaker._airplay._tcp.local.",
				AddrV4: net.ParseIP("10.0.0.5"),
				Port:   8927,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := parseEntry(tt.entry)
			if tt.wantURL == "" {
				if info != nil {
					t.Fatalf("expected nil, got %+v", info)
				}
				return
			}
			if info == nil {
				t.Fatal("expected monitor info")
			}
			if info.Name != "studio" {
				t.Errorf("expected name studio, got %q", info.Name)
			}
			if got := info.URL(); got != tt.wantURL {
				t.Errorf("expected url %s, got %s", tt.wantURL, got)
			}
		})
	}
}

func TestFindCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Find(ctx, time.Second, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
