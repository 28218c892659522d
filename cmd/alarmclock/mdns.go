package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/enbility/zeroconf/v3"
	"github.com/google/uuid"
)

// mdnsAdvertiser publishes the HTTP/WS endpoint as _alarmclock._tcp so
// clients on the LAN can find the clock without configuration.
type mdnsAdvertiser struct {
	server *zeroconf.Server
	logger *slog.Logger
}

// mdnsTXT builds the TXT record for the advertisement.
func mdnsTXT(wsPath, instanceID string) []string {
	return []string{
		"version=" + version,
		"ws=" + wsPath,
		"id=" + instanceID,
	}
}

func mdnsInstanceName(cfg MDNSConfig) string {
	if cfg.Instance != "" {
		return cfg.Instance
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "alarmclock"
	}
	return "alarmclock-" + host
}

// startMDNS registers the service. The caller must call Stop on shutdown.
func startMDNS(cfg MDNSConfig, httpPort int, wsPath string, logger *slog.Logger) (*mdnsAdvertiser, error) {
	var ifaces []net.Interface
	if cfg.Interface != "" {
		iface, err := net.InterfaceByName(cfg.Interface)
		if err != nil {
			return nil, fmt.Errorf("mdns interface %q: %w", cfg.Interface, err)
		}
		ifaces = []net.Interface{*iface}
	}

	instance := mdnsInstanceName(cfg)
	server, err := zeroconf.Register(
		instance,
		mdnsServiceType,
		mdnsDomain,
		httpPort,
		mdnsTXT(wsPath, uuid.NewString()),
		ifaces,
		zeroconf.TTL(120),
	)
	if err != nil {
		return nil, fmt.Errorf("register mdns service: %w", err)
	}

	logger.Info("mdns advertising", "instance", instance, "service", mdnsServiceType, "port", httpPort)
	return &mdnsAdvertiser{server: server, logger: logger}, nil
}

func (a *mdnsAdvertiser) Stop() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	a.logger.Debug("mdns advertisement withdrawn")
}
