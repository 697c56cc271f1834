// Package server implements the HTTP Server component (spec.md §4.3): the
// device/service descriptions, SOAP control surface, and ranged media
// streaming, plus the process lifecycle that also drives the SSDP
// responder (spec.md §6's Start/Stop contract).
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"zerodlna/internal/config"
	"zerodlna/internal/connectionmanager"
	"zerodlna/internal/contentdirectory"
	"zerodlna/internal/deviceid"
	"zerodlna/internal/index"
	"zerodlna/internal/ssdp"

	"github.com/anacrolix/log"
)

const (
	productName  = "ZeroConfigDLNA/1"
	serverHeader = productName + " UPnP/1.0 DLNA/1.50"

	// shutdownGrace is the default grace period in-flight streams get
	// before the listener is forced closed (spec.md §5 "Cancellation").
	shutdownGrace = 2 * time.Second
)

// upnpService is the contract a SOAP-speaking service presents to the
// control dispatcher (spec.md §9's SOAPACTION-keyed secondary table).
type upnpService interface {
	Handle(action string, argsXML []byte, r *http.Request) ([][2]string, error)
}

// Server is the core's process lifecycle: binds one TCP listener for HTTP
// and one shared UDP socket for SSDP, and tears both down together.
type Server struct {
	cfg      config.Config
	identity deviceid.Identity
	logger   log.Logger
	idx      *index.Index

	contentDirectory *contentdirectory.Service
	connectionManager *connectionmanager.Service

	listener   net.Listener
	httpServer *http.Server
	ssdpServer *ssdp.Server

	bindIP      net.IP
	baseURL     string
	rootDescXML []byte
}

// New builds a Server from a normalized configuration. It does not bind any
// socket; call Start for that.
func New(cfg config.Config, logger log.Logger) (*Server, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	identity := deviceid.New(cfg.Directory, cfg.FriendlyName, deviceid.DefaultUDNStatePath(), logger.WithNames("deviceid"))
	idx := index.New(cfg.Directory, logger.WithNames("index"), index.WithProbing(true))

	s := &Server{
		cfg:      cfg,
		identity: identity,
		logger:   logger,
		idx:      idx,
	}
	s.contentDirectory = &contentdirectory.Service{Index: idx, BaseURL: func() string { return s.baseURL }}
	s.connectionManager = &connectionmanager.Service{}
	return s, nil
}

// Start binds the HTTP listener and the SSDP socket, and begins serving.
// It does not block; the HTTP and SSDP accept loops run in goroutines.
func (s *Server) Start(ctx context.Context) error {
	ip := s.cfg.BindIP
	if ip == nil {
		var err error
		ip, err = primaryIPv4()
		if err != nil {
			return fmt.Errorf("detecting bind address: %w", err)
		}
	}
	s.bindIP = ip

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return &config.ConfigError{Code: config.ExitPortInUse, Err: fmt.Errorf("binding http listener: %w", err)}
	}
	s.listener = ln
	port := ln.Addr().(*net.TCPAddr).Port

	s.baseURL = deviceid.BaseURL(s.bindIP, port)
	s.rootDescXML = buildRootDesc(s.identity)

	mux := s.newMux()
	s.httpServer = &http.Server{
		Handler: withServerHeaders(mux),
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Levelf(log.Error, "http serve: %s", err)
		}
	}()

	ifaces, err := multicastCapableInterfaces()
	if err != nil {
		s.logger.Levelf(log.Warning, "listing interfaces for ssdp: %s", err)
	}
	s.ssdpServer = &ssdp.Server{
		Interfaces: ifaces,
		UDN:        s.identity.UDN,
		Server:     serverHeader,
		Location: func(ip net.IP) string {
			return deviceid.BaseURL(ip, port) + "description.xml"
		},
		Logger: s.logger.WithNames("ssdp"),
	}
	if err := s.ssdpServer.Init(); err != nil {
		s.logger.Levelf(log.Error, "ssdp init: %s", err)
		return fmt.Errorf("starting ssdp responder: %w", err)
	}
	go func() {
		if err := s.ssdpServer.Run(); err != nil {
			s.logger.Levelf(log.Error, "ssdp run: %s", err)
		}
	}()

	s.logger.Levelf(log.Info, "serving %q as %q at %sdescription.xml", s.cfg.Directory, s.identity.FriendlyName, s.baseURL)
	return nil
}

// Stop performs an orderly shutdown: stop accepting HTTP connections,
// give in-flight streams up to ctx's deadline (or shutdownGrace) to
// finish, send ssdp:byebye, then release both sockets (spec.md §5).
func (s *Server) Stop(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownGrace)
		defer cancel()
	}
	var httpErr error
	if s.httpServer != nil {
		httpErr = s.httpServer.Shutdown(ctx)
	}
	var ssdpErr error
	if s.ssdpServer != nil {
		ssdpErr = s.ssdpServer.Close()
	}
	if httpErr != nil {
		return httpErr
	}
	return ssdpErr
}

func withServerHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Ext", "")
		w.Header().Set("Server", serverHeader)
		h.ServeHTTP(w, r)
	})
}

// primaryIPv4 picks the first non-loopback, up interface's IPv4 address,
// the same fallback the SSDP responder uses per interface, generalized to
// a single pick for the advertised LOCATION base (spec.md §4.4 "Bind IP
// discovery").
func primaryIPv4() (net.IP, error) {
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
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4, nil
			}
		}
	}
	return nil, fmt.Errorf("no usable IPv4 interface found")
}

func multicastCapableInterfaces() ([]net.Interface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	const want = net.FlagUp | net.FlagMulticast
	var ret []net.Interface
	for _, iface := range all {
		if iface.Flags&want == want {
			ret = append(ret, iface)
		}
	}
	return ret, nil
}
