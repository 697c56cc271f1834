// Package ssdp implements the SSDP responder (spec.md §4.4): multicast
// NOTIFY announcements and M-SEARCH replies that make the device
// discoverable on the local link.
package ssdp

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anacrolix/log"
	"golang.org/x/net/ipv4"
)

// Addr is the SSDP multicast group and port (spec.md §4.4).
const Addr = "239.255.255.250:1900"

// MaxAge is the CACHE-CONTROL max-age advertised with every announcement
// (spec.md §4.4).
const MaxAge = 1800

const multicastTTL = 2

// Advertisement is one (NT, USN) tuple from the fixed set spec.md §3
// defines for this device.
type Advertisement struct {
	NT  string
	USN string
}

// Advertisements returns the fixed advertisement set for a device with the
// given UDN (spec.md §3).
func Advertisements(udn string) []Advertisement {
	return []Advertisement{
		{"upnp:rootdevice", udn + "::upnp:rootdevice"},
		{udn, udn},
		{"urn:schemas-upnp-org:device:MediaServer:1", udn + "::urn:schemas-upnp-org:device:MediaServer:1"},
		{"urn:schemas-upnp-org:service:ContentDirectory:1", udn + "::urn:schemas-upnp-org:service:ContentDirectory:1"},
		{"urn:schemas-upnp-org:service:ConnectionManager:1", udn + "::urn:schemas-upnp-org:service:ConnectionManager:1"},
	}
}

// replyTargets maps an incoming ST value to the subset of Advertisements
// that should generate a reply (spec.md §4.4 M-SEARCH table).
func replyTargets(ads []Advertisement, udn, st string) []Advertisement {
	if st == "ssdp:all" {
		return ads
	}
	for _, ad := range ads {
		if ad.NT == st {
			return []Advertisement{ad}
		}
	}
	if st == udn {
		for _, ad := range ads {
			if ad.NT == udn {
				return []Advertisement{ad}
			}
		}
	}
	return nil
}

// Server runs the SSDP responder for one device identity across a set of
// interfaces, sharing a single UDP socket (spec.md §4.4 "Socket").
type Server struct {
	Interfaces     []net.Interface
	UDN            string
	Server         string // SERVER header value
	NotifyInterval time.Duration
	// Location returns the LOCATION header value to advertise when sending
	// from an interface with primary address ip.
	Location func(ip net.IP) string
	Logger   log.Logger

	conn   *net.UDPConn
	pconn  *ipv4.PacketConn
	group  *net.UDPAddr
	closed chan struct{}
	wg     sync.WaitGroup
}

// Init binds the shared socket and joins the multicast group on every
// interface capable of it. Interfaces that fail to join are skipped, not
// fatal, unless none succeed.
func (s *Server) Init() error {
	s.closed = make(chan struct{})
	group, err := net.ResolveUDPAddr("udp4", Addr)
	if err != nil {
		return err
	}
	s.group = group

	lc := net.ListenConfig{Control: setReuseAddrAndPort}
	pc, err := lc.ListenPacket(context.Background(), "udp4", "0.0.0.0:1900")
	if err != nil {
		return fmt.Errorf("binding ssdp socket: %w", err)
	}
	s.conn = pc.(*net.UDPConn)
	s.pconn = ipv4.NewPacketConn(s.conn)
	if err := s.pconn.SetMulticastTTL(multicastTTL); err != nil {
		s.Logger.Levelf(log.Debug, "set multicast ttl: %s", err)
	}
	// Needed so receiveLoop can learn which interface an M-SEARCH arrived
	// on, to reply with that interface's own address rather than the
	// requester's.
	if err := s.pconn.SetControlMessage(ipv4.FlagInterface, true); err != nil {
		s.Logger.Levelf(log.Debug, "enable interface control messages: %s", err)
	}

	joined := 0
	for _, iface := range s.Interfaces {
		if err := s.pconn.JoinGroup(&iface, s.group); err != nil {
			s.Logger.Levelf(log.Debug, "join group on %s: %s", iface.Name, err)
			continue
		}
		joined++
	}
	if joined == 0 {
		s.conn.Close()
		return fmt.Errorf("failed to join multicast group on any interface")
	}
	if s.NotifyInterval == 0 {
		s.NotifyInterval = MaxAge / 2 * time.Second
	}
	return nil
}

// Run sends the startup announcement burst, then runs the periodic
// re-announce timer and the M-SEARCH receive loop concurrently until Close
// is called.
func (s *Server) Run() error {
	s.announceAllAlive(3, 200*time.Millisecond)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.announceLoop()
	}()
	go func() {
		defer s.wg.Done()
		s.receiveLoop()
	}()
	s.wg.Wait()
	return nil
}

// Close sends ssdp:byebye for every advertised tuple and releases the
// socket (spec.md §4.4, §5 "Cancellation").
func (s *Server) Close() error {
	close(s.closed)
	s.announceAllByebye()
	return s.conn.Close()
}

func (s *Server) announceLoop() {
	t := time.NewTicker(s.NotifyInterval)
	defer t.Stop()
	for {
		select {
		case <-s.closed:
			return
		case <-t.C:
			s.announceAllAlive(1, 0)
		}
	}
}

func (s *Server) announceAllAlive(times int, spacing time.Duration) {
	for _, iface := range s.Interfaces {
		ip := primaryIPv4(iface)
		if ip == nil {
			continue
		}
		for i := 0; i < times; i++ {
			for _, ad := range Advertisements(s.UDN) {
				s.sendNotify(iface, ip, ad, "ssdp:alive")
			}
			if spacing > 0 && i < times-1 {
				time.Sleep(spacing)
			}
		}
	}
}

func (s *Server) announceAllByebye() {
	for _, iface := range s.Interfaces {
		ip := primaryIPv4(iface)
		if ip == nil {
			continue
		}
		for _, ad := range Advertisements(s.UDN) {
			s.sendByebye(iface, ad)
		}
	}
}

func (s *Server) sendNotify(iface net.Interface, ip net.IP, ad Advertisement, nts string) {
	lines := [][2]string{
		{"HOST", Addr},
		{"CACHE-CONTROL", fmt.Sprintf("max-age=%d", MaxAge)},
		{"LOCATION", s.Location(ip)},
		{"NT", ad.NT},
		{"NTS", nts},
		{"SERVER", s.Server},
		{"USN", ad.USN},
	}
	s.sendTo(iface, s.group, buildRequest("NOTIFY * HTTP/1.1", lines))
}

func (s *Server) sendByebye(iface net.Interface, ad Advertisement) {
	lines := [][2]string{
		{"HOST", Addr},
		{"NT", ad.NT},
		{"NTS", "ssdp:byebye"},
		{"USN", ad.USN},
	}
	s.sendTo(iface, s.group, buildRequest("NOTIFY * HTTP/1.1", lines))
}

func (s *Server) sendTo(iface net.Interface, dst *net.UDPAddr, data []byte) {
	cm := &ipv4.ControlMessage{IfIndex: iface.Index}
	if _, err := s.pconn.WriteTo(data, cm, dst); err != nil {
		s.Logger.Levelf(log.Debug, "ssdp send on %s: %s", iface.Name, err)
	}
}

func buildRequest(requestLine string, lines [][2]string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s\r\n", requestLine)
	for _, kv := range lines {
		fmt.Fprintf(&b, "%s: %s\r\n", kv[0], kv[1])
	}
	fmt.Fprint(&b, "\r\n")
	return b.Bytes()
}

func primaryIPv4(iface net.Interface) net.IP {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4
		}
	}
	return nil
}

// receiveLoop reads inbound datagrams and dispatches M-SEARCH requests.
func (s *Server) receiveLoop() {
	buf := make([]byte, 2048)
	for {
		s.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, cm, src, err := s.pconn.ReadFrom(buf)
		select {
		case <-s.closed:
			return
		default:
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			s.Logger.Levelf(log.Debug, "ssdp receive: %s", err)
			continue
		}
		udpSrc, ok := src.(*net.UDPAddr)
		if !ok {
			continue
		}
		ifIndex := -1
		if cm != nil {
			ifIndex = cm.IfIndex
		}
		msg := append([]byte(nil), buf[:n]...)
		go s.handleDatagram(msg, udpSrc, ifIndex)
	}
}

// replyIP returns the primary IPv4 address of the interface the M-SEARCH
// arrived on, the address the reply's LOCATION must advertise (spec.md §4.4
// "Location" — the server's own address, not the requester's).
func (s *Server) replyIP(ifIndex int) net.IP {
	for _, iface := range s.Interfaces {
		if iface.Index == ifIndex {
			return primaryIPv4(iface)
		}
	}
	return nil
}

func (s *Server) handleDatagram(msg []byte, src *net.UDPAddr, ifIndex int) {
	req, err := parseMSearch(msg)
	if err != nil {
		return
	}
	targets := replyTargets(Advertisements(s.UDN), s.UDN, req.ST)
	if len(targets) == 0 {
		return
	}
	ip := s.replyIP(ifIndex)
	if ip == nil {
		s.Logger.Levelf(log.Debug, "ssdp: no known interface for reply (ifIndex %d)", ifIndex)
		return
	}
	delay := time.Duration(rand.Int63n(int64(req.MX)+1)) * time.Second
	time.Sleep(delay)
	for _, ad := range targets {
		s.replyTo(src, ad, req.ST, ip)
	}
}

func (s *Server) replyTo(dst *net.UDPAddr, ad Advertisement, st string, ip net.IP) {
	lines := [][2]string{
		{"CACHE-CONTROL", fmt.Sprintf("max-age=%d", MaxAge)},
		{"DATE", time.Now().UTC().Format(http_TimeFormat)},
		{"EXT", ""},
		{"LOCATION", s.Location(ip)},
		{"SERVER", s.Server},
		{"ST", st},
		{"USN", ad.USN},
	}
	data := buildRequest("HTTP/1.1 200 OK", lines)
	if _, err := s.conn.WriteToUDP(data, dst); err != nil {
		s.Logger.Levelf(log.Debug, "ssdp reply to %s: %s", dst, err)
	}
}

const http_TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// mSearchRequest is a parsed M-SEARCH datagram.
type mSearchRequest struct {
	ST string
	MX int
}

func parseMSearch(data []byte) (mSearchRequest, error) {
	lines := strings.Split(string(data), "\r\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "M-SEARCH * HTTP/1.1") {
		return mSearchRequest{}, fmt.Errorf("not an M-SEARCH request")
	}
	headers := map[string]string{}
	for _, line := range lines[1:] {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		headers[key] = strings.TrimSpace(line[idx+1:])
	}
	man := strings.Trim(headers["MAN"], `"`)
	if man != "ssdp:discover" {
		return mSearchRequest{}, fmt.Errorf("missing ssdp:discover MAN header")
	}
	mx := 1
	if v, ok := headers["MX"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			mx = n
		}
	}
	if mx < 1 {
		mx = 1
	}
	if mx > 5 {
		mx = 5
	}
	return mSearchRequest{ST: headers["ST"], MX: mx}, nil
}
