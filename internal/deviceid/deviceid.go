// Package deviceid builds the immutable device identity described in
// spec.md §3: a stable UDN, a friendly name, and the advertised base URL.
package deviceid

import (
	"crypto/md5"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"zerodlna/internal/upnp"

	"github.com/anacrolix/log"
)

const (
	Manufacturer = "ZeroConfigDLNA contributors"
	ModelName    = "ZeroConfigDLNA"
	ModelVersion = "1"
)

// Identity is the process-lifetime-immutable device identity (spec.md §3).
type Identity struct {
	UDN          string
	FriendlyName string
}

// New derives a device identity for the given served directory. udnStatePath,
// if non-empty, is a file used to persist the UDN across restarts; failure
// to read or write it is non-fatal (spec.md §6 "Persisted state").
func New(servedDir, friendlyNameOverride, udnStatePath string, logger log.Logger) Identity {
	udn := loadPersistedUDN(udnStatePath, logger)
	if udn == "" {
		udn = deriveUDN(servedDir)
		savePersistedUDN(udnStatePath, udn, logger)
	}
	name := friendlyNameOverride
	if name == "" {
		name = defaultFriendlyName()
	}
	return Identity{UDN: udn, FriendlyName: name}
}

// deriveUDN hashes hostname + served directory so that restarting the
// server against the same directory yields the same UDN even with no
// persisted state file (spec.md §3 "derived from hostname + served path").
func deriveUDN(servedDir string) string {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	h := md5.New()
	io.WriteString(h, host)
	io.WriteString(h, "\x00")
	io.WriteString(h, servedDir)
	return upnp.FormatUUID(h.Sum(nil))
}

func loadPersistedUDN(path string, logger log.Logger) string {
	if path == "" {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	udn := string(b)
	if len(udn) == 0 {
		return ""
	}
	return udn
}

func savePersistedUDN(path, udn string, logger log.Logger) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		logger.Levelf(log.Debug, "could not create udn state dir: %s", err)
		return
	}
	if err := os.WriteFile(path, []byte(udn), 0o640); err != nil {
		logger.Levelf(log.Debug, "could not persist udn: %s", err)
	}
}

// DefaultUDNStatePath returns the conventional location to persist the UDN,
// or "" if no config directory is available.
func DefaultUDNStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "zerodlna", "udn")
}

func defaultFriendlyName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return fmt.Sprintf("ZeroConfigDLNA on %s", host)
}

// BaseURL is "http://<bind-ip>:<port>/" (spec.md §3).
func BaseURL(ip net.IP, port int) string {
	return fmt.Sprintf("http://%s/", (&net.TCPAddr{IP: ip, Port: port}).String())
}
