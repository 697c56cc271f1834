// Package connectionmanager implements the ConnectionManager SOAP service
// stub (spec.md §4.3): enough to answer GetProtocolInfo and
// GetCurrentConnectionIDs/Info correctly, since this server never manages
// real AV transport sessions.
package connectionmanager

import (
	"net/http"

	"zerodlna/internal/upnp"
)

const ServiceType = "urn:schemas-upnp-org:service:ConnectionManager:1"
const ServiceID = "urn:upnp-org:serviceId:ConnectionManager"

// protocolInfoSource lists every protocolInfo this server can hand out as a
// source, one per MIME type in spec.md §3's table.
const protocolInfoSource = "" +
	"http-get:*:video/mp4:*," +
	"http-get:*:video/x-matroska:*," +
	"http-get:*:video/x-msvideo:*," +
	"http-get:*:video/webm:*," +
	"http-get:*:video/mp2t:*," +
	"http-get:*:audio/mpeg:*," +
	"http-get:*:audio/flac:*," +
	"http-get:*:audio/wav:*," +
	"http-get:*:audio/mp4:*," +
	"http-get:*:audio/ogg:*," +
	"http-get:*:image/jpeg:*," +
	"http-get:*:image/png:*," +
	"http-get:*:image/gif:*"

// Service answers ConnectionManager SOAP actions.
type Service struct{}

func (Service) Handle(action string, _ []byte, _ *http.Request) ([][2]string, error) {
	switch action {
	case "GetProtocolInfo":
		return [][2]string{
			{"Source", protocolInfoSource},
			{"Sink", ""},
		}, nil
	case "GetCurrentConnectionIDs":
		return [][2]string{{"ConnectionIDs", "0"}}, nil
	case "GetCurrentConnectionInfo":
		return [][2]string{
			{"RcsID", "-1"},
			{"AVTransportID", "-1"},
			{"ProtocolInfo", ""},
			{"PeerConnectionManager", ""},
			{"PeerConnectionID", "-1"},
			{"Direction", "Output"},
			{"Status", "OK"},
		}, nil
	default:
		return nil, upnp.Errorf(upnp.InvalidActionErrorCode, "unsupported action %q", action)
	}
}
