package upnp

import (
	"fmt"
	"strconv"
	"strings"
)

// ServiceURN identifies a UPnP service by its URN, e.g.
// "urn:schemas-upnp-org:service:ContentDirectory:1".
type ServiceURN struct {
	Domain  string
	Type    string
	Version uint64
}

func (me ServiceURN) String() string {
	return fmt.Sprintf("urn:%s:service:%s:%d", me.Domain, me.Type, me.Version)
}

// ParseServiceType parses a service URN of the form
// "urn:<domain>:service:<type>:<version>".
func ParseServiceType(s string) (urn ServiceURN, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 5 || parts[0] != "urn" || parts[2] != "service" {
		err = fmt.Errorf("bad service URN: %q", s)
		return
	}
	urn.Domain = parts[1]
	urn.Type = parts[3]
	urn.Version, err = strconv.ParseUint(parts[4], 10, 32)
	return
}

// SoapAction identifies the action requested by a SOAPACTION header:
// `"<service URN>#<Action>"`.
type SoapAction struct {
	ServiceURN ServiceURN
	Action     string
}

// ParseActionHTTPHeader parses the value of a SOAPACTION header.
func ParseActionHTTPHeader(s string) (ret SoapAction, err error) {
	s = strings.Trim(s, `"`)
	hashIdx := strings.LastIndex(s, "#")
	if hashIdx < 0 {
		err = fmt.Errorf("missing '#' in SOAPACTION: %q", s)
		return
	}
	ret.ServiceURN, err = ParseServiceType(s[:hashIdx])
	if err != nil {
		return
	}
	ret.Action = s[hashIdx+1:]
	return
}
