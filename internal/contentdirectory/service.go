// Package contentdirectory implements the ContentDirectory SOAP service
// (spec.md §4.3): Browse, GetSortCapabilities, GetSearchCapabilities, and
// GetSystemUpdateID.
package contentdirectory

import (
	"encoding/xml"
	"net/http"
	"strconv"

	"zerodlna/internal/didl"
	"zerodlna/internal/index"
	"zerodlna/internal/soap"
	"zerodlna/internal/upnp"
)

const ServiceType = "urn:schemas-upnp-org:service:ContentDirectory:1"
const ServiceID = "urn:upnp-org:serviceId:ContentDirectory"

// Service answers ContentDirectory SOAP actions against a Content Index.
type Service struct {
	Index *index.Index
	// BaseURL returns the current "http://<bind-ip>:<port>/" prefix for
	// resource URLs; a func rather than a fixed string since the HTTP
	// listener's bound address is only known after Start (spec.md §9
	// "Cyclic references").
	BaseURL func() string
}

// Handle dispatches a single SOAP action. actionXML is the inner XML of the
// SOAP body (the <u:ActionName>...</u:ActionName> element).
func (s *Service) Handle(action string, actionXML []byte, r *http.Request) ([][2]string, error) {
	switch action {
	case "Browse":
		return s.browse(actionXML)
	case "GetSortCapabilities":
		return [][2]string{{"SortCaps", "dc:title"}}, nil
	case "GetSearchCapabilities":
		return [][2]string{{"SearchCaps", ""}}, nil
	case "GetSystemUpdateID":
		return [][2]string{{"Id", strconv.FormatUint(s.Index.UpdateID(), 10)}}, nil
	default:
		return nil, upnp.Errorf(upnp.InvalidActionErrorCode, "unsupported action %q", action)
	}
}

func (s *Service) browse(actionXML []byte) ([][2]string, error) {
	var req soap.Action
	if err := xml.Unmarshal(actionXML, &req); err != nil {
		return nil, upnp.Errorf(upnp.InvalidArgsErrorCode, "malformed Browse request: %s", err)
	}

	objectIDStr, _ := req.Get("ObjectID")
	objectID, err := strconv.ParseInt(objectIDStr, 10, 64)
	if err != nil {
		return nil, upnp.Errorf(upnp.InvalidArgsErrorCode, "bad ObjectID %q", objectIDStr)
	}
	browseFlagStr, _ := req.Get("BrowseFlag")
	browseFlag, ok := didl.ParseBrowseFlag(browseFlagStr)
	if !ok {
		return nil, upnp.Errorf(upnp.InvalidArgsErrorCode, "bad BrowseFlag %q", browseFlagStr)
	}
	startingIndex, err := parseOptionalInt(req, "StartingIndex", 0)
	if err != nil {
		return nil, upnp.Errorf(upnp.InvalidArgsErrorCode, "bad StartingIndex: %s", err)
	}
	requestedCount, err := parseOptionalInt(req, "RequestedCount", 0)
	if err != nil {
		return nil, upnp.Errorf(upnp.InvalidArgsErrorCode, "bad RequestedCount: %s", err)
	}

	id := index.ObjectID(objectID)
	baseURL := s.BaseURL()

	switch browseFlag {
	case didl.BrowseMetadata:
		obj, err := s.Index.Classify(id)
		if err != nil {
			return nil, toNoSuchObject(err)
		}
		return didl.EncodeBrowseResponse(didl.BrowseResult{
			Objects:        []index.ContentObject{obj},
			NumberReturned: 1,
			TotalMatches:   1,
			UpdateID:       s.Index.UpdateID(),
		}, baseURL)
	default: // BrowseDirectChildren
		objs, total, err := s.Index.List(id, startingIndex, requestedCount)
		if err != nil {
			return nil, toNoSuchObject(err)
		}
		return didl.EncodeBrowseResponse(didl.BrowseResult{
			Objects:        objs,
			NumberReturned: len(objs),
			TotalMatches:   total,
			UpdateID:       s.Index.UpdateID(),
		}, baseURL)
	}
}

func toNoSuchObject(err error) error {
	if err == index.ErrNotContainer {
		return upnp.Errorf(upnp.InvalidArgsErrorCode, "object is not a container")
	}
	return upnp.Errorf(upnp.NoSuchObjectErrorCode, "no such object")
}

func parseOptionalInt(req soap.Action, name string, def int) (int, error) {
	v, ok := req.Get(name)
	if !ok || v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
