// Package didl renders Content Index query results as DIDL-Lite documents
// and SOAP BrowseResponse envelopes (spec.md §4.2).
package didl

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"time"

	"zerodlna/internal/index"
	"zerodlna/internal/upnpav"
)

// BrowseFlag selects BrowseMetadata vs BrowseDirectChildren (spec.md §4.2).
type BrowseFlag int

const (
	BrowseMetadata BrowseFlag = iota
	BrowseDirectChildren
)

// ParseBrowseFlag maps the SOAP BrowseFlag argument's literal value to the
// typed enum, rejecting anything else as an invalid argument (spec.md
// §4.3 "Unparseable input returns UPnP error 402").
func ParseBrowseFlag(s string) (BrowseFlag, bool) {
	switch s {
	case "BrowseMetadata":
		return BrowseMetadata, true
	case "BrowseDirectChildren":
		return BrowseDirectChildren, true
	default:
		return 0, false
	}
}

// resourceURLPrefix is the path under which media resources are served
// (spec.md §4.2 "Resource URL").
const resourceURLPrefix = "/media"

// ResourceURL builds the URL a client uses to fetch an item's bytes.
// baseURL is "http://<bind-ip>:<port>/".
func ResourceURL(baseURL string, id index.ObjectID, title string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		u = &url.URL{Scheme: "http", Host: "localhost"}
	}
	u.Path = path.Join(resourceURLPrefix, strconv.FormatInt(int64(id), 10), title)
	return u.String()
}

// protocolInfo builds the http-get:*:<mime>:DLNA.ORG_OP=... string
// spec.md §4.2 requires verbatim, for interoperability with Samsung and
// Sony clients.
func protocolInfo(mimeType string) string {
	return fmt.Sprintf(
		"http-get:*:%s:DLNA.ORG_OP=01;DLNA.ORG_CI=0;DLNA.ORG_FLAGS=01700000000000000000000000000000",
		mimeType,
	)
}

// ContentFeatures returns the contentFeatures.dlna.org header value matching
// a resource's protocolInfo suffix (spec.md §4.3 "DLNA transfer headers").
func ContentFeatures() string {
	return "DLNA.ORG_OP=01;DLNA.ORG_CI=0;DLNA.ORG_FLAGS=01700000000000000000000000000000"
}

// objectToDIDL converts one ContentObject into its DIDL-Lite element,
// appending it to doc.
func objectToDIDL(doc *upnpav.DIDLLite, obj index.ContentObject, baseURL string) {
	base := upnpav.Object{
		ID:         strconv.FormatInt(int64(obj.ID), 10),
		ParentID:   strconv.FormatInt(int64(obj.ParentID), 10),
		Restricted: 1,
		Title:      obj.Title,
	}
	if obj.Kind == index.KindContainer {
		base.Class = upnpav.ClassContainer
		doc.Containers = append(doc.Containers, upnpav.Container{
			Object:     base,
			ChildCount: obj.ChildCount,
		})
		return
	}
	base.Class = obj.UPnPClass
	res := upnpav.Resource{
		ProtocolInfo: protocolInfo(obj.MimeType),
		Size:         uint64(obj.Size),
		URL:          ResourceURL(baseURL, obj.ID, obj.Title),
	}
	if obj.Duration.Ok {
		res.Duration = formatDuration(obj.Duration.Value)
	}
	doc.Items = append(doc.Items, upnpav.Item{
		Object:    base,
		Resources: []upnpav.Resource{res},
	})
}

func formatDuration(d time.Duration) string {
	total := int64(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	frac := d.Milliseconds() % 1000
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, frac)
}

// BrowseResult is what internal/contentdirectory hands the encoder: a
// Content Index query result plus the paging counters it needs to echo.
type BrowseResult struct {
	Objects        []index.ContentObject
	NumberReturned int
	TotalMatches   int
	UpdateID       uint64
}

// EncodeDIDLLite renders a BrowseResult as a DIDL-Lite XML string.
func EncodeDIDLLite(result BrowseResult, baseURL string) (string, error) {
	doc := upnpav.NewDIDLLite()
	for _, obj := range result.Objects {
		objectToDIDL(&doc, obj, baseURL)
	}
	b, err := xml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeBrowseResponse renders the full SOAP <Result> argument set for a
// Browse action (spec.md §4.2 "Envelope").
func EncodeBrowseResponse(result BrowseResult, baseURL string) ([][2]string, error) {
	didlXML, err := EncodeDIDLLite(result, baseURL)
	if err != nil {
		return nil, err
	}
	return [][2]string{
		{"Result", didlXML},
		{"NumberReturned", strconv.Itoa(result.NumberReturned)},
		{"TotalMatches", strconv.Itoa(result.TotalMatches)},
		{"UpdateID", strconv.FormatUint(result.UpdateID, 10)},
	}, nil
}
