// Package upnpav implements the DIDL-Lite XML vocabulary used by
// ContentDirectory to describe containers and items (spec.md §4.2).
package upnpav

import "encoding/xml"

// Resource is a <res> element: a URL a client can GET/HEAD the underlying
// bytes from, plus the protocol info string that describes how.
type Resource struct {
	XMLName      xml.Name `xml:"res"`
	ProtocolInfo string   `xml:"protocolInfo,attr"`
	Size         uint64   `xml:"size,attr,omitempty"`
	Duration     string   `xml:"duration,attr,omitempty"`
	URL          string   `xml:",chardata"`
}

// Object is the metadata common to both containers and items.
type Object struct {
	ID          string `xml:"id,attr"`
	ParentID    string `xml:"parentID,attr"`
	Restricted  int    `xml:"restricted,attr"` // 1 always, per spec.md §4.2
	Title       string `xml:"dc:title"`
	Class       string `xml:"upnp:class"`
}

// Container is a <container> DIDL-Lite element.
type Container struct {
	XMLName    xml.Name `xml:"container"`
	Object
	ChildCount int `xml:"childCount,attr"`
}

// Item is an <item> DIDL-Lite element.
type Item struct {
	XMLName   xml.Name `xml:"item"`
	Object
	Resources []Resource `xml:"res"`
}

// DIDLLite is the root <DIDL-Lite> document. A BrowseMetadata result holds
// a single container or item; a BrowseDirectChildren listing can fill both
// fields. Containers are marshalled before items.
type DIDLLite struct {
	XMLName    xml.Name `xml:"DIDL-Lite"`
	NSDC       string   `xml:"xmlns:dc,attr"`
	NSUPnP     string   `xml:"xmlns:upnp,attr"`
	NS         string   `xml:"xmlns,attr"`
	Containers []Container `xml:"container"`
	Items      []Item      `xml:"item"`
}

// NewDIDLLite builds an empty document with the namespaces spec.md §4.2
// requires.
func NewDIDLLite() DIDLLite {
	return DIDLLite{
		NSDC:   "http://purl.org/dc/elements/1.1/",
		NSUPnP: "urn:schemas-upnp-org:metadata-1-0/upnp/",
		NS:     "urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/",
	}
}

// Object.Class values (spec.md §3's MIME classification table).
const (
	ClassContainer  = "object.container"
	ClassVideoItem  = "object.item.videoItem"
	ClassMusicTrack = "object.item.audioItem.musicTrack"
	ClassPhoto      = "object.item.imageItem.photo"
)
