// Package upnp implements the UPnP device/service description documents and
// the SOAP action framing that sits underneath ContentDirectory and
// ConnectionManager.
package upnp

import "encoding/xml"

// SpecVersion is the UPnP spec version advertised in the root device
// description.
type SpecVersion struct {
	Major int `xml:"major"`
	Minor int `xml:"minor"`
}

// Icon describes one entry of a device's IconList.
type Icon struct {
	Mimetype string
	Width    int
	Height   int
	Depth    int
	URL      string
}

// Service groups the fields that go in a device description's serviceList
// entry. Each advertised service has its own ControlURL; the route that
// matches it selects the service, and the SOAPACTION header names the action.
type Service struct {
	XMLName     xml.Name `xml:"service"`
	ServiceType string   `xml:"serviceType"`
	ServiceId   string   `xml:"serviceId"`
	SCPDURL     string
	ControlURL  string `xml:"controlURL"`
	EventSubURL string `xml:"eventSubURL"`
}

// Device is the <device> element of a root device description.
type Device struct {
	DeviceType      string `xml:"deviceType"`
	FriendlyName    string `xml:"friendlyName"`
	Manufacturer    string `xml:"manufacturer"`
	ModelName       string `xml:"modelName"`
	UDN             string
	PresentationURL string    `xml:"presentationURL,omitempty"`
	IconList        []Icon    `xml:"iconList>icon,omitempty"`
	ServiceList     []Service `xml:"serviceList>service"`
	// VendorXML is injected verbatim as a sibling of the fields above, for
	// vendor extension elements (DLNADOC etc.) that don't warrant their own
	// struct fields.
	VendorXML string `xml:",innerxml"`
}

// DeviceDesc is the document served at /description.xml.
type DeviceDesc struct {
	XMLName     xml.Name `xml:"urn:schemas-upnp-org:device-1-0 root"`
	NSDLNA      string   `xml:"xmlns:dlna,attr"`
	SpecVersion SpecVersion `xml:"specVersion"`
	Device      Device      `xml:"device"`
}

// Variable is a UPnP state variable, as used by GENA eventing and by
// GetSystemUpdateID-style single-value responses.
type Variable struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}
