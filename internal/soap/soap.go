// Package soap implements the thin SOAP 1.1 envelope this server speaks:
// one action element per request body, one fault shape on error.
package soap

import "encoding/xml"

// Arg is a single SOAP call argument or response value.
type Arg struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Action is the decoded body of a SOAP request: an arbitrary element whose
// name is the action being invoked and whose children are its arguments.
type Action struct {
	XMLName xml.Name
	Args    []Arg `xml:",any"`
}

// Get returns the value of the named argument, if present.
func (a Action) Get(name string) (string, bool) {
	for _, arg := range a.Args {
		if arg.XMLName.Local == name {
			return arg.Value, true
		}
	}
	return "", false
}

// Body is the <s:Body> element of a SOAP envelope.
type Body struct {
	Action []byte `xml:",innerxml"`
}

// Envelope is the outer <s:Envelope> of a SOAP request.
type Envelope struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    Body     `xml:"Body"`
}

// UPnPError is the <UPnPError> fault detail UPnP layers onto SOAP faults.
type UPnPError struct {
	XMLName     xml.Name `xml:"urn:schemas-upnp-org:control-1-0 UPnPError"`
	ErrorCode   uint     `xml:"errorCode"`
	ErrorDesc   string   `xml:"errorDescription"`
}

// Fault is a SOAP 1.1 fault element.
type Fault struct {
	XMLName     xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Fault"`
	FaultCode   string   `xml:"faultcode"`
	FaultString string   `xml:"faultstring"`
	Detail      any      `xml:"detail"`
}

// NewFault wraps a detail value (conventionally a UPnPError) in a SOAP fault
// with the given faultstring.
func NewFault(faultString string, detail any) Fault {
	return Fault{
		FaultCode:   "s:Client",
		FaultString: faultString,
		Detail:      detail,
	}
}
