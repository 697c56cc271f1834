package server

import (
	"encoding/xml"
	"fmt"

	"zerodlna/internal/connectionmanager"
	"zerodlna/internal/contentdirectory"
	"zerodlna/internal/deviceid"
	"zerodlna/internal/upnp"
)

const (
	rootDeviceType = "urn:schemas-upnp-org:device:MediaServer:1"

	contentDirectoryControlURL = "/ContentDirectory/control"
	connectionManagerControlURL = "/ConnectionManager/control"
	contentDirectorySCPDURL     = "/ContentDirectory.xml"
	connectionManagerSCPDURL    = "/ConnectionManager.xml"
)

// buildRootDesc renders the document served at /description.xml (spec.md
// §6), grounded on the teacher's Init method building upnp.DeviceDesc.
func buildRootDesc(identity deviceid.Identity) []byte {
	desc := upnp.DeviceDesc{
		NSDLNA:      "urn:schemas-dlna-org:device-1-0",
		SpecVersion: upnp.SpecVersion{Major: 1, Minor: 0},
		Device: upnp.Device{
			DeviceType:      rootDeviceType,
			FriendlyName:    identity.FriendlyName,
			Manufacturer:    deviceid.Manufacturer,
			ModelName:       deviceid.ModelName,
			UDN:             identity.UDN,
			PresentationURL: "/",
			VendorXML:       "\n    <dlna:X_DLNADOC>DMS-1.50</dlna:X_DLNADOC>",
			ServiceList: []upnp.Service{
				{
					ServiceType: contentdirectory.ServiceType,
					ServiceId:   contentdirectory.ServiceID,
					SCPDURL:     contentDirectorySCPDURL,
					ControlURL:  contentDirectoryControlURL,
				},
				{
					ServiceType: connectionmanager.ServiceType,
					ServiceId:   connectionmanager.ServiceID,
					SCPDURL:     connectionManagerSCPDURL,
					ControlURL:  connectionManagerControlURL,
				},
			},
		},
	}
	b, err := xml.MarshalIndent(desc, "", "  ")
	if err != nil {
		// desc is a fixed, well-formed literal; only a programming error
		// could make this fail.
		panic(fmt.Sprintf("marshalling root device description: %s", err))
	}
	return append([]byte(xml.Header), b...)
}
