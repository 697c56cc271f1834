package server

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"zerodlna/internal/soap"
	"zerodlna/internal/upnp"
)

// soapHandler returns an http.HandlerFunc that dispatches SOAP control
// requests against svc (spec.md §4.3 "SOAP dispatch"). The service is
// selected by which control URL matched in the route table; the
// SOAPACTION header supplies only the action name within that service.
func soapHandler(svc upnpService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sa, err := upnp.ParseActionHTTPHeader(r.Header.Get("SOAPACTION"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var env soap.Envelope
		if err := xml.NewDecoder(r.Body).Decode(&env); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)

		body, status := dispatchSOAP(svc, sa, env.Body.Action, r)
		w.WriteHeader(status)
		w.Write(body)
	}
}

func dispatchSOAP(svc upnpService, sa upnp.SoapAction, actionXML []byte, r *http.Request) ([]byte, int) {
	respArgs, err := svc.Handle(sa.Action, actionXML, r)
	if err != nil {
		upnpErr := upnp.ConvertError(err)
		fault := soap.NewFault("UPnPError", soap.UPnPError{
			ErrorCode: upnpErr.Code,
			ErrorDesc: upnpErr.Desc,
		})
		faultXML, merr := xml.Marshal(fault)
		if merr != nil {
			faultXML = []byte(merr.Error())
		}
		return wrapEnvelope(faultXML), http.StatusInternalServerError
	}
	respXML, err := soap.MarshalActionResponse(sa.Action, sa.ServiceURN.String(), respArgs)
	if err != nil {
		return wrapEnvelope([]byte(err.Error())), http.StatusInternalServerError
	}
	return wrapEnvelope(respXML), http.StatusOK
}

func wrapEnvelope(body []byte) []byte {
	return []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8" standalone="yes"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body>%s</s:Body></s:Envelope>`,
		body))
}
