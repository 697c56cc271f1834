package soap

import (
	"encoding/xml"
	"fmt"
)

// MarshalActionResponse renders a service's response arguments as the
// <u:ActionResponse> XML fragment that goes inside a SOAP body
// (spec.md §4.2).
func MarshalActionResponse(actionName, serviceURN string, args [][2]string) ([]byte, error) {
	soapArgs := make([]Arg, 0, len(args))
	for _, kv := range args {
		soapArgs = append(soapArgs, Arg{XMLName: xml.Name{Local: kv[0]}, Value: kv[1]})
	}
	inner, err := xml.Marshal(soapArgs)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(`<u:%[1]sResponse xmlns:u="%[2]s">%[3]s</u:%[1]sResponse>`,
		actionName, serviceURN, inner)), nil
}
