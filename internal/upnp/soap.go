package upnp

import "fmt"

// Browse defaults from the ContentDirectory spec; MaxBrowseCount bounds the
// number of entries requested per call to keep result memory predictable.
const (
	BrowseFlagChildren = "BrowseDirectChildren"
	BrowseFilterAll    = "*"
	MaxBrowseCount     = 100
)

const SOAPActionBrowse = `"` + ContentDirectoryType + `#Browse"`

// SOAPAction returns the quoted SOAPAction header value for an AVTransport
// command.
func SOAPAction(a TransportAction) string {
	return `"` + AVTransportType + `#` + a.Name() + `"`
}

// BrowseEnvelope builds the SOAP body for a ContentDirectory Browse of the
// direct children of objectID.
func BrowseEnvelope(objectID string, start uint32, count uint32) string {
	return fmt.Sprintf(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
<s:Body><u:Browse xmlns:u="%s">
<ObjectID>%s</ObjectID>
<BrowseFlag>%s</BrowseFlag>
<Filter>%s</Filter>
<StartingIndex>%d</StartingIndex>
<RequestedCount>%d</RequestedCount>
<SortCriteria></SortCriteria>
</u:Browse></s:Body></s:Envelope>`, ContentDirectoryType, objectID, BrowseFlagChildren, BrowseFilterAll, start, count)
}

// ActionEnvelope builds the SOAP body for a transport command on instance 0.
// ActionSetURI needs a target URI; the others take no arguments beyond the
// instance (Play always requests speed 1).
func ActionEnvelope(a TransportAction, uri string) string {
	var inner string
	switch a {
	case ActionPlay:
		inner = "<InstanceID>0</InstanceID><Speed>1</Speed>"
	case ActionPause, ActionStop:
		inner = "<InstanceID>0</InstanceID>"
	case ActionSetURI:
		inner = fmt.Sprintf("<InstanceID>0</InstanceID><CurrentURI>%s</CurrentURI><CurrentURIMetaData></CurrentURIMetaData>", uri)
	}
	return fmt.Sprintf(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
<s:Body><u:%s xmlns:u="%s">%s</u:%s></s:Body></s:Envelope>`, a.Name(), AVTransportType, inner, a.Name())
}
