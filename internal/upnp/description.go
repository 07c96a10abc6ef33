package upnp

import (
	"fmt"
	"strings"
)

// ParseDescription pulls the friendly name and the control URL of the
// service matching class out of a device description document. The scan is
// substring based: descriptions are small, namespace prefixes vary between
// vendors, and only two values are needed.
func ParseDescription(desc string, class ServiceClass) (friendlyName, controlURL string, err error) {
	friendlyName, _ = TagText(desc, "friendlyName")

	i := strings.Index(desc, class.ServiceURN())
	if i < 0 {
		return friendlyName, "", fmt.Errorf("%w: no %s service block", ErrNotFound, class.ServiceURN())
	}
	// The controlURL of the matching <service> block follows its serviceType.
	controlURL, ok := TagText(desc[i:], "controlURL")
	if !ok || controlURL == "" {
		return friendlyName, "", fmt.Errorf("%w: service block has no controlURL", ErrNotFound)
	}
	if !strings.HasPrefix(controlURL, "/") && !strings.HasPrefix(controlURL, "http") {
		controlURL = "/" + controlURL
	}
	return friendlyName, controlURL, nil
}
