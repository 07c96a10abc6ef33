package upnp

const (
	MediaServerType   = "urn:schemas-upnp-org:device:MediaServer:1"
	MediaRendererType = "urn:schemas-upnp-org:device:MediaRenderer:1"

	ContentDirectoryType = "urn:schemas-upnp-org:service:ContentDirectory:1"
	AVTransportType      = "urn:schemas-upnp-org:service:AVTransport:1"
)

// ServiceClass names the UPnP device role a peer plays on the network.
type ServiceClass int

const (
	DMS ServiceClass = iota // Digital Media Server
	DMP                     // Digital Media Player
	DMR                     // Digital Media Renderer
	DMC                     // Digital Media Controller
)

// DeviceURN returns the device type URN to search for. Players consume
// servers and controllers consume renderers, so the four roles collapse
// onto the two discoverable device types.
func (c ServiceClass) DeviceURN() string {
	switch c {
	case DMS, DMP:
		return MediaServerType
	case DMR, DMC:
		return MediaRendererType
	default:
		return MediaServerType
	}
}

// ServiceURN returns the control service URN expected in the device
// description of a peer of this class.
func (c ServiceClass) ServiceURN() string {
	switch c {
	case DMS, DMP:
		return ContentDirectoryType
	case DMR, DMC:
		return AVTransportType
	default:
		return ContentDirectoryType
	}
}

func (c ServiceClass) String() string {
	switch c {
	case DMS:
		return "DMS"
	case DMP:
		return "DMP"
	case DMR:
		return "DMR"
	case DMC:
		return "DMC"
	default:
		return "unknown"
	}
}

// TransportAction is one of the AVTransport commands a control point issues.
type TransportAction int

const (
	ActionPlay TransportAction = iota
	ActionPause
	ActionStop
	ActionSetURI
)

func (a TransportAction) Name() string {
	switch a {
	case ActionPlay:
		return "Play"
	case ActionPause:
		return "Pause"
	case ActionStop:
		return "Stop"
	case ActionSetURI:
		return "SetAVTransportURI"
	default:
		return "unknown"
	}
}
