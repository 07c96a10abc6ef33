package media

import "strings"

// Server holds the vital facts about one discovered peer: where it lives,
// where its description came from and which path accepts SOAP control
// requests.
type Server struct {
	IP           string
	Port         int
	Location     string
	FriendlyName string
	ControlURL   string
}

// ContentKind classifies what an Entry's bytes contain.
type ContentKind int

const (
	KindOther ContentKind = iota
	KindAudio
	KindImage
	KindVideo
)

func (k ContentKind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "other"
	}
}

// KindFromMIME maps a MIME type (or a protocolInfo MIME field) to a kind by
// its major type prefix.
func KindFromMIME(mime string) ContentKind {
	switch {
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	default:
		return KindOther
	}
}

// KindFromUPnPClass maps an upnp:class value such as
// "object.item.audioItem.musicTrack" to a kind. Used when the <res>
// protocolInfo is missing or ambiguous.
func KindFromUPnPClass(class string) ContentKind {
	switch {
	case strings.Contains(class, "audioItem"), strings.Contains(class, "musicTrack"):
		return KindAudio
	case strings.Contains(class, "imageItem"), strings.Contains(class, "photo"):
		return KindImage
	case strings.Contains(class, "videoItem"), strings.Contains(class, "movie"):
		return KindVideo
	default:
		return KindOther
	}
}

// Entry is one <container> or <item> from a Browse result.
type Entry struct {
	IsDirectory bool
	Size        uint64 // child count for directories, byte size for items
	SizeMissing bool   // server omitted size / childCount
	Bitrate     int
	SampleFreq  int  // audio only, 0 when absent
	Searchable  bool // directories only
	Kind        ContentKind

	ParentID string
	ID       string
	Name     string
	Artist   string
	Album    string

	URI          string // resource URI on the server, used for download
	DownloadHost string // may differ from the control address
	DownloadPort int
	AlbumArtURI  string
	IconURI      string
}
