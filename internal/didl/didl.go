// Package didl turns decoded DIDL-Lite fragments into media entries. The
// scan is substring oriented rather than a full XML parse: servers vary in
// attribute order and namespace usage, and the streaming decoder already
// guarantees each fragment is one complete <container> or <item> element.
package didl

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/tr1v3r/dlnactl/internal/media"
	"github.com/tr1v3r/dlnactl/internal/upnp"
)

// Attribute extracts the value of key="..." from an opening tag text.
// Absence is reported, never an error; the caller supplies the default.
// An unterminated value yields the remaining text so a damaged entry
// stays partially usable.
func Attribute(attrs, key string) (string, bool) {
	needle := " " + key + "=\""
	i := strings.Index(attrs, needle)
	if i < 0 {
		return "", false
	}
	i += len(needle)
	j := strings.IndexByte(attrs[i:], '"')
	if j < 0 {
		return attrs[i:], true
	}
	return attrs[i : i+j], true
}

// splitTag separates the opening tag text (through its '>') from the rest
// of the fragment.
func splitTag(fragment string) (attrs, body string) {
	i := strings.IndexByte(fragment, '>')
	if i < 0 {
		return fragment, ""
	}
	return fragment[:i], fragment[i+1:]
}

// ScanContainer builds a directory entry from one <container> element.
// ok is false when the mandatory id attribute is missing and the entry
// should be skipped.
func ScanContainer(fragment string) (e media.Entry, ok bool) {
	attrs, body := splitTag(fragment)

	e.IsDirectory = true
	e.Kind = media.KindOther
	e.ID, ok = Attribute(attrs, "id")
	e.ParentID, _ = Attribute(attrs, "parentID")
	if v, found := Attribute(attrs, "childCount"); found {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			e.Size = n
		} else {
			e.SizeMissing = true
		}
	} else {
		e.SizeMissing = true
	}
	if v, found := Attribute(attrs, "searchable"); found {
		e.Searchable = v == "1" || strings.EqualFold(v, "true")
	}
	e.Name, _ = upnp.TagText(body, "dc:title")
	return e, ok && e.ID != ""
}

// ScanItem builds a file entry from one <item> element. defHost/defPort are
// the control server's address, used when the <res> URI carries no absolute
// host of its own.
func ScanItem(fragment string, defHost string, defPort int) (e media.Entry, ok bool) {
	attrs, body := splitTag(fragment)

	e.ID, ok = Attribute(attrs, "id")
	e.ParentID, _ = Attribute(attrs, "parentID")
	e.Name, _ = upnp.TagText(body, "dc:title")
	if v, found := upnp.TagText(body, "dc:creator"); found {
		e.Artist = v
	} else if v, found := upnp.TagText(body, "upnp:artist"); found {
		e.Artist = v
	}
	e.Album, _ = upnp.TagText(body, "upnp:album")
	e.AlbumArtURI, _ = upnp.TagText(body, "upnp:albumArtURI")
	e.IconURI, _ = upnp.TagText(body, "upnp:icon")

	class, _ := upnp.TagText(body, "upnp:class")

	e.SizeMissing = true
	e.DownloadHost = defHost
	e.DownloadPort = defPort
	if i := strings.Index(body, "<res"); i >= 0 {
		resAttrs, _ := splitTag(body[i:])
		if v, found := Attribute(resAttrs, "size"); found {
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				e.Size = n
				e.SizeMissing = false
			}
		}
		if v, found := Attribute(resAttrs, "bitrate"); found {
			e.Bitrate, _ = strconv.Atoi(v)
		}
		if v, found := Attribute(resAttrs, "sampleFrequency"); found {
			e.SampleFreq, _ = strconv.Atoi(v)
		}
		if v, found := Attribute(resAttrs, "protocolInfo"); found {
			e.Kind = media.KindFromMIME(protocolInfoMIME(v))
		}
		if uri, found := upnp.TagText(body, "res"); found {
			e.URI = uri
			if host, port, ok := uriHostPort(uri); ok {
				e.DownloadHost = host
				e.DownloadPort = port
			}
		}
	}
	if e.Kind == media.KindOther {
		e.Kind = media.KindFromUPnPClass(class)
	}
	return e, ok && e.ID != ""
}

// protocolInfoMIME pulls the MIME field out of a protocolInfo value such as
// "http-get:*:audio/mpeg:DLNA.ORG_PN=MP3".
func protocolInfoMIME(pi string) string {
	parts := strings.Split(pi, ":")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// uriHostPort resolves the absolute host and port embedded in a res URI.
func uriHostPort(uri string) (string, int, bool) {
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return "", 0, false
	}
	u, err := url.Parse(uri)
	if err != nil || u.Hostname() == "" {
		return "", 0, false
	}
	port := 80
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	return u.Hostname(), port, true
}
