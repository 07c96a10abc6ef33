package upnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceClassURNs(t *testing.T) {
	assert.Equal(t, "urn:schemas-upnp-org:device:MediaServer:1", DMS.DeviceURN())
	assert.Equal(t, "urn:schemas-upnp-org:device:MediaRenderer:1", DMR.DeviceURN())
	assert.Equal(t, "urn:schemas-upnp-org:service:ContentDirectory:1", DMS.ServiceURN())
	assert.Equal(t, "urn:schemas-upnp-org:service:AVTransport:1", DMR.ServiceURN())
	assert.Equal(t, "DMS", DMS.String())
	assert.Equal(t, "DMR", DMR.String())
}

func TestSOAPActionHeader(t *testing.T) {
	assert.Equal(t, `"urn:schemas-upnp-org:service:ContentDirectory:1#Browse"`, SOAPActionBrowse)
	assert.Equal(t, `"urn:schemas-upnp-org:service:AVTransport:1#Play"`, SOAPAction(ActionPlay))
	assert.Equal(t, `"urn:schemas-upnp-org:service:AVTransport:1#Stop"`, SOAPAction(ActionStop))
}

func TestBrowseEnvelope(t *testing.T) {
	env := BrowseEnvelope("21", 10, 50)
	assert.Contains(t, env, "<ObjectID>21</ObjectID>")
	assert.Contains(t, env, "<BrowseFlag>BrowseDirectChildren</BrowseFlag>")
	assert.Contains(t, env, "<Filter>*</Filter>")
	assert.Contains(t, env, "<StartingIndex>10</StartingIndex>")
	assert.Contains(t, env, "<RequestedCount>50</RequestedCount>")
	assert.Contains(t, env, "<SortCriteria></SortCriteria>")
	assert.Contains(t, env, `xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1"`)
}

func TestActionEnvelope(t *testing.T) {
	play := ActionEnvelope(ActionPlay, "")
	assert.Contains(t, play, "<u:Play")
	assert.Contains(t, play, "<Speed>1</Speed>")

	stop := ActionEnvelope(ActionStop, "")
	assert.Contains(t, stop, "<u:Stop")
	assert.NotContains(t, stop, "Speed")

	set := ActionEnvelope(ActionSetURI, "http://h/x.mp3")
	assert.Contains(t, set, "<CurrentURI>http://h/x.mp3</CurrentURI>")
}

func TestTagText(t *testing.T) {
	v, ok := TagText("<a><dc:title>Hello</dc:title></a>", "dc:title")
	require.True(t, ok)
	assert.Equal(t, "Hello", v)

	v, ok = TagText(`<res size="3">http://h/1</res>`, "res")
	require.True(t, ok)
	assert.Equal(t, "http://h/1", v)

	_, ok = TagText("<a></a>", "missing")
	assert.False(t, ok)

	_, ok = TagText("<res>unterminated", "res")
	assert.False(t, ok)
}

const livingRoomDesc = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <device>
    <friendlyName>Living Room</friendlyName>
    <serviceList>
      <service>
        <serviceType>urn:schemas-upnp-org:service:ConnectionManager:1</serviceType>
        <controlURL>/ctl/CM</controlURL>
      </service>
      <service>
        <serviceType>urn:schemas-upnp-org:service:ContentDirectory:1</serviceType>
        <controlURL>/ctl/CDS</controlURL>
      </service>
    </serviceList>
  </device>
</root>`

func TestParseDescription(t *testing.T) {
	name, ctl, err := ParseDescription(livingRoomDesc, DMS)
	require.NoError(t, err)
	assert.Equal(t, "Living Room", name)
	assert.Equal(t, "/ctl/CDS", ctl)
}

func TestParseDescriptionNoService(t *testing.T) {
	_, _, err := ParseDescription(livingRoomDesc, DMR)
	assert.ErrorIs(t, err, ErrNotFound)
}
