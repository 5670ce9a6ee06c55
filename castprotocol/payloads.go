package castprotocol

import (
	"sync/atomic"

	"github.com/vishen/go-chromecast/cast"
)

const (
	namespaceConnection = "urn:x-cast:com.google.cast.tp.connection"
	namespaceReceiver   = "urn:x-cast:com.google.cast.receiver"
	namespaceYouTube    = "urn:x-cast:com.google.youtube.mdx"

	defaultSender   = "sender-0"
	defaultReceiver = "receiver-0"
)

// Request ID counter for Chromecast messages
var requestIDCounter int32

func nextRequestID() int {
	return int(atomic.AddInt32(&requestIDCounter, 1))
}

// launchPayload asks the platform receiver to start an application.
type launchPayload struct {
	cast.PayloadHeader
	AppID string `json:"appId"`
}

// stopPayload asks the platform receiver to end a session.
type stopPayload struct {
	cast.PayloadHeader
	SessionID string `json:"sessionId"`
}

// flingPayload hands a video id to the YouTube receiver.
type flingPayload struct {
	cast.PayloadHeader
	Data flingData `json:"data"`
}

type flingData struct {
	VideoID     string `json:"videoId"`
	CurrentTime int    `json:"currentTime"`
}

func newLaunchPayload(appID string) *launchPayload {
	return &launchPayload{
		PayloadHeader: cast.PayloadHeader{Type: "LAUNCH"},
		AppID:         appID,
	}
}

func newStopPayload(sessionID string) *stopPayload {
	return &stopPayload{
		PayloadHeader: cast.PayloadHeader{Type: "STOP"},
		SessionID:     sessionID,
	}
}

func newFlingPayload(videoID string) *flingPayload {
	return &flingPayload{
		PayloadHeader: cast.PayloadHeader{Type: "flingVideo"},
		Data:          flingData{VideoID: videoID},
	}
}

var (
	_ cast.Payload = (*launchPayload)(nil)
	_ cast.Payload = (*stopPayload)(nil)
	_ cast.Payload = (*flingPayload)(nil)
)
