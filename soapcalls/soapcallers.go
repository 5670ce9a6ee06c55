package soapcalls

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"tvcast.app/tvcast/utils"
)

const (
	// DefaultPort is where the Viera network remote listens.
	DefaultPort = 55000

	networkControlPath   = "/nrc/control_0"
	renderingControlPath = "/dmr/control_0"
)

// TVPayload talks to the remote-control endpoints of a single television.
type TVPayload struct {
	ControlURL          string
	RenderingControlURL string
	HTTPClient          *http.Client
	LogOutput           io.Writer
	Logger              zerolog.Logger
	initLogOnce         sync.Once
}

// Options for NewTVPayload.
type Options struct {
	Host      string
	Port      int
	RetryMax  int
	LogOutput io.Writer
}

// GetMuteRespBody - Build the Get Mute response body
type GetMuteRespBody struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetMuteResponse struct {
			CurrentMute string `xml:"CurrentMute"`
		} `xml:"GetMuteResponse"`
	} `xml:"Body"`
}

// GetVolumeRespBody - Build the Get Volume response body
type GetVolumeRespBody struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetVolumeResponse struct {
			CurrentVolume string `xml:"CurrentVolume"`
		} `xml:"GetVolumeResponse"`
	} `xml:"Body"`
}

// NewTVPayload builds the control URLs for the television at o.Host.
func NewTVPayload(o *Options) (*TVPayload, error) {
	if o.Host == "" {
		return nil, fmt.Errorf("NewTVPayload: empty host")
	}

	port := o.Port
	if port == 0 {
		port = DefaultPort
	}

	base := &url.URL{Scheme: "http", Host: net.JoinHostPort(o.Host, strconv.Itoa(port))}

	return &TVPayload{
		ControlURL:          base.JoinPath(networkControlPath).String(),
		RenderingControlURL: base.JoinPath(renderingControlPath).String(),
		HTTPClient:          utils.NewRetryableHTTPClient(o.RetryMax),
		LogOutput:           o.LogOutput,
	}, nil
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (p *TVPayload) Log() *zerolog.Logger {
	if p.LogOutput != nil {
		p.initLogOnce.Do(func() {
			p.Logger = zerolog.New(p.LogOutput).With().Timestamp().Logger()
		})
	}
	return &p.Logger
}

func (p *TVPayload) client() *http.Client {
	if p.HTTPClient == nil {
		p.HTTPClient = utils.NewHTTPClient()
	}
	return p.HTTPClient
}

// soapCall posts a SOAP envelope and returns the raw response body.
func (p *TVPayload) soapCall(ctx context.Context, target, service, action string, body []byte) ([]byte, error) {
	parsedURL, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("soapCall parse error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, parsedURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("soapCall POST error: %w", err)
	}

	req.Header = http.Header{
		"SOAPAction":   []string{`"` + service + `#` + action + `"`},
		"content-type": []string{"text/xml"},
		"charset":      []string{"utf-8"},
		"Connection":   []string{"close"},
	}

	p.Log().Debug().Str("Method", action).Str("URL", parsedURL.String()).Msg("sending")

	resp, err := p.client().Do(req)
	if err != nil {
		p.Log().Error().Str("Method", action).Err(err).Msg("request failed")
		return nil, fmt.Errorf("soapCall Do POST error: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("soapCall read error: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.Log().Error().Str("Method", action).Int("Status", resp.StatusCode).Msg("unexpected status")
		return nil, fmt.Errorf("soapCall %s: unexpected status %s", action, resp.Status)
	}

	return out, nil
}

// SendKey presses a single remote-control key.
func (p *TVPayload) SendKey(ctx context.Context, key string) error {
	b, err := sendKeySoapBuild(key)
	if err != nil {
		return fmt.Errorf("SendKey build error: %w", err)
	}

	if _, err := p.soapCall(ctx, p.ControlURL, networkControlSchema, "X_SendKey", b); err != nil {
		return fmt.Errorf("SendKey %s error: %w", key, err)
	}

	return nil
}

// TogglePower flips the power state. There is no way to tell from the
// reply whether the set actually changed state.
func (p *TVPayload) TogglePower(ctx context.Context) error {
	return p.SendKey(ctx, KeyPower)
}

// GetMuteSoapCall - Return mute status for target device
func (p *TVPayload) GetMuteSoapCall(ctx context.Context) (bool, error) {
	b, err := getMuteSoapBuild()
	if err != nil {
		return false, fmt.Errorf("GetMuteSoapCall build error: %w", err)
	}

	out, err := p.soapCall(ctx, p.RenderingControlURL, renderingCtlSchema, "GetMute", b)
	if err != nil {
		return false, fmt.Errorf("GetMuteSoapCall error: %w", err)
	}

	var resp GetMuteRespBody
	if err := xml.Unmarshal(out, &resp); err != nil {
		return false, fmt.Errorf("GetMuteSoapCall XML Decode error: %w", err)
	}

	return strings.TrimSpace(resp.Body.GetMuteResponse.CurrentMute) == "1", nil
}

// SetMuteSoapCall mutes when m is true.
func (p *TVPayload) SetMuteSoapCall(ctx context.Context, m bool) error {
	desired := "0"
	if m {
		desired = "1"
	}

	b, err := setMuteSoapBuild(desired)
	if err != nil {
		return fmt.Errorf("SetMuteSoapCall build error: %w", err)
	}

	if _, err := p.soapCall(ctx, p.RenderingControlURL, renderingCtlSchema, "SetMute", b); err != nil {
		return fmt.Errorf("SetMuteSoapCall error: %w", err)
	}

	return nil
}

// GetVolumeSoapCall returns the current volume.
func (p *TVPayload) GetVolumeSoapCall(ctx context.Context) (int, error) {
	b, err := getVolumeSoapBuild()
	if err != nil {
		return 0, fmt.Errorf("GetVolumeSoapCall build error: %w", err)
	}

	out, err := p.soapCall(ctx, p.RenderingControlURL, renderingCtlSchema, "GetVolume", b)
	if err != nil {
		return 0, fmt.Errorf("GetVolumeSoapCall error: %w", err)
	}

	var resp GetVolumeRespBody
	if err := xml.Unmarshal(out, &resp); err != nil {
		return 0, fmt.Errorf("GetVolumeSoapCall XML Decode error: %w", err)
	}

	v, err := strconv.Atoi(strings.TrimSpace(resp.Body.GetVolumeResponse.CurrentVolume))
	if err != nil {
		return 0, fmt.Errorf("GetVolumeSoapCall convert to int error: %w", err)
	}

	return v, nil
}

// SetVolumeSoapCall sets the volume, clamped to 0..100.
func (p *TVPayload) SetVolumeSoapCall(ctx context.Context, v int) error {
	v = ClampVolume(v)

	b, err := setVolumeSoapBuild(v)
	if err != nil {
		return fmt.Errorf("SetVolumeSoapCall build error: %w", err)
	}

	if _, err := p.soapCall(ctx, p.RenderingControlURL, renderingCtlSchema, "SetVolume", b); err != nil {
		return fmt.Errorf("SetVolumeSoapCall error: %w", err)
	}

	return nil
}

// ClampVolume keeps v inside the range the television accepts.
func ClampVolume(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
