// Package dial is a small DIAL (DIscovery And Launch) client. It reads a
// receiver's device descriptor and drives the REST application resources
// advertised under its Application-URL.
package dial

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"tvcast.app/tvcast/utils"
)

// DefaultInstance is the instance name most receivers use for a running app.
const DefaultInstance = "run"

// ErrNoApplicationURL is returned when the descriptor answer lacks the
// header that locates the DIAL REST service.
var ErrNoApplicationURL = errors.New("dial: device descriptor response carries no Application-URL header")

// Client issues DIAL requests.
type Client struct {
	HTTPClient  *http.Client
	LogOutput   io.Writer
	Logger      zerolog.Logger
	initLogOnce sync.Once
}

// Device is a DIAL receiver resolved from its descriptor. It is meant to
// be used for a handful of calls and then dropped.
type Device struct {
	DescriptorURL  string
	ApplicationURL string
	DeviceType     string
	FriendlyName   string
	Manufacturer   string
	ModelName      string
	UDN            string

	client *Client
}

// NewClient returns a Client whose requests are retried up to retryMax times.
func NewClient(retryMax int, logOutput io.Writer) *Client {
	return &Client{
		HTTPClient: utils.NewRetryableHTTPClient(retryMax),
		LogOutput:  logOutput,
	}
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (c *Client) Log() *zerolog.Logger {
	if c.LogOutput != nil {
		c.initLogOnce.Do(func() {
			c.Logger = zerolog.New(c.LogOutput).With().Timestamp().Logger()
		})
	}
	return &c.Logger
}

func (c *Client) client() *http.Client {
	if c.HTTPClient == nil {
		c.HTTPClient = utils.NewHTTPClient()
	}
	return c.HTTPClient
}

// GetDevice fetches the device descriptor at ddURL.
func (c *Client) GetDevice(ctx context.Context, ddURL string) (*Device, error) {
	if _, err := url.ParseRequestURI(ddURL); err != nil {
		return nil, fmt.Errorf("GetDevice parse error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ddURL, nil)
	if err != nil {
		return nil, fmt.Errorf("GetDevice GET error: %w", err)
	}
	req.Header.Set("Connection", "close")

	c.Log().Debug().Str("Method", "GetDevice").Str("URL", ddURL).Msg("fetching descriptor")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("GetDevice Do GET error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GetDevice: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GetDevice read error: %w", err)
	}

	appURL := resp.Header.Get("Application-URL")
	if appURL == "" {
		return nil, ErrNoApplicationURL
	}

	d := &Device{
		DescriptorURL:  ddURL,
		ApplicationURL: appURL,
		client:         c,
	}

	if err := parseDeviceDescriptor(body, d); err != nil {
		return nil, fmt.Errorf("GetDevice: %w", err)
	}

	c.Log().Debug().Str("Method", "GetDevice").Str("FriendlyName", d.FriendlyName).Str("ApplicationURL", appURL).Msg("resolved")

	return d, nil
}

func (d *Device) appURL(app string) string {
	return strings.TrimSuffix(d.ApplicationURL, "/") + "/" + url.PathEscape(app)
}

// AppInfo queries the status of app.
func (d *Device) AppInfo(ctx context.Context, app string) (*AppInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.appURL(app), nil)
	if err != nil {
		return nil, fmt.Errorf("AppInfo GET error: %w", err)
	}
	req.Header.Set("Connection", "close")

	resp, err := d.client.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("AppInfo Do GET error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AppInfo %s: unexpected status %s", app, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("AppInfo read error: %w", err)
	}

	return parseAppInfo(body)
}

// StopApp asks the receiver to stop the given instance of app. The status
// code is returned even when it is not a success code.
func (d *Device) StopApp(ctx context.Context, app, instance string) (int, error) {
	if instance == "" {
		instance = DefaultInstance
	}

	target := d.appURL(app) + "/" + url.PathEscape(instance)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return 0, fmt.Errorf("StopApp DELETE error: %w", err)
	}
	req.Header.Set("Connection", "close")

	d.client.Log().Debug().Str("Method", "StopApp").Str("URL", target).Msg("stopping")

	resp, err := d.client.client().Do(req)
	if err != nil {
		return 0, fmt.Errorf("StopApp Do DELETE error: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("StopApp %s: unexpected status %s", app, resp.Status)
	}

	return resp.StatusCode, nil
}

// LaunchApp starts app with payload as its launch parameters and returns
// the instance location the receiver reports.
func (d *Device) LaunchApp(ctx context.Context, app, payload, contentType string) (string, error) {
	target := d.appURL(app)

	var body io.Reader
	if payload != "" {
		body = strings.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return "", fmt.Errorf("LaunchApp POST error: %w", err)
	}

	if payload != "" && contentType != "" {
		req.Header.Set("Content-Type", contentType+"; charset=utf-8")
	}
	req.Header.Set("Connection", "close")

	d.client.Log().Debug().Str("Method", "LaunchApp").Str("URL", target).Str("Payload", payload).Msg("launching")

	resp, err := d.client.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("LaunchApp Do POST error: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	default:
		return "", fmt.Errorf("LaunchApp %s: unexpected status %s", app, resp.Status)
	}

	return resp.Header.Get("Location"), nil
}

// Name is the friendly name, falling back to the descriptor URL.
func (d *Device) Name() string {
	if d.FriendlyName != "" {
		return d.FriendlyName
	}
	return d.DescriptorURL
}
