// Package castprotocol drives Google Cast receivers over the CASTV2
// protocol. It can stop the running receiver application and launch the
// YouTube receiver with a video.
package castprotocol

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/vishen/go-chromecast/application"
	"github.com/vishen/go-chromecast/cast"
	"tvcast.app/tvcast/utils"
)

// DefaultPort is the CASTV2 TCP port.
const DefaultPort = 8009

// YouTubeAppID is the receiver application id of YouTube.
const YouTubeAppID = "233637DE"

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultPollAttempts = 10
)

var (
	// ErrNoRunningApp is returned by StopApp when the receiver is idle.
	ErrNoRunningApp = errors.New("castprotocol: no application running on the receiver")
	// ErrUnknownApp is returned for application names without a receiver id.
	ErrUnknownApp = errors.New("castprotocol: no receiver id known for application")
	// ErrNoVideoID is returned when a launch payload has no v= parameter.
	ErrNoVideoID = errors.New("castprotocol: launch payload carries no video id")
	// ErrDeviceOffline is returned when the cast port does not accept connections.
	ErrDeviceOffline = errors.New("castprotocol: device not reachable")
	// ErrNoTransport means the launched app never reported a transport id.
	ErrNoTransport = errors.New("castprotocol: receiver application did not report a transport")
)

var knownApplications = map[string]string{
	"YouTube": YouTubeAppID,
}

// YouTubeLauncher is a connection to a single cast device.
type YouTubeLauncher struct {
	app          *application.Application
	conn         cast.Conn
	mu           sync.Mutex
	host         string
	port         int
	connected    bool
	PollInterval time.Duration
	PollAttempts int
	Logger       zerolog.Logger
	LogOutput    io.Writer
	initLogOnce  sync.Once
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (l *YouTubeLauncher) Log() *zerolog.Logger {
	if l.LogOutput != nil {
		l.initLogOnce.Do(func() {
			l.Logger = zerolog.New(l.LogOutput).With().Timestamp().Logger()
		})
	}
	return &l.Logger
}

// NewYouTubeLauncher prepares a launcher for deviceAddr, given either as
// host:port or as a URL. The port defaults to DefaultPort.
func NewYouTubeLauncher(deviceAddr string) (*YouTubeLauncher, error) {
	host, port, err := parseDeviceAddr(deviceAddr)
	if err != nil {
		return nil, err
	}

	conn := cast.NewConnection()

	app := application.NewApplication(
		application.WithConnection(conn),
		application.WithConnectionRetries(3),
	)

	return &YouTubeLauncher{
		app:          app,
		conn:         conn,
		host:         host,
		port:         port,
		PollInterval: defaultPollInterval,
		PollAttempts: defaultPollAttempts,
	}, nil
}

func parseDeviceAddr(deviceAddr string) (string, int, error) {
	if deviceAddr == "" {
		return "", 0, fmt.Errorf("parse device addr: empty address")
	}

	hostport := deviceAddr
	if u, err := url.Parse(deviceAddr); err == nil && u.Host != "" {
		hostport = u.Host
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		// No port given.
		return hostport, DefaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("parse device addr: bad port %q", portStr)
	}

	return host, port, nil
}

// Connect opens the CASTV2 channel to the device.
func (l *YouTubeLauncher) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.connected {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("chromecast connect: %w", err)
	}

	addr := net.JoinHostPort(l.host, strconv.Itoa(l.port))
	if !utils.HostPortIsAlive(addr) {
		return fmt.Errorf("chromecast connect %s: %w", addr, ErrDeviceOffline)
	}

	l.Log().Debug().Str("Method", "Connect").Str("Host", l.host).Int("Port", l.port).Msg("connecting")
	if err := l.app.Start(l.host, l.port); err != nil {
		l.Log().Error().Str("Method", "Connect").Err(err).Msg("connection failed")
		return fmt.Errorf("chromecast connect: %w", err)
	}

	l.connected = true
	return nil
}

// Name identifies the device by address.
func (l *YouTubeLauncher) Name() string {
	return net.JoinHostPort(l.host, strconv.Itoa(l.port))
}

// StopApp ends the session of the application currently running on the
// receiver. It returns ErrNoRunningApp when the receiver is idle. The
// returned code mirrors HTTP semantics so DIAL and cast receivers report
// alike.
func (l *YouTubeLauncher) StopApp(ctx context.Context, app, instance string) (int, error) {
	if err := l.Connect(ctx); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.app.Update(); err != nil {
		return 0, fmt.Errorf("StopApp update error: %w", err)
	}

	running := l.app.App()
	if running == nil || running.SessionId == "" {
		return http.StatusNotFound, ErrNoRunningApp
	}

	payload := newStopPayload(running.SessionId)
	requestID := nextRequestID()
	payload.SetRequestId(requestID)

	l.Log().Debug().Str("Method", "StopApp").Str("App", running.DisplayName).Str("SessionId", running.SessionId).Msg("stopping")

	if err := l.conn.Send(requestID, payload, defaultSender, defaultReceiver, namespaceReceiver); err != nil {
		return 0, fmt.Errorf("StopApp send error: %w", err)
	}

	return http.StatusOK, nil
}

// LaunchApp starts app on the receiver and flings the video named by the
// "v" parameter of payload. The returned location identifies the session.
func (l *YouTubeLauncher) LaunchApp(ctx context.Context, app, payload, contentType string) (string, error) {
	appID, ok := knownApplications[app]
	if !ok {
		return "", fmt.Errorf("LaunchApp %s: %w", app, ErrUnknownApp)
	}

	videoID, err := videoIDFromPayload(payload)
	if err != nil {
		return "", fmt.Errorf("LaunchApp: %w", err)
	}

	if err := l.Connect(ctx); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	launch := newLaunchPayload(appID)
	requestID := nextRequestID()
	launch.SetRequestId(requestID)

	l.Log().Debug().Str("Method", "LaunchApp").Str("AppId", appID).Msg("launching")

	if err := l.conn.Send(requestID, launch, defaultSender, defaultReceiver, namespaceReceiver); err != nil {
		return "", fmt.Errorf("LaunchApp send error: %w", err)
	}

	running, err := l.waitForApp(ctx, appID)
	if err != nil {
		return "", fmt.Errorf("LaunchApp: %w", err)
	}

	if err := l.conn.Send(nextRequestID(), &cast.ConnectHeader, defaultSender, running.TransportId, namespaceConnection); err != nil {
		return "", fmt.Errorf("LaunchApp connect error: %w", err)
	}

	fling := newFlingPayload(videoID)
	requestID = nextRequestID()
	fling.SetRequestId(requestID)

	if err := l.conn.Send(requestID, fling, defaultSender, running.TransportId, namespaceYouTube); err != nil {
		return "", fmt.Errorf("LaunchApp fling error: %w", err)
	}

	l.Log().Debug().Str("Method", "LaunchApp").Str("VideoID", videoID).Str("TransportId", running.TransportId).Msg("flung video")

	return "cast://" + l.Name() + "/" + running.SessionId, nil
}

func (l *YouTubeLauncher) waitForApp(ctx context.Context, appID string) (*cast.Application, error) {
	interval := l.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	attempts := l.PollAttempts
	if attempts <= 0 {
		attempts = defaultPollAttempts
	}

	for i := range attempts {
		if err := l.app.Update(); err != nil {
			l.Log().Debug().Str("Method", "waitForApp").Int("Attempt", i+1).Err(err).Msg("app.Update retry")
		} else if running := l.app.App(); running != nil && running.AppId == appID && running.TransportId != "" {
			return running, nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, ErrNoTransport
}

// Close disconnects from the device, leaving the launched app running.
func (l *YouTubeLauncher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.connected {
		return nil
	}

	l.connected = false
	return l.app.Close(false)
}

func videoIDFromPayload(payload string) (string, error) {
	values, err := url.ParseQuery(payload)
	if err != nil {
		return "", fmt.Errorf("parse payload: %w", err)
	}

	id := values.Get("v")
	if id == "" {
		return "", ErrNoVideoID
	}

	return id, nil
}
