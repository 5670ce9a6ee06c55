// Package orchestrator runs the power-on, search, discover and launch
// pipeline that puts a YouTube video on the television.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"tvcast.app/tvcast/youtube"
)

const (
	// DefaultPowerWait is how long after start the power decision is taken.
	DefaultPowerWait = 100 * time.Millisecond
	// DefaultApp is the receiver application name.
	DefaultApp = "YouTube"
	// DefaultInstance is the instance stopped before launching.
	DefaultInstance = "run"

	launchContentType = "text/plain"
)

// PowerController is the remote-control side of the television.
type PowerController interface {
	GetMuteSoapCall(ctx context.Context) (bool, error)
	TogglePower(ctx context.Context) error
}

// Searcher finds the video to play.
type Searcher interface {
	First(ctx context.Context, query string) (*youtube.SearchResult, error)
}

// Receiver is a cast-receiver handle able to stop and launch applications.
type Receiver interface {
	Name() string
	StopApp(ctx context.Context, app, instance string) (int, error)
	LaunchApp(ctx context.Context, app, payload, contentType string) (string, error)
}

// DiscoverFunc resolves target into a Receiver.
type DiscoverFunc func(ctx context.Context, target string) (Receiver, error)

// Orchestrator holds the collaborators of a single pipeline run.
type Orchestrator struct {
	TV        PowerController
	Searcher  Searcher
	Discover  DiscoverFunc
	Target    string
	App       string
	Instance  string
	PowerWait time.Duration
	SkipPower bool

	LogOutput   io.Writer
	Logger      zerolog.Logger
	initLogOnce sync.Once
}

// Report describes what a run did.
type Report struct {
	TVAnswered bool
	Toggled    bool
	ToggleErr  error
	Video      *youtube.SearchResult
	Device     string
	StopStatus int
	StopErr    error
	Location   string
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (o *Orchestrator) Log() *zerolog.Logger {
	if o.LogOutput != nil {
		o.initLogOnce.Do(func() {
			o.Logger = zerolog.New(o.LogOutput).With().Timestamp().Logger()
		})
	}
	return &o.Logger
}

// BuildQuery joins command-line words into a search query.
func BuildQuery(args []string) string {
	return strings.Join(args, " ")
}

func (o *Orchestrator) app() string {
	if o.App == "" {
		return DefaultApp
	}
	return o.App
}

func (o *Orchestrator) instance() string {
	if o.Instance == "" {
		return DefaultInstance
	}
	return o.Instance
}

func (o *Orchestrator) powerWait() time.Duration {
	if o.PowerWait <= 0 {
		return DefaultPowerWait
	}
	return o.PowerWait
}

// Run executes the pipeline for query. Search and discovery failures halt
// the run, a failed stop does not. The returned error is the step that
// ended the run, if any.
func (o *Orchestrator) Run(ctx context.Context, query string) (*Report, error) {
	report := &Report{}

	if !o.SkipPower && o.TV != nil {
		report.TVAnswered, report.Toggled, report.ToggleErr = o.EnsurePowerOn(ctx)
	}

	video, err := o.searchVideo(ctx, query)
	if err != nil {
		return report, err
	}
	report.Video = video

	rcv, err := o.discoverDevice(ctx)
	if err != nil {
		return report, err
	}
	report.Device = rcv.Name()

	if err := o.resetAndLaunch(ctx, rcv, video.ID, report); err != nil {
		return report, err
	}

	return report, nil
}

// EnsurePowerOn queries the television and, once the power wait has
// elapsed, toggles power unless the query has already been answered.
//
// The wait is measured from the call, not from the query's completion: a
// set that is on but answers slower than the wait reads as off and gets
// toggled. Raise power.wait for slow sets.
func (o *Orchestrator) EnsurePowerOn(ctx context.Context) (answered, toggled bool, err error) {
	timer := time.NewTimer(o.powerWait())
	defer timer.Stop()

	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	answer := o.queryPower(queryCtx)

	select {
	case <-timer.C:
	case <-ctx.Done():
		return false, false, ctx.Err()
	}

	// Single read of the future. An unresolved future and a failed query
	// both count as "off".
	select {
	case qerr := <-answer:
		answered = qerr == nil
	default:
	}
	cancel()

	if answered {
		o.Log().Debug().Str("Method", "EnsurePowerOn").Msg("tv answered, leaving power alone")
		return true, false, nil
	}

	o.Log().Info().Msg("turning tv on")
	if err := o.TV.TogglePower(ctx); err != nil {
		o.Log().Error().Str("Method", "EnsurePowerOn").Err(err).Msg("power toggle failed")
		return false, true, fmt.Errorf("EnsurePowerOn toggle error: %w", err)
	}

	return false, true, nil
}

// queryPower resolves the returned channel at most once with the outcome
// of the state query.
func (o *Orchestrator) queryPower(ctx context.Context) <-chan error {
	answer := make(chan error, 1)

	go func() {
		_, err := o.TV.GetMuteSoapCall(ctx)
		answer <- err
	}()

	return answer
}

func (o *Orchestrator) searchVideo(ctx context.Context, query string) (*youtube.SearchResult, error) {
	video, err := o.Searcher.First(ctx, query)
	if err != nil {
		o.Log().Error().Str("Method", "searchVideo").Str("Query", query).Err(err).Msg("search failed")
		return nil, fmt.Errorf("searchVideo error: %w", err)
	}

	o.Log().Info().Str("VideoID", video.ID).Str("Title", video.Title).Msg("found video")
	return video, nil
}

func (o *Orchestrator) discoverDevice(ctx context.Context) (Receiver, error) {
	rcv, err := o.Discover(ctx, o.Target)
	if err != nil {
		o.Log().Error().Str("Method", "discoverDevice").Str("Target", o.Target).Err(err).Msg("error getting device")
		return nil, fmt.Errorf("discoverDevice error: %w", err)
	}

	o.Log().Debug().Str("Method", "discoverDevice").Str("Device", rcv.Name()).Msg("device ready")
	return rcv, nil
}

// resetAndLaunch stops whatever instance of the app is running, then
// launches it with the video id. A failed stop is logged and ignored.
func (o *Orchestrator) resetAndLaunch(ctx context.Context, rcv Receiver, videoID string, report *Report) error {
	app := o.app()

	report.StopStatus, report.StopErr = rcv.StopApp(ctx, app, o.instance())
	if report.StopErr != nil {
		o.Log().Warn().Str("App", app).Int("Status", report.StopStatus).Err(report.StopErr).Msg("error on stop app")
	} else {
		o.Log().Info().Str("App", app).Int("Status", report.StopStatus).Msg("stop app status")
	}

	location, err := rcv.LaunchApp(ctx, app, "v="+videoID, launchContentType)
	if err != nil {
		o.Log().Error().Str("App", app).Err(err).Msg("error on launch app")
		return fmt.Errorf("resetAndLaunch launch error: %w", err)
	}
	report.Location = location

	o.Log().Info().Str("App", app).Str("Location", location).Msg("launched successfully")
	return nil
}
