// Package assistant turns short spoken-style phrases into television
// actions.
package assistant

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"tvcast.app/tvcast/soapcalls"
	"tvcast.app/tvcast/utils"
)

// DefaultInterval is the minimum spacing between two dispatched actions.
const DefaultInterval = 3 * time.Second

var (
	// ErrUnknownPhrase is returned for text that maps to no action.
	ErrUnknownPhrase = errors.New("assistant: phrase not understood")
	// ErrThrottled is returned when a phrase arrives inside the rate window.
	ErrThrottled = errors.New("assistant: too many requests, try again in a moment")
	// ErrBadVolume is returned when "set volume" is not followed by a number.
	ErrBadVolume = errors.New("assistant: volume is not a number")
)

// Action names the kind of a parsed phrase.
type Action int

const (
	ActionNone Action = iota
	ActionTogglePower
	ActionPlay
	ActionSetVolume
	ActionSayIP
)

func (a Action) String() string {
	switch a {
	case ActionTogglePower:
		return "toggle-power"
	case ActionPlay:
		return "play"
	case ActionSetVolume:
		return "set-volume"
	case ActionSayIP:
		return "ip-address"
	}
	return "none"
}

// Intent is a parsed phrase.
type Intent struct {
	Action Action
	Query  string
	Volume int
}

// TV is the part of the television the assistant drives directly.
type TV interface {
	TogglePower(ctx context.Context) error
	SetVolumeSoapCall(ctx context.Context, v int) error
}

// PlayFunc casts the first video matching query.
type PlayFunc func(ctx context.Context, query string) error

// Assistant dispatches phrases, at most one action per interval.
type Assistant struct {
	TV   TV
	Play PlayFunc
	// Reply receives one human readable line per accepted phrase.
	Reply io.Writer

	limiter     *rate.Limiter
	LogOutput   io.Writer
	Logger      zerolog.Logger
	initLogOnce sync.Once
}

// New returns an Assistant throttled to one action per interval.
func New(tv TV, play PlayFunc, interval time.Duration) *Assistant {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Assistant{
		TV:      tv,
		Play:    play,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (a *Assistant) Log() *zerolog.Logger {
	if a.LogOutput != nil {
		a.initLogOnce.Do(func() {
			a.Logger = zerolog.New(a.LogOutput).With().Timestamp().Logger()
		})
	}
	return &a.Logger
}

// Parse classifies phrase. Checks run in a fixed order, so "turn on the
// tv and play music" is a power toggle.
func Parse(phrase string) (Intent, error) {
	text := strings.ToLower(strings.TrimSpace(phrase))

	switch {
	case text == "ip address":
		return Intent{Action: ActionSayIP}, nil

	case strings.Contains(text, "turn") && strings.Contains(text, "tv"):
		return Intent{Action: ActionTogglePower}, nil

	case strings.HasPrefix(text, "play"):
		_, rest, ok := strings.Cut(text, " ")
		rest = strings.TrimSpace(strings.ReplaceAll(rest, "'", ""))
		if !ok || rest == "" {
			return Intent{}, ErrUnknownPhrase
		}
		return Intent{Action: ActionPlay, Query: rest}, nil

	case strings.Contains(text, "set") && strings.Contains(text, "volume"):
		words := strings.Fields(text)
		v, err := strconv.Atoi(strings.TrimSuffix(words[len(words)-1], "%"))
		if err != nil {
			return Intent{}, ErrBadVolume
		}
		return Intent{Action: ActionSetVolume, Volume: v}, nil
	}

	return Intent{}, ErrUnknownPhrase
}

// Dispatch parses phrase and runs the matching action. Phrases arriving
// faster than the limiter allows are dropped with ErrThrottled.
func (a *Assistant) Dispatch(ctx context.Context, phrase string) (Intent, error) {
	intent, err := Parse(phrase)
	if err != nil {
		a.Log().Debug().Str("Method", "Dispatch").Str("Phrase", phrase).Err(err).Msg("ignored")
		return intent, err
	}

	if a.limiter != nil && !a.limiter.Allow() {
		return intent, ErrThrottled
	}

	a.Log().Info().Str("Action", intent.Action.String()).Msg("dispatching")

	switch intent.Action {
	case ActionSayIP:
		a.say("My IP address is %s.", utils.GetOutboundIP())
		return intent, nil

	case ActionTogglePower:
		a.say("Switching TV power.")
		if err := a.TV.TogglePower(ctx); err != nil {
			return intent, fmt.Errorf("Dispatch toggle error: %w", err)
		}

	case ActionPlay:
		a.say("Playing %s.", intent.Query)
		if err := a.Play(ctx, intent.Query); err != nil {
			return intent, fmt.Errorf("Dispatch play error: %w", err)
		}

	case ActionSetVolume:
		v := soapcalls.ClampVolume(intent.Volume)
		a.say("Setting volume to %d.", v)
		if err := a.TV.SetVolumeSoapCall(ctx, v); err != nil {
			return intent, fmt.Errorf("Dispatch volume error: %w", err)
		}
	}

	return intent, nil
}

func (a *Assistant) say(format string, args ...any) {
	if a.Reply == nil {
		return
	}
	fmt.Fprintf(a.Reply, format+"\n", args...)
}

// Listen dispatches every line read from r until r is exhausted or ctx
// ends. Failed phrases are logged and reported, never fatal. A read blocked
// on r does not hold Listen past ctx; the reader goroutine exits with it.
func (a *Assistant) Listen(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			return err
		case raw := <-lines:
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}

			if _, err := a.Dispatch(ctx, line); err != nil {
				a.Log().Warn().Str("Phrase", line).Err(err).Msg("phrase failed")
				a.say("%s", err)
			}
		}
	}
}
