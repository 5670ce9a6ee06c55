package assistant

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeTV struct {
	toggles int
	volume  int
}

func (f *fakeTV) TogglePower(ctx context.Context) error {
	f.toggles++
	return nil
}

func (f *fakeTV) SetVolumeSoapCall(ctx context.Context, v int) error {
	f.volume = v
	return nil
}

func TestParse(t *testing.T) {
	tt := []struct {
		name    string
		phrase  string
		want    Intent
		wantErr error
	}{
		{"toggle", "Turn on the TV", Intent{Action: ActionTogglePower}, nil},
		{"toggle wins over play", "play turn down for what on tv", Intent{Action: ActionTogglePower}, nil},
		{"play", "Play Don't Stop Me Now", Intent{Action: ActionPlay, Query: "dont stop me now"}, nil},
		{"play alone", "play", Intent{}, ErrUnknownPhrase},
		{"play not first", "please play music", Intent{}, ErrUnknownPhrase},
		{"volume", "set the volume to 25", Intent{Action: ActionSetVolume, Volume: 25}, nil},
		{"volume percent", "set volume 40%", Intent{Action: ActionSetVolume, Volume: 40}, nil},
		{"volume not a number", "set volume loud", Intent{}, ErrBadVolume},
		{"ip", "IP address", Intent{Action: ActionSayIP}, nil},
		{"unknown", "what time is it", Intent{}, ErrUnknownPhrase},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.phrase)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Parse(%q) err = %v, want %v", tc.phrase, err, tc.wantErr)
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDispatch(t *testing.T) {
	tv := &fakeTV{}
	var played []string
	var reply bytes.Buffer

	a := New(tv, func(ctx context.Context, query string) error {
		played = append(played, query)
		return nil
	}, time.Millisecond)
	a.limiter = rate.NewLimiter(rate.Inf, 1)
	a.Reply = &reply

	_, err := a.Dispatch(context.Background(), "turn tv on")
	require.NoError(t, err)
	require.Equal(t, 1, tv.toggles)

	_, err = a.Dispatch(context.Background(), "play never gonna give you up")
	require.NoError(t, err)
	require.Equal(t, []string{"never gonna give you up"}, played)

	_, err = a.Dispatch(context.Background(), "set volume 150")
	require.NoError(t, err)
	require.Equal(t, 100, tv.volume)

	require.Contains(t, reply.String(), "Switching TV power.")
	require.Contains(t, reply.String(), "Playing never gonna give you up.")
	require.Contains(t, reply.String(), "Setting volume to 100.")
}

func TestDispatchThrottled(t *testing.T) {
	tv := &fakeTV{}
	a := New(tv, nil, time.Hour)

	_, err := a.Dispatch(context.Background(), "turn the tv off")
	require.NoError(t, err)

	_, err = a.Dispatch(context.Background(), "turn the tv on")
	require.ErrorIs(t, err, ErrThrottled)
	require.Equal(t, 1, tv.toggles)
}

func TestDispatchUnknownDoesNotConsumeToken(t *testing.T) {
	tv := &fakeTV{}
	a := New(tv, nil, time.Hour)

	_, err := a.Dispatch(context.Background(), "sing a song")
	require.ErrorIs(t, err, ErrUnknownPhrase)

	_, err = a.Dispatch(context.Background(), "turn tv on")
	require.NoError(t, err)
	require.Equal(t, 1, tv.toggles)
}

func TestListen(t *testing.T) {
	tv := &fakeTV{}
	var reply bytes.Buffer

	a := New(tv, nil, time.Millisecond)
	a.limiter = rate.NewLimiter(rate.Inf, 1)
	a.Reply = &reply

	in := strings.NewReader("turn tv on\n\nhello there\nset volume 10\n")
	require.NoError(t, a.Listen(context.Background(), in))

	require.Equal(t, 1, tv.toggles)
	require.Equal(t, 10, tv.volume)
	require.Contains(t, reply.String(), ErrUnknownPhrase.Error())
}

func TestListenStopsOnCancelWhileReading(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	a := New(&fakeTV{}, nil, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Listen(ctx, pr)
	}()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}
