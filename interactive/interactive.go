package interactive

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/gdamore/tcell/v2/encoding"
	"github.com/mattn/go-runewidth"
	"tvcast.app/tvcast/soapcalls"
)

// VolumeStep is the change applied by the + and - keys.
const VolumeStep = 5

// Remote is the television as seen from the interactive screen.
type Remote interface {
	SendKey(ctx context.Context, key string) error
	TogglePower(ctx context.Context) error
	GetVolumeSoapCall(ctx context.Context) (int, error)
	SetVolumeSoapCall(ctx context.Context, v int) error
	GetMuteSoapCall(ctx context.Context) (bool, error)
}

// NewScreen .
type NewScreen struct {
	Current    tcell.Screen
	tvName     string
	lastAction string
	volume     int
}

var helpLines = []string{
	"Press p to toggle power.",
	"Press + / - to change volume.",
	"Press u / d for remote volume keys.",
	"Press m to mute, h for home.",
}

func (p *NewScreen) emitStr(x, y int, style tcell.Style, str string) {
	s := p.Current
	for _, c := range str {
		var comb []rune
		w := runewidth.RuneWidth(c)
		if w == 0 {
			comb = []rune{c}
			c = ' '
			w = 1
		}
		s.SetContent(x, y, c, comb, style)
		x += w
	}
}

// DisplayAtext redraws the screen with inputtext as the last action.
func (p *NewScreen) DisplayAtext(inputtext string) {
	p.lastAction = inputtext
	s := p.Current
	title := "TV: " + p.tvName
	w, h := s.Size()
	s.Clear()
	p.emitStr(w/2-runewidth.StringWidth(title)/2, h/2-3, tcell.StyleDefault, title)
	p.emitStr(w/2-8, h/2-1, tcell.StyleDefault, "Volume: "+volumeLabel(p.volume))
	p.emitStr(w/2-runewidth.StringWidth(inputtext)/2, h/2, tcell.StyleDefault, inputtext)
	p.emitStr(1, 1, tcell.StyleDefault, "Press ESC / q to exit.")
	for i, line := range helpLines {
		p.emitStr(w/2-12, h/2+2+i, tcell.StyleDefault, line)
	}

	s.Show()
}

func volumeLabel(v int) string {
	if v < 0 {
		return "?"
	}
	return strconv.Itoa(v)
}

// InterInit runs the remote until ESC or q is pressed or ctx ends.
func (p *NewScreen) InterInit(ctx context.Context, tv Remote, tvName string) error {
	p.tvName = tvName
	p.volume = -1

	encoding.Register()
	s := p.Current
	if e := s.Init(); e != nil {
		return fmt.Errorf("InterInit screen error: %w", e)
	}
	defer s.Fini()

	defStyle := tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.ColorWhite)
	s.SetStyle(defStyle)

	if v, err := tv.GetVolumeSoapCall(ctx); err == nil {
		p.volume = v
	}
	p.DisplayAtext("Ready.")

	go func() {
		<-ctx.Done()
		_ = s.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			return ctx.Err()
		case *tcell.EventResize:
			s.Sync()
			p.DisplayAtext(p.lastAction)
		case *tcell.EventKey:
			quit, status := p.handleKey(ctx, tv, ev.Key(), ev.Rune())
			if quit {
				return nil
			}
			if status != "" {
				p.DisplayAtext(status)
			}
		}
	}
}

// handleKey performs the action bound to a key press and returns the
// status line to show.
func (p *NewScreen) handleKey(ctx context.Context, tv Remote, key tcell.Key, r rune) (bool, string) {
	if key == tcell.KeyEscape || r == 'q' {
		return true, ""
	}

	switch r {
	case 'p':
		return false, statusOf("Power toggled.", tv.TogglePower(ctx))
	case '+', '=':
		return false, p.stepVolume(ctx, tv, VolumeStep)
	case '-', '_':
		return false, p.stepVolume(ctx, tv, -VolumeStep)
	case 'u':
		return false, p.remoteKey(ctx, tv, soapcalls.KeyVolumeUp, "Volume up.")
	case 'd':
		return false, p.remoteKey(ctx, tv, soapcalls.KeyVolumeDown, "Volume down.")
	case 'h':
		return false, p.remoteKey(ctx, tv, soapcalls.KeyHome, "Home.")
	case 'm':
		if err := tv.SendKey(ctx, soapcalls.KeyMute); err != nil {
			return false, statusOf("", err)
		}
		muted, err := tv.GetMuteSoapCall(ctx)
		if err != nil {
			return false, "Mute toggled."
		}
		if muted {
			return false, "Muted."
		}
		return false, "Unmuted."
	}

	return false, ""
}

func (p *NewScreen) stepVolume(ctx context.Context, tv Remote, delta int) string {
	current, err := tv.GetVolumeSoapCall(ctx)
	if err != nil {
		return statusOf("", err)
	}

	target := soapcalls.ClampVolume(current + delta)
	if err := tv.SetVolumeSoapCall(ctx, target); err != nil {
		return statusOf("", err)
	}

	p.volume = target
	return "Volume set to " + strconv.Itoa(target) + "."
}

func (p *NewScreen) remoteKey(ctx context.Context, tv Remote, key, ok string) string {
	if err := tv.SendKey(ctx, key); err != nil {
		return statusOf("", err)
	}

	if v, err := tv.GetVolumeSoapCall(ctx); err == nil {
		p.volume = v
	}

	return ok
}

func statusOf(ok string, err error) string {
	if err != nil {
		return "Error: " + err.Error()
	}
	return ok
}

// InitNewScreen .
func InitNewScreen() (*NewScreen, error) {
	s, e := tcell.NewScreen()
	if e != nil {
		return &NewScreen{}, errors.New("Can't start new interactive screen")
	}
	q := NewScreen{
		Current: s,
	}
	return &q, nil
}
