package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/skratchdot/open-golang/open"
	"tvcast.app/tvcast/assistant"
	"tvcast.app/tvcast/castprotocol"
	"tvcast.app/tvcast/devices"
	"tvcast.app/tvcast/dial"
	"tvcast.app/tvcast/interactive"
	"tvcast.app/tvcast/internal/config"
	"tvcast.app/tvcast/orchestrator"
	"tvcast.app/tvcast/soapcalls"
	"tvcast.app/tvcast/youtube"
)

var (
	//go:embed version.txt
	version        string
	errNoflag      = errors.New("no flag used")
	errStep        = errors.New("step failed")
	configPtr      = flag.String("c", "", "Path to a YAML config file.")
	targetPtr      = flag.String("t", "", "DIAL device descriptor URL of the receiver.")
	tvPtr          = flag.String("tv", "", "Host of the television remote control.")
	listPtr        = flag.Bool("l", false, "List all available DIAL receivers and cast devices.")
	powerPtr       = flag.Bool("p", false, "Toggle the television power and exit.")
	volPtr         = flag.Int("vol", -1, "Set the television volume (0-100) and exit.")
	listenPtr      = flag.Bool("listen", false, "Read phrases from stdin and act on them.")
	interactivePtr = flag.Bool("i", false, "Start the interactive remote.")
	openPtr        = flag.Bool("open", false, "Open the video in the local browser instead of casting.")
	strictPtr      = flag.Bool("strict", false, "Exit with status 1 when a step fails.")
	debugPtr       = flag.Bool("debug", false, "Enable debug logging.")
	versionPtr     = flag.Bool("version", false, "Print version.")

	ErrNoCombi    = errors.New("can't combine -l with other flags")
	ErrFailtoList = errors.New("failed to list devices")
	ErrModeCombi  = errors.New("only one of -p, -vol, -listen, -i can be used")
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, errNoflag) {
			flag.Usage()
			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "Encountered error(s): %s\n", err)

		if errors.Is(err, errStep) && !*strictPtr {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func run() error {
	exitCTX, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	flag.Parse()

	flagRes, err := processflags()
	if err != nil {
		return err
	}

	if flagRes.exit {
		return nil
	}

	cfg := flagRes.cfg
	logOut := setupLogging(cfg.Level(), *debugPtr)

	tv, err := soapcalls.NewTVPayload(&soapcalls.Options{
		Host:      cfg.TV.Host,
		Port:      cfg.TV.Port,
		RetryMax:  cfg.HTTP.Retries,
		LogOutput: logOut,
	})
	if err != nil {
		return err
	}

	switch {
	case *powerPtr:
		return stepErr(tv.TogglePower(exitCTX))

	case *volPtr >= 0:
		return stepErr(tv.SetVolumeSoapCall(exitCTX, *volPtr))

	case *interactivePtr:
		scr, err := interactive.InitNewScreen()
		if err != nil {
			return err
		}
		return scr.InterInit(exitCTX, tv, cfg.TV.Host)
	}

	searcher := youtube.NewClient(cfg.YouTube.APIKey, cfg.HTTP.Retries, logOut)
	searcher.Endpoint = cfg.YouTube.Endpoint

	rcv := newReceiverFactory(cfg, logOut)
	defer rcv.close()

	orch := &orchestrator.Orchestrator{
		TV:        tv,
		Searcher:  searcher,
		Discover:  rcv.discover,
		Target:    flagRes.target,
		App:       cfg.Receiver.App,
		Instance:  cfg.Receiver.Instance,
		PowerWait: cfg.Power.Wait,
		SkipPower: cfg.Power.Skip,
		LogOutput: logOut,
	}

	if *listenPtr {
		a := assistant.New(tv, func(ctx context.Context, query string) error {
			_, err := orch.Run(ctx, query)
			return err
		}, cfg.Assistant.Interval)
		a.Reply = os.Stdout
		a.LogOutput = logOut

		fmt.Println("Listening for phrases, one per line. Ctrl+D to quit.")
		return a.Listen(exitCTX, os.Stdin)
	}

	query := orchestrator.BuildQuery(flag.Args())
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("run error: %w", errNoflag)
	}

	if *openPtr {
		video, err := searcher.First(exitCTX, query)
		if err != nil {
			return stepErr(err)
		}
		fmt.Printf("Opening %s (%s)\n", video.Title, video.WatchURL())
		return stepErr(open.Run(video.WatchURL()))
	}

	report, err := orch.Run(exitCTX, query)
	printReport(os.Stdout, report)

	return stepErr(err)
}

// stepErr marks err as a pipeline failure, which only changes the exit
// status under -strict.
func stepErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errStep, err)
}

func setupLogging(level zerolog.Level, debug bool) io.Writer {
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
}

func printReport(w io.Writer, r *orchestrator.Report) {
	if r == nil {
		return
	}

	switch {
	case r.Toggled && r.ToggleErr != nil:
		fmt.Fprintf(w, "TV did not answer, power toggle failed: %s\n", r.ToggleErr)
	case r.Toggled:
		fmt.Fprintln(w, "TV did not answer, toggled power.")
	case r.TVAnswered:
		fmt.Fprintln(w, "TV is on.")
	}

	if r.Video != nil {
		fmt.Fprintf(w, "Found: %s (%s)\n", r.Video.Title, r.Video.WatchURL())
	}

	if r.Location != "" {
		fmt.Fprintf(w, "Playing on %s: %s\n", r.Device, r.Location)
	}
}

// receiverFactory resolves the configured receiver backend into an
// orchestrator.Receiver and releases it afterwards.
type receiverFactory struct {
	cfg      *config.Config
	logOut   io.Writer
	dial     *dial.Client
	launcher *castprotocol.YouTubeLauncher
}

func newReceiverFactory(cfg *config.Config, logOut io.Writer) *receiverFactory {
	return &receiverFactory{
		cfg:    cfg,
		logOut: logOut,
		dial:   dial.NewClient(cfg.HTTP.Retries, logOut),
	}
}

func (f *receiverFactory) discover(ctx context.Context, target string) (orchestrator.Receiver, error) {
	if f.cfg.Receiver.Backend != config.BackendCast {
		d, err := f.dial.GetDevice(ctx, target)
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	if f.launcher != nil {
		return f.launcher, nil
	}

	addr := f.cfg.Cast.Addr
	if addr == "" {
		devs, err := devices.LoadCastDevices(ctx, f.cfg.Cast.Timeout)
		if err != nil {
			return nil, err
		}

		d, err := devices.FirstVideoDevice(devs)
		if err != nil {
			return nil, err
		}
		addr = d.Addr
	}

	l, err := castprotocol.NewYouTubeLauncher(addr)
	if err != nil {
		return nil, err
	}
	l.LogOutput = f.logOut

	if err := l.Connect(ctx); err != nil {
		return nil, err
	}

	f.launcher = l
	return l, nil
}

func (f *receiverFactory) close() {
	if f.launcher != nil {
		_ = f.launcher.Close()
	}
}
