// Command gpio-capture is a demo host application: it samples real
// GPIO lines on a Linux board, feeds them through a decoder stack
// described by a YAML configuration file, and advertises itself over
// mDNS so a client on the local network can find it without typing in
// an IP address — the logic-analyzer-host analogue of the teacher's
// own dns_sd_announce() for its KISS-over-TCP service.
//
// Usage:
//
//	gpio-capture --chip gpiochip0 --stack stack.yaml --rate 1000 --name "bench rig"
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brutella/dnssd"
	"github.com/jochenvg/go-udev"
	gpiocdev "github.com/warthog618/go-gpiocdev"
	flag "github.com/spf13/pflag"

	"github.com/sigrok-go/sigdecode/dlog"
	"github.com/sigrok-go/sigdecode/output"
	"github.com/sigrok-go/sigdecode/sample"
	"github.com/sigrok-go/sigdecode/session"
	"github.com/sigrok-go/sigdecode/stackcfg"
)

const serviceType = "_sigdecode._tcp"

func main() {
	var (
		chipName    = flag.String("chip", "gpiochip0", "GPIO chip to sample from")
		stackPath   = flag.String("stack", "", "YAML decoder stack configuration")
		rateHz      = flag.Uint64("rate", 1000, "sample rate in Hz")
		chunkLen    = flag.Uint("chunk", 64, "samples per submitted chunk")
		serviceName = flag.String("name", "", "mDNS service name to advertise (default: hostname)")
		noAdvertise = flag.Bool("no-mdns", false, "disable mDNS advertisement")
		verbosity   = flag.CountP("verbose", "v", "increase log verbosity")
	)
	flag.Parse()

	dlog.SetLevel(dlog.Level(int(dlog.LevelWarn) + *verbosity))

	if *stackPath == "" {
		fmt.Fprintln(os.Stderr, "gpio-capture: --stack is required")
		os.Exit(2)
	}

	doc, err := stackcfg.Load(*stackPath)
	if err != nil {
		dlog.Err("loading stack: %v", err)
		os.Exit(1)
	}

	lines, err := discoverLines(*chipName)
	if err != nil {
		dlog.Err("discovering GPIO lines on %s: %v", *chipName, err)
		os.Exit(1)
	}
	dlog.Info("udev lists %d gpio device(s) named %s", lines, *chipName)

	sess, err := buildSession(doc)
	if err != nil {
		dlog.Err("building decoder stack: %v", err)
		os.Exit(1)
	}
	sess.SetSampleRate(*rateHz)
	sess.AddCallback(output.Annotation, func(reg output.Registration, payload any) {
		ann := payload.(output.Annotation)
		dlog.Info("[%s] %d-%d %s", reg.OutputID, ann.StartSample, ann.EndSample, firstOrEmpty(ann.Strings))
	})

	if err := sess.Start(); err != nil {
		dlog.Err("starting session: %v", err)
		os.Exit(1)
	}
	defer sess.Destroy()

	if !*noAdvertise {
		stop, err := advertise(*serviceName)
		if err != nil {
			dlog.Warn("mDNS advertisement disabled: %v", err)
		} else {
			defer stop()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := capture(ctx, *chipName, sess, *rateHz, int(*chunkLen)); err != nil {
		dlog.Err("capture: %v", err)
		os.Exit(1)
	}
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// discoverLines enumerates gpiochip devices via udev, purely to report
// what's available before opening the one the user named; it does not
// change which chip is actually sampled.
func discoverLines(chipName string) (int, error) {
	u := udev.Udev{}
	enumerate := u.NewEnumerate()
	if err := enumerate.AddMatchSubsystem("gpio"); err != nil {
		return 0, fmt.Errorf("udev: matching gpio subsystem: %w", err)
	}
	devices, err := enumerate.Devices()
	if err != nil {
		return 0, fmt.Errorf("udev: enumerating devices: %w", err)
	}
	found := 0
	for _, d := range devices {
		if d.Sysname() == chipName {
			found++
		}
	}
	return found, nil
}

// capture opens the named chip, samples every requested line at rateHz,
// and feeds fixed-size chunks into the session until ctx is canceled.
func capture(ctx context.Context, chipName string, sess *session.Session, rateHz uint64, chunkSamples int) error {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return fmt.Errorf("opening %s: %w", chipName, err)
	}
	defer chip.Close()

	numLines := chip.Lines
	if numLines <= 0 || numLines > 32 {
		numLines = 8
	}

	offsets := make([]int, numLines)
	for i := range offsets {
		offsets[i] = i
	}
	req, err := chip.RequestLines(offsets, gpiocdev.AsInput)
	if err != nil {
		return fmt.Errorf("requesting lines: %w", err)
	}
	defer req.Close()

	period := time.Second / time.Duration(rateHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buffers := make([][]uint8, numLines)
	for i := range buffers {
		buffers[i] = make([]uint8, 0, chunkSamples)
	}
	var absStart uint64

	values := make([]int, numLines)
	flush := func() error {
		if len(buffers[0]) == 0 {
			return nil
		}
		n := uint64(len(buffers[0]))
		channels := make([]sample.ChannelData, numLines)
		for i, buf := range buffers {
			channels[i] = sample.ChannelData{Bits: sample.Pack(buf)}
			buffers[i] = buffers[i][:0]
		}
		chunk := &sample.Chunk{AbsStart: absStart, AbsEnd: absStart + n, Channels: channels}
		absStart += n
		return sess.Send(chunk)
	}

	for {
		select {
		case <-ctx.Done():
			if err := flush(); err != nil {
				return err
			}
			return sess.SendEOF()
		case <-ticker.C:
			if err := req.Values(values); err != nil {
				return fmt.Errorf("reading line values: %w", err)
			}
			for i, v := range values {
				buffers[i] = append(buffers[i], uint8(v))
			}
			if len(buffers[0]) >= chunkSamples {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
}

// advertise publishes this capture host over mDNS/DNS-SD, the same
// brutella/dnssd pattern the teacher's own dns_sd_announce uses for
// its KISS-over-TCP service.
func advertise(name string) (stop func(), err error) {
	if name == "" {
		name, _ = os.Hostname()
	}
	cfg := dnssd.Config{
		Name: name,
		Type: serviceType,
		Port: 0,
	}
	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("dnssd: creating service: %w", err)
	}
	responder, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("dnssd: creating responder: %w", err)
	}
	if _, err := responder.Add(svc); err != nil {
		return nil, fmt.Errorf("dnssd: adding service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := responder.Respond(ctx); err != nil && ctx.Err() == nil {
			dlog.Warn("dnssd responder: %v", err)
		}
	}()
	dlog.Info("advertising %q as %s", name, serviceType)
	return cancel, nil
}
