package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/golang/glog"
	"github.com/pkg/profile"

	"github.com/55utah/fc-simulator/nes"
	"github.com/55utah/fc-simulator/ui"
)

var (
	romPath   = flag.String("rom", "", "path to an iNES ROM, may also be given as the first argument")
	frames    = flag.Int("frames", 600, "frames to run, 0 runs until interrupted")
	pngDir    = flag.String("png", "", "directory to write every frame to as PNG")
	scale     = flag.Int("scale", 1, "PNG scale factor")
	wavPath   = flag.String("wav", "", "record audio to this WAV file")
	liveAudio = flag.Bool("audio", false, "play audio on the default output device")
	rate      = flag.Float64("rate", nes.DefaultSampleRate, "audio sample rate for -wav")
	holds     = flag.String("hold", "", "buttons to hold, e.g. start@60-70,a@100-130")
	savePath  = flag.String("save", "", "write a snapshot here when the run ends")
	loadPath  = flag.String("load", "", "restore this snapshot before running")
	debug     = flag.String("debug", "", "debug views to dump with -png: patterns,nametables,palettes")
	palette   = flag.Int("palette", 0, "palette (0-7) the debug views are drawn with")
	prof      = flag.String("profile", "", "write a cpu or mem profile to the working directory")
	stats     = flag.String("statsview", "", "serve runtime charts on this address, e.g. localhost:18066")
)

func parseDebug(list string) (nes.DebugFeatures, error) {
	features := nes.DebugFeatures{Palette: *palette}
	for _, name := range strings.Split(list, ",") {
		switch strings.TrimSpace(name) {
		case "":
		case "patterns":
			features.PatternTables = true
		case "nametables":
			features.Nametables = true
		case "palettes":
			features.Palettes = true
		default:
			return features, fmt.Errorf("unknown debug view %q", name)
		}
	}
	return features, nil
}

func startProfile(kind string) interface{ Stop() } {
	switch kind {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	}
	glog.Exitf("unknown profile %q, want cpu or mem", kind)
	return nil
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if *romPath == "" && flag.NArg() > 0 {
		*romPath = flag.Arg(0)
	}
	if *romPath == "" {
		glog.Exit("need a rom path, see -help")
	}
	if *prof != "" {
		defer startProfile(*prof).Stop()
	}
	if *stats != "" {
		viewer.SetConfiguration(viewer.WithAddr(*stats))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
		glog.Infof("stats server available at http://%s/debug/statsview", *stats)
	}
	if err := run(); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run() error {
	debugFeatures, err := parseDebug(*debug)
	if err != nil {
		return err
	}
	script, err := ui.ParseHoldScript(*holds)
	if err != nil {
		return err
	}

	var runner *ui.Runner
	config := nes.Config{
		Controller1: func() byte { return script.Buttons(runner.Frame()) },
		SampleRate:  *rate,
		Debug:       debugFeatures,
	}

	var audio *ui.Audio
	var recorder *ui.WavRecorder
	var sinks []func(float32)
	if *liveAudio {
		audio = ui.NewAudio()
		deviceRate, err := audio.Start()
		if err != nil {
			return err
		}
		defer audio.Stop()
		config.SampleRate = deviceRate
		sinks = append(sinks, audio.Sink)
	}
	if *wavPath != "" {
		recorder = ui.NewWavRecorder(*wavPath, config.SampleRate)
		sinks = append(sinks, recorder.Sink)
	}
	switch len(sinks) {
	case 1:
		config.AudioSink = sinks[0]
	case 2:
		config.AudioSink = func(s float32) {
			sinks[0](s)
			sinks[1](s)
		}
	}

	console, err := nes.NewConsoleFromFile(*romPath, config)
	if err != nil {
		return err
	}
	if *loadPath != "" {
		if err := loadState(console, *loadPath); err != nil {
			return err
		}
	}

	var writer *ui.FrameWriter
	if *pngDir != "" {
		if writer, err = ui.NewFrameWriter(*pngDir, *scale); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner = ui.NewRunner(console, 4)
	done := runner.Start(ctx, *frames)
	for frame := range runner.Frames {
		if writer == nil {
			continue
		}
		if err := writer.WriteFrame(frame); err != nil {
			stop()
			// drain so the worker can exit
			for range runner.Frames {
			}
			<-done
			return err
		}
	}
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	glog.Infof("ran %d frames", runner.Frame())

	if recorder != nil {
		if err := recorder.Close(); err != nil {
			return err
		}
		glog.Infof("wrote %d samples to %s", recorder.Len(), *wavPath)
	}
	if *savePath != "" {
		return saveState(console, *savePath)
	}
	return nil
}

func loadState(console *nes.Console, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := console.LoadState(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func saveState(console *nes.Console, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := console.SaveState(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
