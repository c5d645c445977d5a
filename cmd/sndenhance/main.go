// Command sndenhance is the batch CLI front end: it reads a WAV file,
// drives the STFT/overlap-add engine over it with the chosen noise
// estimator and suppressor, and writes the enhanced result back out.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/vzahradnik/sndenhance/internal/audio"
	"github.com/vzahradnik/sndenhance/internal/config"
	"github.com/vzahradnik/sndenhance/internal/enhance"
	"github.com/vzahradnik/sndenhance/internal/noiseest"
	"github.com/vzahradnik/sndenhance/internal/sndenhance"
	"github.com/vzahradnik/sndenhance/internal/stft"
	"github.com/vzahradnik/sndenhance/internal/window"
)

// version is stamped by the release build; "dev" otherwise.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts := config.Defaults()
	fs := config.FlagSet(&opts)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "sndenhance: single-channel speech enhancement")
		fmt.Fprintln(os.Stderr, fs.FlagUsages())
	}

	// Pre-scan for --config so a file's values can be applied before the
	// real flag parse, which must win (spec §6 scenario 5).
	preScan := config.Defaults()
	preScanFS := config.FlagSet(&preScan)
	preScanFS.ParseErrorsWhitelist.UnknownFlags = true
	_ = preScanFS.Parse(args)

	if preScan.ConfigPath != "" {
		values, warnings, err := config.ParseFile(preScan.ConfigPath)
		if err != nil {
			log.Printf("error: %v", err)
			return 1
		}
		for _, w := range warnings {
			if preScan.Verbose {
				log.Printf("warning: %s", w)
			}
		}
		if err := config.ApplyFile(&opts, values); err != nil {
			log.Printf("error: %v", err)
			return 1
		}
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	if opts.Help {
		fs.Usage()
		return 0
	}
	if opts.Version {
		fmt.Println("sndenhance version", version)
		return 0
	}

	if opts.Output == "" && opts.Input != "" {
		opts.Output = config.DeriveOutputPath(opts.Input)
	}

	if err := opts.Validate(); err != nil {
		log.Printf("error: %v", err)
		return 1
	}

	if err := enhanceFile(opts); err != nil {
		log.Printf("error: %v", err)
		return 1
	}
	return 0
}

func enhanceFile(opts config.Options) error {
	start := time.Now()

	in, err := audio.Open(opts.Input)
	if err != nil {
		return err
	}

	if opts.Downmix {
		in.Downmix()
	}

	winKind := window.Parse(opts.Window)
	noiseKind := noiseest.Parse(opts.NoiseEst)
	enhKind := enhance.Parse(opts.Enhancer)
	warnUnknownNames(opts)

	engCfg := stft.EngineConfig{
		FrameDurationMS: opts.FrameDurationMS,
		FFTSize:         opts.FFTSize,
		OverlapPct:      opts.OverlapPct,
		Downmix:         opts.Downmix,
		Window:          winKind,
		NoiseEst:        noiseKind,
		Enhancer:        enhKind,
		Verbose:         opts.Verbose,
	}
	if err := engCfg.Validate(); err != nil {
		return err
	}

	params, err := stft.DeriveStreamParams(engCfg, in.SampleRate, in.Channels)
	if err != nil {
		return err
	}

	engine, err := stft.NewEngine(engCfg, params)
	if err != nil {
		return err
	}

	out, err := audio.Create(opts.Output, params.SampleRate, params.ChannelCount, audio.Tags{
		Title:    opts.Output,
		Comment:  "Enhanced audio signal",
		Software: "sndenhance",
	})
	if err != nil {
		return err
	}

	if opts.Verbose {
		log.Printf("sndenhance: window=%s noise-est=%s enhancer=%s frame=%dms overlap=%d%% fft=%d",
			winKind.Name(), noiseKind.Name(), enhKind.Name(),
			opts.FrameDurationMS, opts.OverlapPct, params.FFTSize)
	}

	if err := engine.Run(audio.NewReader(in), out); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if opts.Verbose {
		log.Printf("sndenhance: wrote %s (%d frames processed in %s)",
			opts.Output, engine.FramesProcessed, time.Since(start).Round(time.Millisecond))
	}

	return nil
}

// knownNames holds the valid selector strings from spec §6, used only to
// decide whether to log the UnknownName diagnostic; Parse in each package
// already substitutes the default regardless.
var knownNames = map[string]map[string]bool{
	"window":    {"hamming": true, "hann": true, "blackman": true, "bartlett": true, "triangular": true, "rectangular": true, "nuttall": true},
	"noise-est": {"vad": true, "hirsch": true, "doblinger": true, "mcra": true, "mcra2": true},
	"enhancer":  {"specsub": true, "mmse": true, "wiener-as": true, "wiener-iter": true, "residual": true},
}

func warnUnknownNames(opts config.Options) {
	if !opts.Verbose {
		return
	}
	check := func(flag, name string) {
		if name != "" && !knownNames[flag][name] {
			log.Printf("warning: %v: %q is not a recognized %s", sndenhance.ErrUnknownName, name, flag)
		}
	}
	check("window", opts.Window)
	check("noise-est", opts.NoiseEst)
	check("enhancer", opts.Enhancer)
}
