// Package config implements the CLI flag surface and configuration-file
// loader described in spec §6: default values are overridden by a config
// file, which is in turn overridden by any flag the user actually passed
// on the command line.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/vzahradnik/sndenhance/internal/sndenhance"
)

// Options is the fully-merged configuration for one run.
type Options struct {
	Input           string
	Output          string
	ConfigPath      string
	FrameDurationMS int
	OverlapPct      int
	FFTSize         int
	Downmix         bool
	Window          string
	NoiseEst        string
	Enhancer        string
	Verbose         bool
	Version         bool
	Help            bool
}

// Defaults returns the engine's baseline configuration before any config
// file or flag is applied.
func Defaults() Options {
	return Options{
		FrameDurationMS: 20,
		OverlapPct:      50,
		FFTSize:         0,
		Window:          "hamming",
		NoiseEst:        "vad",
		Enhancer:        "specsub",
	}
}

// FlagSet builds the pflag.FlagSet for the CLI surface of spec §6, seeded
// with opts as the flags' defaults.
func FlagSet(opts *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("sndenhance", pflag.ContinueOnError)
	fs.StringVar(&opts.Input, "input", opts.Input, "input audio path (mandatory)")
	fs.StringVar(&opts.Output, "output", opts.Output, "output audio path (default: <stem>_enhanced<ext>)")
	fs.StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "configuration file path")
	fs.IntVar(&opts.FrameDurationMS, "frame-dur", opts.FrameDurationMS, "analysis frame length in ms, [10,30]")
	fs.IntVar(&opts.OverlapPct, "overlap", opts.OverlapPct, "frame overlap percentage, [0,99]")
	fs.IntVar(&opts.FFTSize, "fft-size", opts.FFTSize, "fft size, [0,2048]; 0 means auto")
	fs.BoolVar(&opts.Downmix, "downmix", opts.Downmix, "mix multi-channel input to mono")
	fs.StringVar(&opts.Window, "window", opts.Window, "hamming|hann|blackman|bartlett|triangular|rectangular|nuttall")
	fs.StringVar(&opts.NoiseEst, "noise-est", opts.NoiseEst, "vad|hirsch|doblinger|mcra|mcra2")
	fs.StringVar(&opts.Enhancer, "snd-enhance", opts.Enhancer, "specsub|mmse|wiener-as|wiener-iter|residual")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose, "emit progress and summary")
	fs.BoolVar(&opts.Version, "version", opts.Version, "print version and exit")
	fs.BoolVarP(&opts.Help, "help", "h", opts.Help, "print usage and exit")
	return fs
}

// fileKeys is the set of configuration-file keys ApplyFile recognizes.
var fileKeys = map[string]bool{
	"input_file": true, "output_file": true, "frame_duration": true,
	"overlap": true, "fft_size": true, "window": true,
	"noise_estimation": true, "sound_enhancement": true,
	"downmix": true, "verbose": true,
}

// ParseFile reads a line-oriented configuration file: "#", ";", or "//"
// start a comment, blank lines are ignored, and every meaningful line is
// "<key> <value>" split on the first run of whitespace. Unknown keys are
// reported to diagnostics but do not abort the parse.
func ParseFile(path string) (map[string]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", sndenhance.ErrIoOpen, err)
	}
	defer f.Close()

	values := make(map[string]string)
	var warnings []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "//") {
			continue
		}

		key, value := line, ""
		if i := strings.IndexAny(line, " \t"); i >= 0 {
			key = line[:i]
			value = strings.TrimSpace(line[i+1:])
		}

		if !fileKeys[key] {
			warnings = append(warnings, fmt.Sprintf("unknown configuration key %q ignored", key))
			continue
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, warnings, fmt.Errorf("%w: %v", sndenhance.ErrIoRead, err)
	}

	return values, warnings, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "true":
		return true
	default:
		return false
	}
}

// ApplyFile merges config-file values into opts. It must be called before
// the flag set parses the command line, so that any flag the user actually
// passes takes precedence over the file (spec §6 scenario 5).
func ApplyFile(opts *Options, values map[string]string) error {
	if v, ok := values["input_file"]; ok {
		opts.Input = v
	}
	if v, ok := values["output_file"]; ok {
		opts.Output = v
	}
	if v, ok := values["frame_duration"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: frame_duration %q is not an integer", sndenhance.ErrInvalidConfig, v)
		}
		opts.FrameDurationMS = n
	}
	if v, ok := values["overlap"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: overlap %q is not an integer", sndenhance.ErrInvalidConfig, v)
		}
		opts.OverlapPct = n
	}
	if v, ok := values["fft_size"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: fft_size %q is not an integer", sndenhance.ErrInvalidConfig, v)
		}
		opts.FFTSize = n
	}
	if v, ok := values["window"]; ok {
		opts.Window = v
	}
	if v, ok := values["noise_estimation"]; ok {
		opts.NoiseEst = v
	}
	if v, ok := values["sound_enhancement"]; ok {
		opts.Enhancer = v
	}
	if v, ok := values["downmix"]; ok {
		opts.Downmix = parseBool(v)
	}
	if v, ok := values["verbose"]; ok {
		opts.Verbose = parseBool(v)
	}
	return nil
}

// Validate applies the InvalidConfig rules spec §7 assigns to the CLI
// boundary: input==output is always rejected.
func (o Options) Validate() error {
	if o.Input == "" {
		return fmt.Errorf("%w: --input is mandatory", sndenhance.ErrInvalidConfig)
	}
	if o.Input == o.Output {
		return fmt.Errorf("%w: input and output paths must differ", sndenhance.ErrInvalidConfig)
	}
	return nil
}

// DeriveOutputPath applies the default "<stem>_enhanced<ext>" naming rule
// when the user did not supply --output.
func DeriveOutputPath(input string) string {
	ext := ""
	stem := input
	if i := strings.LastIndexByte(input, '.'); i >= 0 {
		ext = input[i:]
		stem = input[:i]
	}
	return stem + "_enhanced" + ext
}
