// Package sndenhance holds the error taxonomy shared by every layer of the
// enhancement engine, so the CLI and HTTP front ends can map failures to
// exit codes / status codes without inspecting error strings.
package sndenhance

import "errors"

// Fatal conditions (spec §7): the caller must abort with a non-zero exit.
var (
	ErrInvalidConfig = errors.New("sndenhance: invalid configuration")
	ErrIoOpen        = errors.New("sndenhance: failed to open audio container")
	ErrIoRead        = errors.New("sndenhance: failed to read audio container")
	ErrIoWrite       = errors.New("sndenhance: failed to write audio container")
	ErrEmptyStream   = errors.New("sndenhance: input stream contains zero samples")
	ErrAllocFailure  = errors.New("sndenhance: buffer allocation failed")
)

// ErrUnknownName marks a non-fatal condition (spec §7): an unrecognized
// window/estimator/enhancer name. Callers log it in verbose mode and
// substitute the package default; it never aborts a run.
var ErrUnknownName = errors.New("sndenhance: unrecognized algorithm name, substituting default")
