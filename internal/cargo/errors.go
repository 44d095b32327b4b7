package cargo

import (
	"errors"
	"fmt"
)

var (
	// ErrSpawn indicates that the cargo subprocess could not be started.
	ErrSpawn = errors.New("failed to run cargo")
	// ErrStreamDecode indicates a line on cargo's message stream that is not a JSON message.
	ErrStreamDecode = errors.New("failed to decode cargo message")
	// ErrBuildFailed indicates that cargo did not produce a usable artifact.
	ErrBuildFailed = errors.New("cargo build failed")
	// ErrNoArtifact indicates that cargo exited successfully without reporting an artifact.
	// It matches ErrBuildFailed under errors.Is.
	ErrNoArtifact = fmt.Errorf("%w: no compiler artifact was produced", ErrBuildFailed)
	// ErrMetadataDecode indicates that `cargo metadata` output could not be decoded.
	ErrMetadataDecode = errors.New("failed to decode cargo metadata")
)

// SpawnError carries the OS error returned when starting cargo.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrSpawn, e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Is reports ErrSpawn so callers can classify without a type assertion.
func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }

// StreamDecodeError reports the message line that failed to decode.
type StreamDecodeError struct {
	Line int
	Err  error
}

func (e *StreamDecodeError) Error() string {
	return fmt.Sprintf("%v (line %d): %v", ErrStreamDecode, e.Line, e.Err)
}

func (e *StreamDecodeError) Unwrap() error { return e.Err }

func (e *StreamDecodeError) Is(target error) bool { return target == ErrStreamDecode }

// BuildFailedError reports a non-zero cargo exit status.
type BuildFailedError struct {
	ExitCode int
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("%v (exit status %d)", ErrBuildFailed, e.ExitCode)
}

func (e *BuildFailedError) Is(target error) bool { return target == ErrBuildFailed }
