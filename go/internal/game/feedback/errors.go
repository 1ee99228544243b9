package feedback

import "errors"

// ErrAudioUnavailable is returned when the sound backend cannot be used.
var ErrAudioUnavailable = errors.New("audio backend unavailable")

// ErrUnknownCue is returned when a cue has no sound file mapped.
var ErrUnknownCue = errors.New("unknown cue")
