package maplink

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned for empty or whitespace-only input.
	ErrEmptyInput = errors.New("map link is empty")
	// ErrUnparseable is returned when no known link shape matched.
	ErrUnparseable = errors.New("map link has no recognizable coordinates")
	// ErrShortenedLink is returned for short share links that carry no coordinates.
	ErrShortenedLink = fmt.Errorf("%w: shortened share link", ErrUnparseable)
	// ErrOutOfRegion is returned when coordinates fall outside the configured bounds.
	ErrOutOfRegion = errors.New("coordinates are outside the supported region")
)

const shareHint = "Open the place in Google Maps, tap Share, and paste the copied link (or paste coordinates like -6.2088,106.8456)."

// Reason maps a parse error to the message shown next to the input field.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "Paste a Google Maps link or a latitude,longitude pair."
	case errors.Is(err, ErrShortenedLink):
		return "Shortened links do not contain coordinates. " + shareHint
	case errors.Is(err, ErrUnparseable):
		return "Could not read coordinates from this link. " + shareHint
	case errors.Is(err, ErrOutOfRegion):
		return "The location is outside Indonesia. Check the link and try again."
	default:
		return err.Error()
	}
}

// Code returns a stable machine-readable error code for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return "RELAWAN_EMPTY_INPUT"
	case errors.Is(err, ErrShortenedLink):
		return "RELAWAN_SHORTENED_LINK"
	case errors.Is(err, ErrUnparseable):
		return "RELAWAN_UNPARSEABLE_LINK"
	case errors.Is(err, ErrOutOfRegion):
		return "RELAWAN_OUT_OF_REGION"
	default:
		return "RELAWAN_INVALID_ARGUMENT"
	}
}
