// Package core defines sentinel errors.
package core

import "errors"

var (
	// Capture setup errors
	ErrCaptureFileExists = errors.New("gamedig: capture file already exists")
	ErrWriterInstalled   = errors.New("gamedig: capture writer already installed")

	// Packet encoding errors
	ErrShortBuffer        = errors.New("gamedig: buffer too small for encoded packet")
	ErrMixedAddressFamily = errors.New("gamedig: local and remote address families differ")
	ErrUnsupportedProto   = errors.New("gamedig: unsupported protocol")

	// Query errors
	ErrMalformedResponse = errors.New("gamedig: malformed server response")
)
