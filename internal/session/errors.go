package session

import "fmt"

// DeviceAcquisitionError means the microphone or output device was
// unavailable or permission was denied at session start. Fatal, no retry.
type DeviceAcquisitionError struct {
	Err error
}

func (e *DeviceAcquisitionError) Error() string {
	return fmt.Sprintf("device acquisition failed: %v", e.Err)
}

func (e *DeviceAcquisitionError) Unwrap() error { return e.Err }

// TransportError is a mid-session network or protocol failure. The session
// transitions to Closed; there is no automatic reconnect.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("live transport failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CaptureError means the input device disappeared mid-session. Fatal, same
// path as TransportError.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("audio capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
