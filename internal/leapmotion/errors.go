package leapmotion

import "errors"

// ErrDeviceUnavailable indicates the device runtime could not be reached
// when the adapter opened its session.
var ErrDeviceUnavailable = errors.New("leap motion device runtime unavailable")

// ErrCallbackDataUnavailable indicates the frame for a callback could not be
// retrieved. The adapter never returns it; it is only logged.
var ErrCallbackDataUnavailable = errors.New("leap motion callback data unavailable")
