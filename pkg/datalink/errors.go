package datalink

import "errors"

var (
	ErrInvalidSize               = errors.New("datalink: invalid transfer size")
	ErrTransportFailure          = errors.New("datalink: transport failure")
	ErrShortFrame                = errors.New("datalink: short frame")
	ErrTruncatedPayload          = errors.New("datalink: truncated payload")
	ErrLengthOverflow            = errors.New("datalink: length overflow")
	ErrChecksumMismatch          = errors.New("datalink: checksum mismatch")
	ErrUnexpectedDirection       = errors.New("datalink: unexpected direction")
	ErrDeviceError               = errors.New("datalink: device reported error")
	ErrUnexpectedResponsePayload = errors.New("datalink: unexpected response payload")
)
