package wire

import "errors"

var (
	ErrTruncated   = errors.New("truncated input")
	ErrRange       = errors.New("value out of range")
	ErrInvalidUTF8 = errors.New("invalid utf-8 string")
	ErrInvalidBool = errors.New("invalid bool byte")
)
