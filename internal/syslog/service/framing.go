package service

import (
	"bufio"
	"bytes"
	"errors"
	"strconv"
)

// ErrFrameTooLarge is returned when an octet-counted frame announces more
// than the configured maximum.
var ErrFrameTooLarge = errors.New("syslog frame exceeds maximum size")

// maxLengthDigits bounds the MSG-LEN prefix of an octet-counted frame.
const maxLengthDigits = 9

// SplitFrames returns a bufio.SplitFunc for syslog streams. Each frame may
// use octet counting (RFC 6587 "LEN SP MSG") or be terminated by LF; both
// styles can be mixed on one connection. Empty lines yield empty tokens.
func SplitFrames(maxSize int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if len(data) == 0 {
			return 0, nil, nil
		}

		if data[0] >= '1' && data[0] <= '9' {
			advance, token, more, err := splitOctetCounted(data, atEOF, maxSize)
			if err != nil || advance > 0 || more {
				return advance, token, err
			}
		}

		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			return i + 1, bytes.TrimSuffix(data[:i], []byte{'\r'}), nil
		}
		if atEOF {
			return len(data), bytes.TrimSuffix(data, []byte{'\r'}), nil
		}
		if len(data) > maxSize {
			return 0, nil, ErrFrameTooLarge
		}
		return 0, nil, nil
	}
}

// splitOctetCounted handles a frame starting with a digit. more reports that
// the prefix is still ambiguous and more data is needed; a zero advance with
// more false means the frame is not octet counted.
func splitOctetCounted(data []byte, atEOF bool, maxSize int) (int, []byte, bool, error) {
	digits := 0
	for digits < len(data) && digits <= maxLengthDigits && data[digits] >= '0' && data[digits] <= '9' {
		digits++
	}
	if digits > maxLengthDigits {
		return 0, nil, false, nil
	}
	if digits == len(data) {
		return 0, nil, !atEOF, nil
	}
	if data[digits] != ' ' {
		return 0, nil, false, nil
	}

	n, err := strconv.Atoi(string(data[:digits]))
	if err != nil {
		return 0, nil, false, nil
	}
	if n > maxSize {
		return 0, nil, false, ErrFrameTooLarge
	}

	end := digits + 1 + n
	if len(data) >= end {
		return end, data[digits+1 : end], false, nil
	}
	if atEOF {
		return len(data), data[digits+1:], false, nil
	}
	return 0, nil, true, nil
}
