package extract

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// sniffLen is how many leading bytes are checked for NUL.
const sniffLen = 1024

// Bytes that cp1252 leaves undefined.
var cp1252Undefined = []byte{0x81, 0x8d, 0x8f, 0x90, 0x9d}

// TextStrategy reads text files, rejecting binaries and decoding
// non-UTF-8 content as cp1252 or latin-1.
type TextStrategy struct{}

// Extract implements Strategy.
func (TextStrategy) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", readError(path, err)
	}
	if IsBinary(data) {
		return "", nferrors.New(nferrors.ErrCodeFileRead,
			fmt.Sprintf("binary file: %s", path), nil).WithDetail("path", path)
	}
	return Decode(data)
}

// IsBinary reports whether data contains a NUL byte in its first 1024 bytes.
func IsBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), sniffLen)], 0) >= 0
}

// Decode converts data to a UTF-8 string: as-is when valid UTF-8, else
// cp1252 when every byte is defined there, else latin-1.
func Decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	dec := charmap.ISO8859_1.NewDecoder()
	if !slices.ContainsFunc(data, func(b byte) bool { return slices.Contains(cp1252Undefined, b) }) {
		dec = charmap.Windows1252.NewDecoder()
	}
	out, err := dec.Bytes(data)
	if err != nil {
		return "", nferrors.New(nferrors.ErrCodeFileRead, "failed to decode text", err)
	}
	return string(out), nil
}

func readError(path string, err error) error {
	if os.IsNotExist(err) {
		return nferrors.New(nferrors.ErrCodeFileNotFound,
			fmt.Sprintf("file not found: %s", path), err).WithDetail("path", path)
	}
	return nferrors.New(nferrors.ErrCodeFileRead,
		fmt.Sprintf("failed to read %s", path), err).WithDetail("path", path)
}
