package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// PDFStrategy extracts the plain text layer of a PDF.
type PDFStrategy struct{}

// Extract implements Strategy.
func (PDFStrategy) Extract(path string) (text string, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return "", readError(path, statErr)
	}

	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = nferrors.New(nferrors.ErrCodeFileRead,
				fmt.Sprintf("malformed pdf %s: %v", path, r), nil).WithDetail("path", path)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", readError(path, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", readError(path, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", readError(path, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
