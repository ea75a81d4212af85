package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ishitcode/hire/internal/interview"
)

// MaxSize bounds uploaded resume files.
const MaxSize = 10 << 20

var pdfMagic = []byte("%PDF-")

// ExtractText returns the plain text of a PDF document.
func ExtractText(r io.Reader) (text string, err error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	if len(data) == 0 {
		return "", interview.WrapError(interview.ErrInvalidInput, "extract resume text", errors.New("file is empty"))
	}
	if len(data) > MaxSize {
		return "", interview.WrapError(interview.ErrInvalidInput, "extract resume text", fmt.Errorf("file exceeds %d bytes", MaxSize))
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return "", interview.WrapError(interview.ErrInvalidInput, "extract resume text", errors.New("file is not a pdf"))
	}

	// The parser panics on some malformed documents.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = interview.WrapError(interview.ErrInvalidInput, "extract resume text", fmt.Errorf("malformed pdf: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", interview.WrapError(interview.ErrInvalidInput, "open pdf", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", interview.WrapError(interview.ErrInvalidInput, "read pdf text", err)
	}

	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
