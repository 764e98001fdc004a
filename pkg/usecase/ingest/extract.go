package ingest

import (
	"bytes"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
)

// extractText returns the plain text of a document based on its extension
func extractText(name string, data []byte) (string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return extractPDF(data)
	default:
		if !utf8.Valid(data) {
			return "", goerr.New("document is not valid UTF-8", goerr.V("name", name))
		}
		return string(data), nil
	}
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to open pdf")
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", goerr.Wrap(err, "failed to extract pdf text")
	}

	text, err := io.ReadAll(plain)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read pdf text")
	}

	return string(text), nil
}
