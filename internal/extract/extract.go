package extract

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"paperscreen/internal/util"

	"github.com/ledongthuc/pdf"
)

var urlPattern = regexp.MustCompile(`https?://\S+|www\.\S+`)

// Text pulls the plain text out of a paper PDF. URLs are stripped because
// they waste prompt tokens and occasionally derail the model's quoting.
func Text(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text := RemoveURLs(buf.String())
	text = util.SanitizeText(text)
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}

func RemoveURLs(s string) string {
	return urlPattern.ReplaceAllString(s, "")
}

// Version tags run records with the reader that produced their text.
func Version() string {
	return "ledongthuc/pdf"
}
