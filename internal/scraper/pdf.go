package scraper

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"mzohaib/bankdealworker/logger"
)

// pdfToText extracts page text from raw PDF bytes. Bank PDFs are frequently
// malformed and the parser can panic on them, so failures degrade to "".
func pdfToText(data []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("PDF text extraction panicked: %v", r)
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.Warn("Failed to parse PDF content: %v", err)
		return ""
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return sb.String()
}
