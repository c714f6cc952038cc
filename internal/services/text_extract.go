package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	domainerrs "github.com/yungbote/luminar-backend/internal/pkg/errors"
)

const (
	MimePDF     = "application/pdf"
	MimeDOCX    = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeMSWord  = "application/msword"
	maxXMLBytes = 64 << 20
)

// TextExtractor pulls plain text out of an uploaded document.
type TextExtractor interface {
	Extract(fileName, mimeType string, data []byte) (string, error)
	Supports(mimeType string) bool
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor { return textExtractor{} }

func (textExtractor) Supports(mimeType string) bool {
	switch normalizeMime(mimeType) {
	case MimePDF, MimeDOCX, MimeMSWord:
		return true
	}
	return false
}

// Extract dispatches on the declared MIME type, then checks the bytes match
// it. Anything else is ErrUnsupportedType.
func (te textExtractor) Extract(fileName, mimeType string, data []byte) (string, error) {
	mt := normalizeMime(mimeType)
	if !te.Supports(mt) {
		return "", fmt.Errorf("%w: %s", domainerrs.ErrUnsupportedType, mimeType)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file %q", domainerrs.ErrInvalidArgument, fileName)
	}
	switch mt {
	case MimePDF:
		if !isPDF(data) {
			return "", fmt.Errorf("%w: %q claims pdf but has no %%PDF header (head=%s)", domainerrs.ErrInvalidArgument, fileName, firstBytesHex(data, 8))
		}
		return extractPDF(data)
	default:
		if !isZip(data) {
			// Legacy binary .doc files are not zip containers.
			return "", fmt.Errorf("%w: %q is not a .docx document", domainerrs.ErrUnsupportedType, fileName)
		}
		return extractDOCX(data)
	}
}

func normalizeMime(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func firstBytesHex(b []byte, n int) string {
	n = min(len(b), n)
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, hexdigits[b[i]>>4], hexdigits[b[i]&0x0f])
	}
	return string(out)
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return collapseWhitespace(string(b)), nil
}

// extractDOCX gathers the <w:t> runs of word/document.xml, one line per
// paragraph.
func extractDOCX(zipBytes []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", fmt.Errorf("docx open: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("%w: zip has no word/document.xml", domainerrs.ErrUnsupportedType)
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxXMLBytes))
	if err != nil {
		return "", fmt.Errorf("docx read: %w", err)
	}

	dec := xml.NewDecoder(bytes.NewReader(b))
	var paragraphs []string
	var cur strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				var v string
				_ = dec.DecodeElement(&v, &el)
				cur.WriteString(v)
			case "tab":
				cur.WriteString(" ")
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				if line := collapseWhitespace(cur.String()); line != "" {
					paragraphs = append(paragraphs, line)
				}
				cur.Reset()
			}
		}
	}
	if line := collapseWhitespace(cur.String()); line != "" {
		paragraphs = append(paragraphs, line)
	}
	return strings.Join(paragraphs, "\n"), nil
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
