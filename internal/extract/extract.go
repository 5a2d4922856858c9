package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/text/encoding/charmap"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOC  = "application/msword"
	mimeTXT  = "text/plain"
)

var (
	// ErrUnsupportedFormat indicates the payload is not a PDF, DOCX, or TXT document.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtractionFailed indicates a supported document could not be parsed.
	ErrExtractionFailed = errors.New("text extraction failed")
)

// ExtractTextFromBytes extracts text from an in-memory payload.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOCX).
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := normalizeMimeType(mimeType, fileName, data)
	switch normalized {
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractDOCX(data)
	case mimeTXT:
		return extractTXT(data)
	case mimeDOC:
		return "", fmt.Errorf("%w: legacy .doc is not supported, convert to .docx", ErrUnsupportedFormat)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, normalized)
	}
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrExtractionFailed, err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrExtractionFailed, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: pdf: %v", ErrExtractionFailed, err)
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("%w: pdf: no extractable text", ErrExtractionFailed)
	}
	return text, nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: docx: empty payload", ErrExtractionFailed)
	}
	rd, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: docx: %v", ErrExtractionFailed, err)
	}
	defer rd.Close()

	text := stripDocxXML(rd.Editable().GetContent())
	if text == "" {
		return "", fmt.Errorf("%w: docx: no extractable text", ErrExtractionFailed)
	}
	return text, nil
}

func extractTXT(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", fmt.Errorf("%w: txt: empty document", ErrExtractionFailed)
		}
		return text, nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: txt: %v", ErrExtractionFailed, err)
	}
	text := strings.TrimSpace(string(decoded))
	if text == "" {
		return "", fmt.Errorf("%w: txt: empty document", ErrExtractionFailed)
	}
	return text, nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return strings.TrimSpace(raw)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if last := buf.Len(); last > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case "", "application/octet-stream":
		if mapped := mapExtension(fileName); mapped != "" {
			return mapped
		}
		return clean
	case "application/zip":
		if hasZipEntry(data, "word/document.xml") {
			return mimeDOCX
		}
		if strings.EqualFold(filepath.Ext(fileName), ".docx") {
			return mimeDOCX
		}
		return clean
	default:
		return clean
	}
}

func mapExtension(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".doc":
		return mimeDOC
	case ".txt":
		return mimeTXT
	default:
		return ""
	}
}

func hasZipEntry(data []byte, entry string) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == entry {
			return true
		}
	}
	return false
}
