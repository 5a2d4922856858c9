package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func makeDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`

	contentTypes := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`</Types>`
	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypes},
		{"word/_rels/document.xml.rels", rels},
		{"word/document.xml", document},
	}
	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", entry.name, err)
		}
		if _, err := w.Write([]byte(entry.content)); err != nil {
			t.Fatalf("write %s: %v", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextFromBytes_Docx(t *testing.T) {
	data := makeDocx(t, "Backend engineer", "Go and Postgres")

	text, err := ExtractTextFromBytes(context.Background(), data, mimeDOCX, "resume.docx")
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	if !strings.Contains(text, "Backend engineer") {
		t.Fatalf("expected paragraph text, got %q", text)
	}
	if !strings.Contains(text, "Go and Postgres") {
		t.Fatalf("expected second paragraph, got %q", text)
	}
}

func TestExtractTextFromBytes_ZipDocxNormalizes(t *testing.T) {
	data := makeDocx(t, "Shipping resumes")

	text, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "resume.docx")
	if err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
	if !strings.Contains(text, "Shipping resumes") {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = ExtractTextFromBytes(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractTextFromBytes_TXT(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "utf8", data: []byte("plain resume text"), want: "plain resume text"},
		{name: "utf8 bom", data: append([]byte{0xEF, 0xBB, 0xBF}, []byte("bom resume")...), want: "bom resume"},
		{name: "windows-1252", data: []byte{'c', 'a', 'f', 0xE9}, want: "café"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTextFromBytes(context.Background(), tt.data, "text/plain; charset=utf-8", "resume.txt")
			if err != nil {
				t.Fatalf("extract txt: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextFromBytes_EmptyTXTFails(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte("   \n"), "text/plain", "resume.txt")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestExtractTextFromBytes_LegacyDocRejected(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte("old format"), "application/msword", "resume.doc")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractTextFromBytes_CorruptPDFFails(t *testing.T) {
	_, err := ExtractTextFromBytes(context.Background(), []byte("%PDF-1.4 not really"), "application/pdf", "resume.pdf")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestExtractTextFromBytes_OctetStreamUsesExtension(t *testing.T) {
	got, err := ExtractTextFromBytes(context.Background(), []byte("resume text"), "application/octet-stream", "resume.txt")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "resume text" {
		t.Fatalf("got %q", got)
	}
}
