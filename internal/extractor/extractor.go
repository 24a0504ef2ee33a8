// Package extractor is the boundary to per-format attachment text
// extraction. Plain-text formats are handled inline; binary formats
// report no text, which is an expected outcome rather than a failure.
package extractor

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var extensionToMime = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".txt":  "text/plain",
	".text": "text/plain",
	".csv":  "text/csv",
}

var textExtensions = map[string]struct{}{
	".txt":  {},
	".text": {},
	".csv":  {},
}

// MimeTypeFor maps a filename extension to a MIME type,
// falling back to application/octet-stream.
func MimeTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mime, ok := extensionToMime[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// CanExtract reports whether text extraction is supported for this
// attachment type.
func CanExtract(filename, mimeType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := textExtensions[ext]; ok {
		return true
	}
	return strings.HasPrefix(mimeType, "text/")
}

// Extract pulls text out of attachment bytes. The second return value is
// false when the format is unsupported or extraction yields nothing;
// callers store the attachment without text in that case.
func Extract(filename, mimeType string, content []byte) (string, bool) {
	if len(content) == 0 {
		return "", false
	}
	if !CanExtract(filename, mimeType) {
		return "", false
	}

	text := decodeText(content)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// decodeText interprets bytes as UTF-8, dropping invalid sequences and
// NUL bytes that sneak into text attachments from legacy archives.
func decodeText(content []byte) string {
	if utf8.Valid(content) {
		return strings.ReplaceAll(string(content), "\x00", "")
	}
	var b strings.Builder
	b.Grow(len(content))
	for len(content) > 0 {
		r, size := utf8.DecodeRune(content)
		if r != utf8.RuneError || size > 1 {
			if r != 0 {
				b.WriteRune(r)
			}
		}
		content = content[size:]
	}
	return b.String()
}
