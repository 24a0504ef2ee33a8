// Package source adapts message sources into the ingestion pipeline's
// ParsedEmail shape.
package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dandcg/emailarchive/internal/database/models"
	"github.com/emersion/go-message/mail"
	"github.com/k3a/html2text"

	_ "github.com/emersion/go-message/charset"
)

// ErrNoMessages indicates the directory holds no .eml files
var ErrNoMessages = errors.New("no .eml files found")

// DirSource reads .eml files from a directory in filename order
type DirSource struct {
	files []string
	index int
	owner string
}

// NewDirSource scans dir for .eml files. owner is the archive owner's
// address, used to mark messages as sent or received.
func NewDirSource(dir, owner string) (*DirSource, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".eml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoMessages
	}
	sort.Strings(files)
	return &DirSource{files: files, owner: strings.ToLower(owner)}, nil
}

// Next parses the next file. Parse errors are returned per file; the
// caller counts them and keeps going.
func (s *DirSource) Next() (*models.ParsedEmail, error) {
	if s.index >= len(s.files) {
		return nil, io.EOF
	}
	path := s.files[s.index]
	s.index++

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	parsed, err := s.parseMessage(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return parsed, nil
}

func (s *DirSource) parseMessage(raw []byte) (*models.ParsedEmail, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	header := mr.Header
	email := models.Email{}

	if date, err := header.Date(); err == nil {
		email.Date = date.UTC()
	}
	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		email.Sender = strings.ToLower(from[0].Address)
		email.SenderName = from[0].Name
	}

	var recipients []string
	for _, field := range []string{"To", "Cc"} {
		if addrs, err := header.AddressList(field); err == nil {
			for _, addr := range addrs {
				recipients = append(recipients, strings.ToLower(addr.Address))
			}
		}
	}
	email.SetRecipients(recipients)

	if subject, err := header.Subject(); err == nil {
		email.Subject = subject
	}
	if messageID, err := header.MessageID(); err == nil && messageID != "" {
		email.MessageID = messageID
	} else {
		// Malformed archives can lack a Message-ID; derive a stable one
		sum := sha256.Sum256(raw)
		email.MessageID = fmt.Sprintf("%s@archive.local", hex.EncodeToString(sum[:16]))
	}
	email.ID = models.NewEmailID(email.MessageID)
	email.IsSent = s.owner != "" && email.Sender == s.owner

	var textBody, htmlBody string
	var attachments []models.RawAttachment

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Keep what parsed so far; a broken part should not lose the message
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch contentType {
			case "text/plain":
				if textBody == "" {
					textBody = string(body)
				}
			case "text/html":
				if htmlBody == "" {
					htmlBody = string(body)
				}
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			content, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			attachments = append(attachments, models.RawAttachment{
				Filename:  filename,
				MimeType:  contentType,
				Content:   content,
				SizeBytes: int64(len(content)),
			})
		}
	}

	email.BodyText = strings.TrimSpace(textBody)
	if email.BodyText == "" && htmlBody != "" {
		email.BodyText = strings.TrimSpace(html2text.HTML2Text(htmlBody))
	}
	email.HasAttachments = len(attachments) > 0

	return &models.ParsedEmail{Email: email, Attachments: attachments}, nil
}
