package email

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexander-kastil/talk-low-code-process/internal/storage"
)

// ArchiveSender keeps a copy of every outgoing mail in object storage as an .eml file.
type ArchiveSender struct {
	objects storage.IObjectStorage
	prefix  string
	now     func() time.Time
}

func NewArchiveSender(objects storage.IObjectStorage) *ArchiveSender {
	return &ArchiveSender{objects: objects, prefix: "offers", now: time.Now}
}

// ArchiveKey is the object key for a mail to recipient sent at t.
func (s *ArchiveSender) ArchiveKey(recipient string, t time.Time) string {
	recipient = strings.ToLower(strings.TrimSpace(recipient))
	if recipient == "" {
		recipient = "unknown"
	}
	return fmt.Sprintf("%s/%s/%s/%s.eml", s.prefix, t.UTC().Format("2006/01/02"), recipient, uuid.NewString())
}

func (s *ArchiveSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	recipient := ""
	if len(to) > 0 {
		recipient = to[0]
	}
	key := s.ArchiveKey(recipient, s.now())

	if err := s.objects.PutObject(ctx, key, "message/rfc822", rawMessage); err != nil {
		return fmt.Errorf("archive mail: %w", err)
	}

	url, err := s.objects.PresignGet(ctx, key)
	if err != nil {
		log.Printf("Warning: archived mail %s but could not presign a download link: %v", key, err)
		return nil
	}
	log.Printf("Archived mail to %v (Subject: %s) at %s", to, subject, url)
	return nil
}
