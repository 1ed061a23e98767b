package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryObjects struct {
	objects    map[string][]byte
	types      map[string]string
	putErr     error
	presignErr error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryObjects) PutObject(_ context.Context, key, contentType string, body []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = body
	m.types[key] = contentType
	return nil
}

func (m *memoryObjects) PresignGet(_ context.Context, key string) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return "https://archive.example.com/" + key + "?sig=1", nil
}

func TestArchiveSender(t *testing.T) {
	objects := newMemoryObjects()
	sender := NewArchiveSender(objects)
	sender.now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }

	require.NoError(t, sender.Send(context.Background(), []string{"Buyer@Example.com"}, OfferSubject, []byte("mail")))

	require.Len(t, objects.objects, 1)
	for key, body := range objects.objects {
		assert.True(t, strings.HasPrefix(key, "offers/2025/02/03/buyer@example.com/"), key)
		assert.True(t, strings.HasSuffix(key, ".eml"), key)
		assert.Equal(t, "mail", string(body))
		assert.Equal(t, "message/rfc822", objects.types[key])
	}
}

func TestArchiveSender_Errors(t *testing.T) {
	objects := newMemoryObjects()
	objects.putErr = errors.New("access denied")
	err := NewArchiveSender(objects).Send(context.Background(), []string{"a@example.com"}, OfferSubject, []byte("mail"))
	assert.ErrorContains(t, err, "access denied")

	objects = newMemoryObjects()
	objects.presignErr = errors.New("no credentials")
	assert.NoError(t, NewArchiveSender(objects).Send(context.Background(), nil, OfferSubject, []byte("mail")),
		"a missing download link does not fail the send")
	assert.Len(t, objects.objects, 1)
}
