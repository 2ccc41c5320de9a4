package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store persists sealed sessions. Save returns the location the
// session was written to.
type Store interface {
	Save(ctx context.Context, session *Session) (string, error)
}

// DiskStore writes sessions as JSON files in a directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("recorder: create session dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes one session to session-<id>.json.
func (s *DiskStore) Save(_ context.Context, session *Session) (string, error) {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", fmt.Errorf("recorder: encode session %s: %w", session.ID, err)
	}
	path := filepath.Join(s.dir, "session-"+session.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("recorder: write session %s: %w", session.ID, err)
	}
	return path, nil
}

// S3Store uploads sessions to an S3 bucket.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	store := recorder.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "sessions/")
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates an S3-backed session store.
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Save uploads one session as JSON under prefix/session-<id>.json.
func (s *S3Store) Save(ctx context.Context, session *Session) (string, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("recorder: encode session %s: %w", session.ID, err)
	}
	key := s.prefix + "session-" + session.ID + ".json"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"recorded-at": session.StoppedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("recorder: s3 upload of session %s: %w", session.ID, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
