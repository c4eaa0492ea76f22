package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"interview-service/internal/models"
)

// ArchiveService writes the final document of an ended interview to
// object storage as a single JSON object.
type ArchiveService struct {
	client *minio.Client
	bucket string
}

func NewArchiveService(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*ArchiveService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &ArchiveService{client: client, bucket: bucket}, nil
}

type interviewArchive struct {
	InterviewID    string          `json:"interviewId"`
	Title          string          `json:"title"`
	EndedAt        string          `json:"endedAt"`
	CodeLanguage   string          `json:"codeLanguage"`
	CodeContent    string          `json:"codeContent"`
	WhiteboardData json.RawMessage `json:"whiteboardData"`
}

// ArchiveInterview uploads the final state and returns the object URL.
func (s *ArchiveService) ArchiveInterview(ctx context.Context, interview *models.Interview) (string, error) {
	archive := interviewArchive{
		InterviewID:    interview.ID,
		Title:          interview.Title,
		CodeLanguage:   interview.CodeLanguage,
		CodeContent:    interview.CodeContent,
		WhiteboardData: interview.WhiteboardData,
	}
	if interview.EndedAt != nil {
		archive.EndedAt = interview.EndedAt.UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(archive)
	if err != nil {
		return "", fmt.Errorf("failed to marshal archive: %w", err)
	}

	objectName := fmt.Sprintf("interviews/%s.json", interview.ID)
	_, err = s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	url := fmt.Sprintf("http://%s/%s/%s", s.client.EndpointURL().Host, s.bucket, objectName)
	return url, nil
}
