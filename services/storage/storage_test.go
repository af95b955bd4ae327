package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3StorePublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "virtual host style",
			cfg:  Config{Endpoint: "https://nyc3.digitaloceanspaces.com", Region: "nyc3"},
			want: "https://course-files.nyc3.digitaloceanspaces.com/a/1.pdf",
		},
		{
			name: "path style",
			cfg:  Config{Endpoint: "http://localhost:9000/", Region: "us-east-1", ForcePathStyle: true},
			want: "http://localhost:9000/course-files/a/1.pdf",
		},
		{
			name: "cdn",
			cfg:  Config{Endpoint: "https://nyc3.digitaloceanspaces.com", CDNURL: "https://cdn.example.com/", Region: "nyc3"},
			want: "https://cdn.example.com/course-files/a/1.pdf",
		},
		{
			name: "renamed bucket",
			cfg: Config{
				Endpoint:       "http://localhost:9000",
				Region:         "us-east-1",
				ForcePathStyle: true,
				BucketNames:    map[string]string{CourseFiles: "edu-course-files"},
			},
			want: "http://localhost:9000/edu-course-files/a/1.pdf",
		},
		{
			name: "aws default",
			cfg:  Config{Region: "eu-west-1"},
			want: "https://course-files.s3.eu-west-1.amazonaws.com/a/1.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewS3Store(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.PublicURL(CourseFiles, "a/1.pdf"))
		})
	}
}

func TestS3StorePresignedURL(t *testing.T) {
	store, err := NewS3Store(Config{
		AccessKey:      "key",
		SecretKey:      "secret",
		Region:         "us-east-1",
		Endpoint:       "http://localhost:9000",
		ForcePathStyle: true,
	})
	require.NoError(t, err)

	url, err := store.PresignedURL(context.Background(), SubmissionFiles, "u/1.pdf", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:9000/submission-files/u/1.pdf?")
	assert.Contains(t, url, "X-Amz-Expires=3600")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://files.local/")

	require.NoError(t, store.Upload(ctx, SubmissionFiles, "1/2.pdf", []byte("%PDF"), "application/pdf"))
	assert.True(t, store.Has(SubmissionFiles, "1/2.pdf"))
	assert.Equal(t, "http://files.local/submission-files/1/2.pdf", store.PublicURL(SubmissionFiles, "1/2.pdf"))

	url, err := store.PresignedURL(ctx, SubmissionFiles, "1/2.pdf", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "expires=")

	require.NoError(t, store.Delete(ctx, SubmissionFiles, "1/2.pdf"))
	assert.ErrorIs(t, store.Delete(ctx, SubmissionFiles, "1/2.pdf"), ErrObjectNotFound)

	_, err = store.PresignedURL(ctx, SubmissionFiles, "missing", time.Hour)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("Essay.PDF"))
	assert.Equal(t, "image/png", ContentType("a.png"))
	assert.Equal(t, "application/octet-stream", ContentType("noext"))
}
