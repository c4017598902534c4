package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/emiafrica/market-intel/internal/domain"
)

// Writer implements domain.BlobWriter with multipart uploads, so large
// export files stream instead of buffering server-side.
type Writer struct {
	uploader *manager.Uploader
	bucket   string
}

// NewWriter creates a Writer over the shared client.
func NewWriter(c *Client) *Writer {
	return &Writer{uploader: manager.NewUploader(c.api), bucket: c.bucket}
}

// Put uploads one object.
func (w *Writer) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	_, err := w.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(path),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", path, err)
	}
	return nil
}

var _ domain.BlobWriter = (*Writer)(nil)
