package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityhr/internal/apperr"
)

func TestName(t *testing.T) {
	now := time.Date(2024, time.July, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "doc_e1_20240701_090507_contrat.pdf", Name("doc", "e1", "/home/agent/contrat.pdf", now))
	assert.Equal(t, "courrier_12_2024_20240701_090507_scan.png", Name("courrier", "12/2024", "scan.png", now))
	assert.Equal(t, "emp_e1_20240701_090507_photo.jpg", Name("emp", "e1", `C:\photos\photo.jpg`, now))
}

func TestLocalRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root)
	require.NoError(t, err)
	for _, area := range Areas {
		assert.DirExists(t, filepath.Join(root, area))
	}

	ctx := context.Background()
	ref, err := store.Save(ctx, AreaDocuments, "doc_e1_x_note.txt", bytes.NewBufferString("bonjour"))
	require.NoError(t, err)
	assert.Equal(t, "documents/doc_e1_x_note.txt", ref)

	rc, err := store.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "bonjour", string(data))

	require.NoError(t, store.Delete(ctx, ref))
	_, err = os.Stat(filepath.Join(root, "documents", "doc_e1_x_note.txt"))
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, store.Delete(ctx, ref), "deleting twice is harmless")

	_, err = store.Open(ctx, ref)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLocalRejectsEscapingRefs(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	_, err = store.Open(context.Background(), "../secret")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = store.Open(context.Background(), "/etc/passwd")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3RoundTrip(t *testing.T) {
	fake := &fakeObjects{objects: map[string][]byte{}}
	store := &S3{Bucket: "hr", client: fake}
	ctx := context.Background()

	ref, err := store.Save(ctx, AreaMail, "courrier_1_x_scan.pdf", bytes.NewBufferString("%PDF"))
	require.NoError(t, err)
	assert.Contains(t, fake.objects, "hr/mail/courrier_1_x_scan.pdf")

	rc, err := store.Open(ctx, ref)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF", string(data))

	require.NoError(t, store.Delete(ctx, ref))
	_, err = store.Open(ctx, ref)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Options{Region: "us-east-1"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
