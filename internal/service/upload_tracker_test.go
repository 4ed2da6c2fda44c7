package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"guidesphere_backend/internal/config"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/util"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUploadTracker(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryUploadTracker(time.Hour)

	_, err := tracker.Get(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrUploadNotFound)

	mark := ChunkMark{Identifier: "v1", Filename: "clip.mp4", TotalChunks: 2, ChunkNumber: 1, Size: 10}
	progress, completed, err := tracker.MarkChunk(ctx, mark)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, 1, progress.UploadedChunks)

	// 重传同一分片不重复计数
	progress, completed, err = tracker.MarkChunk(ctx, mark)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, 1, progress.UploadedChunks)
	assert.Equal(t, int64(10), progress.FileSize)

	// 返回副本，调用方修改不影响已保存的状态
	progress.Chunks[2] = true
	again, err := tracker.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Len(t, again.Chunks, 1)

	mark.ChunkNumber = 2
	progress, completed, err = tracker.MarkChunk(ctx, mark)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.True(t, progress.Complete())
	assert.Equal(t, int64(20), progress.FileSize)

	_, completed, err = tracker.MarkChunk(ctx, mark)
	require.NoError(t, err)
	assert.False(t, completed)

	require.NoError(t, tracker.Delete(ctx, "v1"))
	_, err = tracker.Get(ctx, "v1")
	assert.ErrorIs(t, err, util.ErrUploadNotFound)
}

func TestMemoryUploadTrackerExpiry(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryUploadTracker(-time.Second)
	_, _, err := tracker.MarkChunk(ctx, ChunkMark{Identifier: "old", TotalChunks: 3, ChunkNumber: 1})
	require.NoError(t, err)

	_, err = tracker.Get(ctx, "old")
	assert.ErrorIs(t, err, util.ErrUploadNotFound)
}

func TestMemoryUploadTrackerConcurrentChunks(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryUploadTracker(time.Hour)
	const total = 32

	var wg sync.WaitGroup
	var mu sync.Mutex
	completions := 0
	for i := 1; i <= total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, completed, err := tracker.MarkChunk(ctx, ChunkMark{Identifier: "vid", TotalChunks: total, ChunkNumber: n, Size: 1})
			assert.NoError(t, err)
			if completed {
				mu.Lock()
				completions++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, completions)
	progress, err := tracker.Get(ctx, "vid")
	require.NoError(t, err)
	assert.Equal(t, total, progress.UploadedChunks)
	assert.Equal(t, int64(total), progress.FileSize)
}

func TestObjectName(t *testing.T) {
	name := objectName("doc", "notes.PDF")
	assert.Regexp(t, `^docs/\d+-[0-9a-f]{8}\.pdf$`, name)
	assert.NotEqual(t, name, objectName("doc", "notes.PDF"))
}

// chunkHeader 构造一个 multipart 分片
func chunkHeader(t *testing.T, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "blob")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func TestUploadVideoChunksInParallel(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()}}
	svc := NewUploadService(NewStorageService(cfg), nil, NewMemoryUploadTracker(time.Hour), cfg)
	svc.Probe = func(string) (*util.VideoInfo, error) { return nil, errors.New("no ffprobe") }
	svc.Thumbnail = func(string, string, string) error { return errors.New("no ffmpeg") }

	// 最小的 mp4 ftyp 头，按 4 个分片并发上传
	video := append([]byte{0, 0, 0, 0x18}, []byte("ftypmp42\x00\x00\x00\x00mp42isom")...)
	const total = 4
	size := len(video) / total

	var wg sync.WaitGroup
	files := make(chan *model.UploadedFile, total)
	for i := 1; i <= total; i++ {
		header := chunkHeader(t, video[(i-1)*size:i*size])
		wg.Add(1)
		go func(n int, header *multipart.FileHeader) {
			defer wg.Done()
			_, file, err := svc.UploadVideoChunk(context.Background(), ChunkRequest{
				Chunk:       header,
				ChunkNumber: n,
				TotalChunks: total,
				Identifier:  "lesson-1",
				Filename:    "lesson.mp4",
			})
			assert.NoError(t, err, fmt.Sprintf("chunk %d", n))
			if file != nil {
				files <- file
			}
		}(i, header)
	}
	wg.Wait()
	close(files)

	var assembled []*model.UploadedFile
	for f := range files {
		assembled = append(assembled, f)
	}
	require.Len(t, assembled, 1)
	assert.Equal(t, "video", assembled[0].Type)
	assert.Equal(t, int64(len(video)), assembled[0].Size)
	assert.Contains(t, assembled[0].Path, "videos/")

	_, err := svc.GetUploadProgress(context.Background(), "lesson-1")
	assert.ErrorIs(t, err, util.ErrUploadNotFound)
}
