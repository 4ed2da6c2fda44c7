package service

import (
	"context"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/util"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	uploadProgressKeyPrefix = "upload_progress:"
	uploadChunksKeyPrefix   = "upload_chunks:"
	uploadProgressTTL       = 24 * time.Hour
)

// ChunkMark 一个已落盘的分片
type ChunkMark struct {
	Identifier  string
	Filename    string
	TotalChunks int
	ChunkNumber int
	Size        int64
}

// UploadTracker 保存分片上传进度
// MarkChunk 必须是原子的：并发到达的分片中只有补齐最后一片的那次调用返回 completed=true
type UploadTracker interface {
	MarkChunk(ctx context.Context, mark ChunkMark) (progress *model.UploadProgress, completed bool, err error)
	Get(ctx context.Context, identifier string) (*model.UploadProgress, error)
	Delete(ctx context.Context, identifier string) error
}

func NewUploadTracker(rdb *redis.Client) UploadTracker {
	if rdb != nil {
		return &RedisUploadTracker{Redis: rdb}
	}
	return NewMemoryUploadTracker(uploadProgressTTL)
}

// RedisUploadTracker 多实例部署时共享进度
// upload_progress:<id> 哈希保存文件元数据，upload_chunks:<id> 哈希保存 分片号 -> 大小
type RedisUploadTracker struct {
	Redis *redis.Client
}

func (t *RedisUploadTracker) MarkChunk(ctx context.Context, mark ChunkMark) (*model.UploadProgress, bool, error) {
	metaKey := uploadProgressKeyPrefix + mark.Identifier
	chunksKey := uploadChunksKeyPrefix + mark.Identifier

	var added *redis.BoolCmd
	var count *redis.IntCmd
	_, err := t.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, metaKey, "filename", mark.Filename)
		pipe.HSetNX(ctx, metaKey, "total_chunks", mark.TotalChunks)
		pipe.HSetNX(ctx, metaKey, "created_at", time.Now().Unix())
		added = pipe.HSetNX(ctx, chunksKey, strconv.Itoa(mark.ChunkNumber), mark.Size)
		count = pipe.HLen(ctx, chunksKey)
		pipe.Expire(ctx, metaKey, uploadProgressTTL)
		pipe.Expire(ctx, chunksKey, uploadProgressTTL)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	progress, err := t.Get(ctx, mark.Identifier)
	if err != nil {
		return nil, false, err
	}
	completed := added.Val() && count.Val() == int64(progress.TotalChunks)
	return progress, completed, nil
}

func (t *RedisUploadTracker) Get(ctx context.Context, identifier string) (*model.UploadProgress, error) {
	meta, err := t.Redis.HGetAll(ctx, uploadProgressKeyPrefix+identifier).Result()
	if err != nil {
		return nil, err
	}
	if len(meta) == 0 {
		return nil, util.ErrUploadNotFound
	}
	chunks, err := t.Redis.HGetAll(ctx, uploadChunksKeyPrefix+identifier).Result()
	if err != nil {
		return nil, err
	}

	total, _ := strconv.Atoi(meta["total_chunks"])
	createdAt, _ := strconv.ParseInt(meta["created_at"], 10, 64)
	progress := &model.UploadProgress{
		Identifier:  identifier,
		Filename:    meta["filename"],
		TotalChunks: total,
		Chunks:      make(map[int]bool, len(chunks)),
		CreatedAt:   time.Unix(createdAt, 0),
	}
	for k, v := range chunks {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		size, _ := strconv.ParseInt(v, 10, 64)
		progress.Chunks[n] = true
		progress.FileSize += size
	}
	progress.UploadedChunks = len(progress.Chunks)
	return progress, nil
}

func (t *RedisUploadTracker) Delete(ctx context.Context, identifier string) error {
	return t.Redis.Del(ctx, uploadProgressKeyPrefix+identifier, uploadChunksKeyPrefix+identifier).Err()
}

type memoryEntry struct {
	progress  model.UploadProgress
	expiresAt time.Time
}

// MemoryUploadTracker 单实例部署时使用
type MemoryUploadTracker struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

func NewMemoryUploadTracker(ttl time.Duration) *MemoryUploadTracker {
	return &MemoryUploadTracker{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func copyProgress(p model.UploadProgress) *model.UploadProgress {
	chunks := make(map[int]bool, len(p.Chunks))
	for k, v := range p.Chunks {
		chunks[k] = v
	}
	p.Chunks = chunks
	return &p
}

// lookup 调用方需持有锁
func (t *MemoryUploadTracker) lookup(identifier string) (memoryEntry, bool) {
	e, ok := t.entries[identifier]
	if ok && time.Now().After(e.expiresAt) {
		delete(t.entries, identifier)
		return memoryEntry{}, false
	}
	return e, ok
}

func (t *MemoryUploadTracker) MarkChunk(ctx context.Context, mark ChunkMark) (*model.UploadProgress, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.lookup(mark.Identifier)
	if !ok {
		e.progress = model.UploadProgress{
			Identifier:  mark.Identifier,
			Filename:    mark.Filename,
			TotalChunks: mark.TotalChunks,
			Chunks:      make(map[int]bool),
			CreatedAt:   time.Now(),
		}
	}

	completed := false
	if !e.progress.Chunks[mark.ChunkNumber] {
		e.progress.Chunks[mark.ChunkNumber] = true
		e.progress.UploadedChunks++
		e.progress.FileSize += mark.Size
		completed = e.progress.Complete()
	}
	e.expiresAt = time.Now().Add(t.ttl)
	t.entries[mark.Identifier] = e

	return copyProgress(e.progress), completed, nil
}

func (t *MemoryUploadTracker) Get(ctx context.Context, identifier string) (*model.UploadProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.lookup(identifier)
	if !ok {
		return nil, util.ErrUploadNotFound
	}
	return copyProgress(e.progress), nil
}

func (t *MemoryUploadTracker) Delete(ctx context.Context, identifier string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, identifier)
	return nil
}
