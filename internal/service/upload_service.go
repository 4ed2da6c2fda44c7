package service

import (
	"context"
	"fmt"
	"guidesphere_backend/internal/config"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/repository"
	"guidesphere_backend/internal/util"
	"guidesphere_backend/pkg/logger"
	"guidesphere_backend/pkg/monitoring"
	"guidesphere_backend/pkg/tracing"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// 上传类型到存储目录的映射
var uploadFolders = map[string]string{
	"doc":    "docs",
	"video":  "videos",
	"avatar": "avatars",
}

func allowedTypesFor(kind string) []string {
	switch kind {
	case "doc":
		return util.AllowedDocumentTypes
	case "video":
		return util.AllowedVideoTypes
	case "avatar":
		return util.AllowedImageTypes
	}
	all := append([]string{}, util.AllowedDocumentTypes...)
	all = append(all, util.AllowedVideoTypes...)
	return append(all, util.AllowedImageTypes...)
}

type UploadService struct {
	Storage  *StorageService
	UserRepo *repository.UserRepository
	Tracker  UploadTracker
	Cfg      *config.Config

	// Probe 与 Thumbnail 可在测试中替换
	Probe     func(path string) (*util.VideoInfo, error)
	Thumbnail func(videoPath, thumbnailPath, offset string) error
}

func NewUploadService(storage *StorageService, userRepo *repository.UserRepository, tracker UploadTracker, cfg *config.Config) *UploadService {
	return &UploadService{
		Storage:   storage,
		UserRepo:  userRepo,
		Tracker:   tracker,
		Cfg:       cfg,
		Probe:     util.GetVideoInfo,
		Thumbnail: util.GenerateThumbnail,
	}
}

func objectName(kind, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), model.GenerateUUID()[:8], ext)
	if folder, ok := uploadFolders[kind]; ok {
		return folder + "/" + name
	}
	return name
}

// Upload 保存单个文件；头像上传同时更新用户头像
func (s *UploadService) Upload(ctx context.Context, userID string, file *multipart.FileHeader, kind string) (*model.UploadedFile, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mimeType, err := util.SniffAndRewind(src, allowedTypesFor(kind))
	if err != nil {
		return nil, err
	}

	name := objectName(kind, file.Filename)
	uploaded := &model.UploadedFile{
		Name:     filepath.Base(name),
		Type:     kind,
		Size:     file.Size,
		MimeType: mimeType,
	}

	if util.IsVideo(mimeType) {
		if err := s.storeVideo(ctx, src, name, mimeType, uploaded); err != nil {
			return nil, err
		}
	} else {
		url, err := s.Storage.Upload(ctx, name, src, file.Size, mimeType)
		if err != nil {
			return nil, err
		}
		uploaded.Path = url
	}

	monitoring.UploadsTotal.WithLabelValues(kindLabel(kind)).Inc()

	if kind == "avatar" && userID != "" {
		if _, err := s.UserRepo.UpdateAvatar(userID, uploaded.Path); err != nil {
			logger.Log.Warn("update avatar after upload failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return uploaded, nil
}

func kindLabel(kind string) string {
	if _, ok := uploadFolders[kind]; ok {
		return kind
	}
	return "default"
}

// storeVideo 先落地临时文件以便 ffprobe 探测时长并截图
func (s *UploadService) storeVideo(ctx context.Context, src io.Reader, name, mimeType string, out *model.UploadedFile) error {
	tempDir := s.Storage.TempDir()
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return err
	}
	tempPath := filepath.Join(tempDir, fmt.Sprintf("video_%d%s", time.Now().UnixNano(), filepath.Ext(name)))
	defer os.Remove(tempPath)

	dst, err := os.Create(tempPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	dst.Close()

	return s.finishVideo(ctx, tempPath, name, mimeType, out)
}

func (s *UploadService) finishVideo(ctx context.Context, localPath, name, mimeType string, out *model.UploadedFile) error {
	url, err := s.Storage.UploadFile(ctx, name, localPath, mimeType)
	if err != nil {
		return err
	}
	out.Path = url

	if info, err := s.Probe(localPath); err != nil {
		logger.Log.Warn("probe video failed", zap.String("file", name), zap.Error(err))
	} else {
		out.DurationSec = info.DurationSec()
	}

	thumbName := "thumbnails/" + strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + ".jpg"
	thumbPath := s.Storage.TempDir(filepath.Base(thumbName))
	if err := s.Thumbnail(localPath, thumbPath, "3"); err != nil {
		logger.Log.Warn("generate thumbnail failed", zap.String("file", name), zap.Error(err))
		return nil
	}
	defer os.Remove(thumbPath)

	if thumbURL, err := s.Storage.UploadFile(ctx, thumbName, thumbPath, "image/jpeg"); err == nil {
		out.ThumbnailURI = thumbURL
	}
	return nil
}

// ChunkRequest 一个视频分片
type ChunkRequest struct {
	Chunk       *multipart.FileHeader
	ChunkNumber int
	TotalChunks int
	Identifier  string
	Filename    string
}

func (r *ChunkRequest) validate() error {
	if r.Chunk == nil || r.TotalChunks < 1 || r.ChunkNumber < 1 || r.ChunkNumber > r.TotalChunks {
		return util.ErrInvalidChunk
	}
	if r.Identifier == "" || strings.ContainsAny(r.Identifier, `/\.`) {
		return util.ErrInvalidChunk
	}
	return nil
}

// UploadVideoChunk 保存分片，最后一片到达时合并并上传
func (s *UploadService) UploadVideoChunk(ctx context.Context, req ChunkRequest) (*model.UploadProgress, *model.UploadedFile, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}

	tempDir := s.Storage.TempDir(req.Identifier)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, nil, err
	}

	if err := saveChunk(req.Chunk, filepath.Join(tempDir, fmt.Sprintf("chunk_%d", req.ChunkNumber))); err != nil {
		return nil, nil, err
	}

	progress, completed, err := s.Tracker.MarkChunk(ctx, ChunkMark{
		Identifier:  req.Identifier,
		Filename:    req.Filename,
		TotalChunks: req.TotalChunks,
		ChunkNumber: req.ChunkNumber,
		Size:        req.Chunk.Size,
	})
	if err != nil {
		return nil, nil, err
	}

	// 只有补齐最后一片的请求负责合并
	if !completed {
		return progress, nil, nil
	}

	ctx, span := tracing.StartSpan(ctx, "upload.assemble",
		attribute.String("upload.identifier", req.Identifier),
		attribute.Int("upload.chunks", req.TotalChunks),
	)
	file, err := s.assemble(ctx, progress, tempDir)
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, nil, err
	}

	os.RemoveAll(tempDir)
	if err := s.Tracker.Delete(ctx, req.Identifier); err != nil {
		logger.Log.Warn("clear upload progress failed", zap.String("identifier", req.Identifier), zap.Error(err))
	}
	monitoring.UploadsTotal.WithLabelValues("video").Inc()

	return progress, file, nil
}

func saveChunk(chunk *multipart.FileHeader, path string) error {
	src, err := chunk.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func (s *UploadService) assemble(ctx context.Context, progress *model.UploadProgress, tempDir string) (*model.UploadedFile, error) {
	name := objectName("video", progress.Filename)
	finalPath := s.Storage.TempDir(progress.Identifier + "_final" + filepath.Ext(name))
	defer os.Remove(finalPath)

	final, err := os.Create(finalPath)
	if err != nil {
		return nil, err
	}
	for i := 1; i <= progress.TotalChunks; i++ {
		part, err := os.Open(filepath.Join(tempDir, fmt.Sprintf("chunk_%d", i)))
		if err != nil {
			final.Close()
			return nil, err
		}
		_, err = io.Copy(final, part)
		part.Close()
		if err != nil {
			final.Close()
			return nil, err
		}
	}
	final.Close()

	f, err := os.Open(finalPath)
	if err != nil {
		return nil, err
	}
	mimeType, err := util.ValidateMimeType(f, util.AllowedVideoTypes)
	f.Close()
	if err != nil {
		return nil, err
	}

	out := &model.UploadedFile{
		Name:     filepath.Base(name),
		Type:     "video",
		Size:     progress.FileSize,
		MimeType: mimeType,
	}
	if err := s.finishVideo(ctx, finalPath, name, mimeType, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UploadService) GetUploadProgress(ctx context.Context, identifier string) (*model.UploadProgress, error) {
	return s.Tracker.Get(ctx, identifier)
}

// DurationOf 探测本地存储中视频的时长，无法探测时返回 0
func (s *UploadService) DurationOf(ctx context.Context, uri string) int {
	local, ok := s.Storage.Provider.(*LocalStorageProvider)
	if !ok {
		return 0
	}
	key := local.Key(uri)
	if key == "" {
		return 0
	}
	info, err := s.Probe(local.path(key))
	if err != nil {
		return 0
	}
	return info.DurationSec()
}

// CleanupTemp 删除超过 maxAge 未完成的分片目录
func (s *UploadService) CleanupTemp(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.Storage.TempDir())
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || time.Since(info.ModTime()) < maxAge {
			continue
		}
		if err := os.RemoveAll(s.Storage.TempDir(e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
