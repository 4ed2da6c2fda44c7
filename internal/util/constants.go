package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeVideo       = "video/"
	MimeImage       = "image/"
	MimePDF         = "application/pdf"
	MimeText        = "text/plain"
	MimeOctetStream = "application/octet-stream"
	MimeZip         = "application/zip"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxSearchResult = 50
)

var (
	AllowedVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm"}

	// office 文档会被嗅探成 zip 或 octet-stream
	AllowedDocumentTypes = []string{MimePDF, MimeText, MimeZip, MimeOctetStream, "application/msword", "application/vnd."}
	AllowedVideoTypes    = []string{MimeVideo, "application/x-mpegURL"}
	AllowedImageTypes    = []string{MimeImage}
)
