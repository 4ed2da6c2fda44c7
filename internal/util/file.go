package util

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
)

// ValidateMimeType 深度校验文件 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "image/", "video/", "application/pdf"
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, fmt.Errorf("%w: %s", ErrInvalidFileType, mimeType)
}

// SniffAndRewind 校验类型后把读取位置复位
func SniffAndRewind(src io.ReadSeeker, allowedTypes []string) (string, error) {
	mimeType, err := ValidateMimeType(src, allowedTypes)
	if err != nil {
		return mimeType, err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return mimeType, err
	}
	return mimeType, nil
}

func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

func IsVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/") || mimeType == "application/x-mpegURL"
}

// LastSegment returns the final path element of a URI without its query.
func LastSegment(uri string) string {
	uri = strings.TrimSpace(uri)
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	uri = strings.TrimRight(uri, "/")
	if uri == "" {
		return ""
	}
	base := path.Base(uri)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
