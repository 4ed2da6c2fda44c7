package service

import (
	"bytes"
	"context"
	"fmt"
	"guidesphere_backend/internal/util"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DocumentReader 从存储或文档目录中读取文档正文
type DocumentReader struct {
	Storage *StorageService
	DocsDir string
}

func NewDocumentReader(storage *StorageService, docsDir string) *DocumentReader {
	return &DocumentReader{Storage: storage, DocsDir: docsDir}
}

// candidates 依次尝试 <docId>.pdf、<docId>.txt 以及 URI 对应的文件名
func (r *DocumentReader) candidates(docID, uri string) []string {
	if r.DocsDir == "" {
		return nil
	}
	var out []string
	if docID != "" && !strings.ContainsAny(docID, `/\`) {
		out = append(out,
			filepath.Join(r.DocsDir, docID+".pdf"),
			filepath.Join(r.DocsDir, docID+".txt"),
		)
	}
	if seg := util.LastSegment(uri); seg != "" {
		out = append(out, filepath.Join(r.DocsDir, seg))
	}
	return out
}

// Text 返回文档纯文本；文件不存在返回 ErrDocumentNotFound，无法解析返回 ErrTextUnreadable
func (r *DocumentReader) Text(ctx context.Context, docID, uri string) (string, error) {
	data, name, err := r.load(ctx, docID, uri)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return PDFText(data)
	case ".txt", ".md", "":
		return string(data), nil
	}
	return "", fmt.Errorf("%w: unsupported extension %s", util.ErrTextUnreadable, filepath.Ext(name))
}

func (r *DocumentReader) load(ctx context.Context, docID, uri string) ([]byte, string, error) {
	if uri != "" && r.Storage != nil {
		if rc, err := r.Storage.OpenURL(ctx, uri); err == nil {
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, "", err
			}
			return data, util.LastSegment(uri), nil
		}
	}

	for _, path := range r.candidates(docID, uri) {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
	}
	return nil, "", util.ErrDocumentNotFound
}

// PDFText 提取 PDF 全部页面的文本
func PDFText(data []byte) (text string, err error) {
	// 损坏的 PDF 可能让解析器 panic
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: %v", util.ErrTextUnreadable, rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrTextUnreadable, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrTextUnreadable, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrTextUnreadable, err)
	}
	return buf.String(), nil
}

// TranscriptReader 读取离线生成的视频转写文本
type TranscriptReader struct {
	Dir string
}

// Text 依次查找 <contentId>.txt 和 <视频文件名>.txt
func (r *TranscriptReader) Text(contentID, videoURI string) (string, error) {
	if r.Dir == "" {
		return "", util.ErrTranscriptMissing
	}
	names := []string{contentID + ".txt"}
	if seg := util.LastSegment(videoURI); seg != "" {
		names = append(names, strings.TrimSuffix(seg, filepath.Ext(seg))+".txt")
	}
	for _, n := range names {
		if strings.ContainsAny(n, `/\`) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.Dir, n))
		if err == nil {
			return string(data), nil
		}
	}
	return "", util.ErrTranscriptMissing
}
