package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// allowedMedia are the sniffed content types accepted for upload.
var allowedMedia = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// Upload is one file received from a multipart form.
type Upload struct {
	Filename string
	Size     int64
	Alt      string
	Folder   string
	Body     io.Reader
}

// MediaService stores uploaded files on disk and their metadata in the database.
type MediaService struct {
	repo    MediaRepository
	dir     string
	baseURL string
	log     *zap.Logger
}

func NewMediaService(repo MediaRepository, dir, baseURL string, log *zap.Logger) *MediaService {
	return &MediaService{repo: repo, dir: dir, baseURL: strings.TrimSuffix(baseURL, "/"), log: log}
}

// Save writes the upload under a unique name and records it.
func (s *MediaService) Save(ctx context.Context, up Upload) (*models.Media, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return nil, validation("file is empty")
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	mime := http.DetectContentType(head)
	if !allowedMedia[mime] {
		return nil, validation("file type %s is not allowed", mime)
	}

	folder := cleanFolder(up.Folder)
	dir := filepath.Join(s.dir, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	id := primitive.NewObjectID()
	filename := fmt.Sprintf("%s_%s", id.Hex(), cleanFilename(up.Filename))
	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	size, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), up.Body))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("save file: %w", err)
	}

	media := &models.Media{
		Filename:     path.Join(folder, filename),
		OriginalName: up.Filename,
		MimeType:     mime,
		Size:         size,
		URL:          s.baseURL + "/" + path.Join(folder, filename),
		Alt:          strings.TrimSpace(up.Alt),
		Folder:       folder,
	}
	if err := s.repo.Create(ctx, media); err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("record media: %w", err)
	}
	s.log.Info("media uploaded", zap.String("file", media.Filename), zap.Int64("size", size))
	return media, nil
}

// MediaUpdate holds the editable metadata of a media item.
type MediaUpdate struct {
	Alt    *string `json:"alt"`
	Folder *string `json:"folder"`
}

// Update changes the alt text and library folder. The stored file, its name
// and its URL never change after upload.
func (s *MediaService) Update(ctx context.Context, id string, u MediaUpdate) (*models.Media, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("media not found")
	}
	media, err := s.repo.Get(ctx, oid)
	if err != nil {
		return nil, orNotFound(err, "media not found")
	}
	if u.Alt != nil {
		media.Alt = strings.TrimSpace(*u.Alt)
	}
	if u.Folder != nil {
		media.Folder = cleanFolder(*u.Folder)
	}
	if err := s.repo.Update(ctx, oid, media); err != nil {
		return nil, orNotFound(err, "media not found")
	}
	return media, nil
}

// Delete removes the metadata and then the file.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound("media not found")
	}
	media, err := s.repo.Get(ctx, oid)
	if err != nil {
		return orNotFound(err, "media not found")
	}
	if err := s.repo.Delete(ctx, oid); err != nil {
		return orNotFound(err, "media not found")
	}
	p, ok := s.filePath(media.Filename)
	if !ok {
		s.log.Warn("media file outside upload directory, not removed",
			zap.String("media_id", id),
			zap.String("filename", media.Filename))
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("remove media file", zap.String("path", p), zap.Error(err))
	}
	return nil
}

// filePath resolves a stored filename under the upload directory. It reports
// false for names that are empty, absolute or escape the directory.
func (s *MediaService) filePath(name string) (string, bool) {
	if name == "" || filepath.IsAbs(filepath.FromSlash(name)) {
		return "", false
	}
	p := filepath.Join(s.dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.dir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return p, true
}

func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(name))
	base := models.Slugify(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		base = "file"
	}
	return base + ext
}

func cleanFolder(folder string) string {
	var parts []string
	for _, p := range strings.Split(folder, "/") {
		if s := models.Slugify(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
