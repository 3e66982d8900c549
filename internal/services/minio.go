package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ObjectPutter est la partie du client MinIO utilisée pour l'upload.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ImageStore envoie les images (avatars, photos produit) dans un bucket MinIO
// et retourne leur URL publique.
type ImageStore struct {
	client  ObjectPutter
	bucket  string
	baseURL string
	log     *zap.Logger
}

// NewImageStore construit l'URL publique depuis publicURL, ou depuis l'endpoint
// MinIO quand publicURL est vide.
func NewImageStore(client ObjectPutter, bucket, endpoint, publicURL string, useSSL bool, log *zap.Logger) *ImageStore {
	base := strings.TrimRight(publicURL, "/")
	if base == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, endpoint)
	}
	return &ImageStore{client: client, bucket: bucket, baseURL: base + "/" + bucket, log: log}
}

// Upload stocke le fichier sous <prefix>/<uuid><ext>.
func (s *ImageStore) Upload(ctx context.Context, file *multipart.FileHeader, prefix string) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	object := path.Join(prefix, uuid.NewString()+strings.ToLower(path.Ext(file.Filename)))
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, s.bucket, object, f, file.Size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", file.Filename, err)
	}
	return s.baseURL + "/" + object, nil
}

// UploadMany envoie chaque fichier et ignore ceux qui échouent.
// Retourne les URLs des uploads réussis, dans l'ordre.
func (s *ImageStore) UploadMany(ctx context.Context, files []*multipart.FileHeader, prefix string) []string {
	urls := make([]string, 0, len(files))
	for _, file := range files {
		url, err := s.Upload(ctx, file, prefix)
		if err != nil {
			s.log.Warn("⚠️ Upload image échoué", zap.String("file", file.Filename), zap.Error(err))
			continue
		}
		urls = append(urls, url)
	}
	return urls
}
