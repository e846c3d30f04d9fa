package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxImageBytes = 8 << 20

// MediaService mirrors article images to storage the platforms can fetch from.
type MediaService interface {
	Stage(ctx context.Context, imageURL string) (string, error)
}

type mediaService struct {
	store ObjectStore
	http  *http.Client
}

// NewMediaService returns a stager that uploads to store. With a nil store
// Stage returns the url unchanged.
func NewMediaService(store ObjectStore, httpClient *http.Client) MediaService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &mediaService{store: store, http: httpClient}
}

func (s *mediaService) Stage(ctx context.Context, imageURL string) (string, error) {
	if s.store == nil {
		return imageURL, nil
	}

	body, err := s.download(ctx, imageURL)
	if err != nil {
		return "", err
	}

	kind, err := filetype.Match(body)
	if err != nil || kind == types.Unknown {
		return "", fmt.Errorf("unrecognized image type for %s", imageURL)
	}
	if kind.Extension != "jpg" && kind.Extension != "png" {
		return "", fmt.Errorf("image type %s is not allowed", kind.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("social/%s.%s", id, kind.Extension)

	staged, err := s.store.Put(ctx, key, body, kind.MIME.Value)
	if err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}

	slog.Info("image staged", "source", imageURL, "staged", staged, "bytes", len(body))
	return staged, nil
}

func (s *mediaService) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building image request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading image: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(body) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return body, nil
}
