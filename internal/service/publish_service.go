package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/maheshrc27/portal-social/internal/models"
	"github.com/maheshrc27/portal-social/internal/platform"
	"github.com/maheshrc27/portal-social/internal/repository"
)

type PublishService interface {
	// Publish posts one content item to each requested platform in order and
	// returns one entry per platform. It never fails as a whole.
	Publish(ctx context.Context, contentID int64, platforms []models.Platform) []models.PublishLogEntry
	ListLog(ctx context.Context, contentID int64) ([]*models.PublishLogEntry, error)
}

type publishService struct {
	content  repository.ContentRepository
	accounts repository.SocialAccountRepository
	logs     repository.PublishLogRepository
	tokens   TokenService
	clients  *platform.Registry
	media    MediaService
	now      func() time.Time
}

func NewPublishService(
	content repository.ContentRepository,
	accounts repository.SocialAccountRepository,
	logs repository.PublishLogRepository,
	tokens TokenService,
	clients *platform.Registry,
	media MediaService) PublishService {
	return &publishService{
		content:  content,
		accounts: accounts,
		logs:     logs,
		tokens:   tokens,
		clients:  clients,
		media:    media,
		now:      time.Now,
	}
}

func (s *publishService) Publish(ctx context.Context, contentID int64, platforms []models.Platform) []models.PublishLogEntry {
	entries := make([]models.PublishLogEntry, 0, len(platforms))

	content, err := s.content.GetContent(ctx, contentID)
	if err != nil || content == nil {
		if err != nil {
			slog.Warn("loading content for publish", "content_id", contentID, "error", err)
		}
		for _, p := range platforms {
			entries = append(entries, s.record(ctx, s.failed(contentID, p, ErrContentUnavailable)))
		}
		return entries
	}

	successes := 0
	for _, p := range platforms {
		entry := s.publishOne(ctx, content, p)
		if entry.Status == models.PublishStatusSuccess {
			successes++
		}
		entries = append(entries, s.record(ctx, entry))
	}

	if successes > 0 {
		if _, err := s.content.MarkPostedToSocial(ctx, contentID); err != nil {
			slog.Error("marking content as posted", "content_id", contentID, "error", err)
		}
	}

	return entries
}

func (s *publishService) publishOne(ctx context.Context, content *models.Content, p models.Platform) models.PublishLogEntry {
	reg, ok := s.clients.Lookup(p)
	if !ok {
		return s.failed(content.ID, p, ErrUnsupportedPlatform)
	}

	account, err := s.accounts.GetActiveByPlatform(ctx, p)
	if err != nil {
		return s.failed(content.ID, p, fmt.Errorf("loading account: %w", err))
	}
	if account == nil {
		return s.failed(content.ID, p, ErrNoActiveAccount)
	}

	// a payload the platform would reject must not touch the token
	post, err := reg.Compose(content)
	if err != nil {
		return s.failed(content.ID, p, err)
	}

	account, refreshed, err := s.tokens.EnsureFresh(ctx, account)
	if err != nil {
		return s.failed(content.ID, p, err)
	}

	if reg.StageMedia && post.ImageURL != "" && s.media != nil {
		staged, err := s.media.Stage(ctx, post.ImageURL)
		if err != nil {
			slog.Warn("staging image failed, publishing the original url", "content_id", content.ID, "platform", p, "error", err)
		} else {
			post.ImageURL = staged
		}
	}

	target := platform.Target{ID: account.ExternalAccountID, Name: account.DisplayName}
	result, err := reg.Client.Publish(ctx, target, account.AccessToken, post)

	var expired *platform.TokenExpiredError
	if errors.As(err, &expired) && !refreshed {
		slog.Info("token rejected at publish time, refreshing once", "account_id", account.ID, "platform", p)
		account, err = s.tokens.ForceRefresh(ctx, account)
		if err != nil {
			return s.failed(content.ID, p, err)
		}
		result, err = reg.Client.Publish(ctx, target, account.AccessToken, post)
	}
	if err != nil {
		return s.failed(content.ID, p, err)
	}

	slog.Info("content published", "content_id", content.ID, "platform", p, "external_id", result.ExternalID, "permalink", result.Permalink)
	return models.PublishLogEntry{
		ContentID: content.ID,
		Platform:  p,
		Status:    models.PublishStatusSuccess,
		Message:   result.ExternalID,
		Timestamp: s.now(),
	}
}

func (s *publishService) failed(contentID int64, p models.Platform, err error) models.PublishLogEntry {
	entry := models.PublishLogEntry{
		ContentID: contentID,
		Platform:  p,
		Status:    models.PublishStatusFailed,
		Message:   err.Error(),
		Timestamp: s.now(),
	}

	var rl *platform.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		entry.RetryAfter = int64(math.Ceil(rl.RetryAfter.Seconds()))
	}

	slog.Warn("publish failed", "content_id", contentID, "platform", p, "error", err)
	return entry
}

// record appends the entry to the audit log. A failed append never changes the outcome.
func (s *publishService) record(ctx context.Context, entry models.PublishLogEntry) models.PublishLogEntry {
	if _, err := s.logs.Append(ctx, &entry); err != nil {
		slog.Error("appending publish log", "content_id", entry.ContentID, "platform", entry.Platform, "error", err)
	}
	return entry
}

func (s *publishService) ListLog(ctx context.Context, contentID int64) ([]*models.PublishLogEntry, error) {
	entries, err := s.logs.ListByContentID(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("listing publish log: %w", err)
	}
	return entries, nil
}
