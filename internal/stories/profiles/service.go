package profiles

import (
	"context"
	"log/slog"

	"github.com/go-faster/errors"
)

type Service struct {
	storage Storage
	logger  *slog.Logger
}

func NewService(storage Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With("component", "profiles"),
	}
}

// Save decodes the settings payload and writes it through to the profile store.
func (s *Service) Save(ctx context.Context, chatID int64, payload []byte) (*Profile, error) {
	if chatID == 0 {
		return nil, errors.Wrap(ErrInvalidSettings, "missing chat id")
	}

	p, err := DecodeSettings(payload)
	if err != nil {
		return nil, err
	}
	p.ChatID = chatID
	if p.PriceTo > 0 && p.PriceFrom > p.PriceTo {
		p.PriceFrom, p.PriceTo = p.PriceTo, p.PriceFrom
	}

	saved, err := s.storage.UpsertProfile(ctx, p)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert profile %d", chatID)
	}

	s.logger.Info("filter profile saved", "chat_id", chatID, "city", saved.City, "districts", len(saved.Districts))
	return saved, nil
}

func (s *Service) Get(ctx context.Context, chatID int64) (*Profile, error) {
	return s.storage.GetProfile(ctx, chatID)
}
