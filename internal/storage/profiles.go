package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"zemo-bot/internal/stories/profiles"
)

const profilesTable = "filter_profiles"

var profileRowFields = fields(profileRow{})

type profileRow struct {
	ChatID       int64     `db:"chat_id"`
	City         string    `db:"city"`
	Districts    string    `db:"districts"`
	DealType     string    `db:"deal_type"`
	PriceFrom    int       `db:"price_from"`
	PriceTo      int       `db:"price_to"`
	FloorFrom    int       `db:"floor_from"`
	FloorTo      int       `db:"floor_to"`
	RoomsFrom    int       `db:"rooms_from"`
	RoomsTo      int       `db:"rooms_to"`
	BedroomsFrom int       `db:"bedrooms_from"`
	BedroomsTo   int       `db:"bedrooms_to"`
	OwnAds       bool      `db:"own_ads"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (p profileRow) ToModel() (*profiles.Profile, error) {
	districts, err := profiles.DecodeDistricts(p.Districts)
	if err != nil {
		return nil, fmt.Errorf("decode districts: %w", err)
	}

	return &profiles.Profile{
		ChatID:       p.ChatID,
		City:         p.City,
		Districts:    districts,
		DealType:     p.DealType,
		PriceFrom:    p.PriceFrom,
		PriceTo:      p.PriceTo,
		FloorFrom:    p.FloorFrom,
		FloorTo:      p.FloorTo,
		RoomsFrom:    p.RoomsFrom,
		RoomsTo:      p.RoomsTo,
		BedroomsFrom: p.BedroomsFrom,
		BedroomsTo:   p.BedroomsTo,
		OwnAds:       p.OwnAds,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

// UpsertProfile пишет профиль; created_at выставляется только при вставке.
func (s *storageImpl) UpsertProfile(ctx context.Context, p profiles.Profile) (*profiles.Profile, error) {
	now := s.now()

	q, args, err := s.stmpBuilder().
		Insert(profilesTable).
		Columns(
			"chat_id", "city", "districts", "deal_type",
			"price_from", "price_to", "floor_from", "floor_to",
			"rooms_from", "rooms_to", "bedrooms_from", "bedrooms_to",
			"own_ads", "created_at", "updated_at",
		).
		Values(
			p.ChatID, p.City, profiles.EncodeDistricts(p.Districts), p.DealType,
			p.PriceFrom, p.PriceTo, p.FloorFrom, p.FloorTo,
			p.RoomsFrom, p.RoomsTo, p.BedroomsFrom, p.BedroomsTo,
			p.OwnAds, now, now,
		).
		Suffix(`ON CONFLICT (chat_id) DO UPDATE SET
			city = excluded.city,
			districts = excluded.districts,
			deal_type = excluded.deal_type,
			price_from = excluded.price_from,
			price_to = excluded.price_to,
			floor_from = excluded.floor_from,
			floor_to = excluded.floor_to,
			rooms_from = excluded.rooms_from,
			rooms_to = excluded.rooms_to,
			bedrooms_from = excluded.bedrooms_from,
			bedrooms_to = excluded.bedrooms_to,
			own_ads = excluded.own_ads,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	if _, err = s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetProfile(ctx, p.ChatID)
}

func (s *storageImpl) GetProfile(ctx context.Context, chatID int64) (*profiles.Profile, error) {
	q, args, err := s.stmpBuilder().
		Select(profileRowFields).
		From(profilesTable).
		Where(sq.Eq{"chat_id": chatID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row profileRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return row.ToModel()
}
