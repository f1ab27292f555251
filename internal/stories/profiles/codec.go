package profiles

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// ErrInvalidSettings is returned for payloads that are not a settings object.
var ErrInvalidSettings = errors.New("invalid settings payload")

// DecodeSettings parses the web app settings payload. Numbers may arrive as
// JSON numbers or as strings with thousands separators ("1 500"); values that
// cannot be read fall back to zero.
func DecodeSettings(data []byte) (Profile, error) {
	var p Profile

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return Profile{}, ErrInvalidSettings
	}

	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "city":
			p.City, err = decodeString(d)
		case "deal_type":
			p.DealType, err = decodeString(d)
		case "districts":
			p.Districts, err = decodeStrings(d)
		case "price_from":
			p.PriceFrom, err = decodeInt(d)
		case "price_to":
			p.PriceTo, err = decodeInt(d)
		case "floor_from":
			p.FloorFrom, err = decodeInt(d)
		case "floor_to":
			p.FloorTo, err = decodeInt(d)
		case "rooms_from":
			p.RoomsFrom, err = decodeInt(d)
		case "rooms_to":
			p.RoomsTo, err = decodeInt(d)
		case "bedrooms_from":
			p.BedroomsFrom, err = decodeInt(d)
		case "bedrooms_to":
			p.BedroomsTo, err = decodeInt(d)
		case "own_ads":
			p.OwnAds, err = decodeBool(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	return p, nil
}

// EncodeDistricts stores the district list as a JSON array.
func EncodeDistricts(districts []string) string {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, d := range districts {
			e.Str(d)
		}
	})
	return e.String()
}

func DecodeDistricts(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	return decodeStrings(jx.DecodeStr(s))
}

func decodeString(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		return strings.TrimSpace(s), err
	case jx.Null:
		return "", d.Null()
	default:
		return "", d.Skip()
	}
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	switch d.Next() {
	case jx.Array:
	case jx.String:
		// a single district sent as a plain string
		s, err := decodeString(d)
		if err != nil || s == "" {
			return nil, err
		}
		return []string{s}, nil
	default:
		return nil, d.Skip()
	}

	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := decodeString(d)
		if err != nil {
			return err
		}
		if s != "" {
			out = append(out, s)
		}
		return nil
	})
	return out, err
}

func decodeInt(d *jx.Decoder) (int, error) {
	switch d.Next() {
	case jx.Number:
		f, err := d.Float64()
		return int(f), err
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(strings.ReplaceAll(s, " ", ""))
		if convErr != nil {
			return 0, nil
		}
		return n, nil
	default:
		return 0, d.Skip()
	}
}

func decodeBool(d *jx.Decoder) (bool, error) {
	switch d.Next() {
	case jx.Bool:
		return d.Bool()
	case jx.String:
		s, err := d.Str()
		return s == "true" || s == "1", err
	default:
		return false, d.Skip()
	}
}
