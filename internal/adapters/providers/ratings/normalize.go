package ratings

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number unmarshals a provider field that arrives as either a JSON number or
// a numeric string ("4.5" and 4.5 normalize identically).
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// Record is the canonical view of a ratings provider location after
// normalizing the response shapes seen in the wild.
type Record struct {
	LocationID  string   `json:"location_id"`
	Name        string   `json:"name"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *uint    `json:"num_reviews,omitempty"`
	PriceLevel  string   `json:"price_level,omitempty"`
	Website     string   `json:"website,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Address     string   `json:"address,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	PhotoCount  uint     `json:"photo_count"`
}

// rawLocation mirrors the provider's location payload. Details may nest a
// second copy of the same shape carrying the authoritative fields.
type rawLocation struct {
	LocationID string  `json:"location_id"`
	Name       string  `json:"name"`
	Rating     *Number `json:"rating"`
	NumReviews *Number `json:"num_reviews"`
	PriceLevel string  `json:"price_level"`
	Website    string  `json:"website"`
	Phone      string  `json:"phone"`
	Latitude   *Number `json:"latitude"`
	Longitude  *Number `json:"longitude"`
	AddressObj struct {
		AddressString string `json:"address_string"`
	} `json:"address_obj"`
	Photos  []json.RawMessage `json:"photos"`
	Details *rawLocation      `json:"details"`
}

// decodeLocations extracts location records from a search response, accepting
// both the `{"data": [...]}` and the single-object `{"data": {...}}` variants.
func decodeLocations(body []byte) ([]rawLocation, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	if data[0] == '[' {
		var locations []rawLocation
		if err := json.Unmarshal(data, &locations); err != nil {
			return nil, err
		}
		return locations, nil
	}

	var single rawLocation
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []rawLocation{single}, nil
}

// normalize maps a raw location, folding in its nested details when present.
// Details fields win over search fields since the details call is the
// authoritative source.
func normalize(raw rawLocation) Record {
	rec := Record{
		LocationID: raw.LocationID,
		Name:       raw.Name,
		PriceLevel: raw.PriceLevel,
		Website:    raw.Website,
		Phone:      raw.Phone,
		Address:    raw.AddressObj.AddressString,
		PhotoCount: uint(len(raw.Photos)),
	}
	rec.Rating = floatValue(raw.Rating)
	rec.ReviewCount = uintValue(raw.NumReviews)
	rec.Latitude = floatValue(raw.Latitude)
	rec.Longitude = floatValue(raw.Longitude)

	if raw.Details != nil {
		detail := normalize(*raw.Details)
		rec = merge(rec, detail)
	}
	return rec
}

// merge overlays the authoritative record on top of the base, keeping base
// values only where the overlay has none.
func merge(base, overlay Record) Record {
	out := base
	if overlay.LocationID != "" {
		out.LocationID = overlay.LocationID
	}
	if overlay.Name != "" {
		out.Name = overlay.Name
	}
	if overlay.Rating != nil {
		out.Rating = overlay.Rating
	}
	if overlay.ReviewCount != nil {
		out.ReviewCount = overlay.ReviewCount
	}
	if overlay.PriceLevel != "" {
		out.PriceLevel = overlay.PriceLevel
	}
	if overlay.Website != "" {
		out.Website = overlay.Website
	}
	if overlay.Phone != "" {
		out.Phone = overlay.Phone
	}
	if overlay.Address != "" {
		out.Address = overlay.Address
	}
	if overlay.Latitude != nil {
		out.Latitude = overlay.Latitude
	}
	if overlay.Longitude != nil {
		out.Longitude = overlay.Longitude
	}
	if overlay.PhotoCount > 0 {
		out.PhotoCount = overlay.PhotoCount
	}
	return out
}

func floatValue(n *Number) *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}

func uintValue(n *Number) *uint {
	if n == nil {
		return nil
	}
	if *n < 0 {
		return nil
	}
	v := uint(*n)
	return &v
}

// normalizeName strips all non-alphanumeric characters and lowercases, so
// "Joe's Pizza" and "Joes Pizza" compare equal.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// selectBestMatch applies the matching policy: first exact normalized-name
// match, then substring containment in either direction, then the first
// record returned.
func selectBestMatch(name string, locations []rawLocation) rawLocation {
	target := normalizeName(name)

	for _, loc := range locations {
		if normalizeName(loc.Name) == target {
			return loc
		}
	}
	for _, loc := range locations {
		candidate := normalizeName(loc.Name)
		if candidate == "" || target == "" {
			continue
		}
		if strings.Contains(candidate, target) || strings.Contains(target, candidate) {
			return loc
		}
	}
	return locations[0]
}
