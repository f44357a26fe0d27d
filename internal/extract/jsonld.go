// Package extract pulls ratings, reviewers, dates and review prose out of
// JSON-LD payloads and the handful of HTML shapes the review sites use.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
	"github.com/alexmaslar/riff-plugin-editorial/internal/normalize"
)

// DefaultBestRating is assumed when a rating carries no bestRating.
const DefaultBestRating = 10.0

// Number is a JSON value that may be written either as a number or as a
// numeric string. Valid is false when the field was absent, null or not
// numeric.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON accepts 7.5, "7.5" and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode numeric string: %w", err)
		}
		text = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	n.Value, n.Valid = v, true
	return nil
}

// Person is a schema.org author or byArtist entry.
type Person struct {
	Name string `json:"name"`
}

// Persons holds either a single person object or an array of them.
type Persons []Person

// UnmarshalJSON accepts {"name":...}, [{"name":...}] and null.
func (p *Persons) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*p = nil
	case data[0] == '[':
		var list []Person
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode person list: %w", err)
		}
		*p = list
	case data[0] == '{':
		var one Person
		if err := json.Unmarshal(data, &one); err != nil {
			return fmt.Errorf("decode person: %w", err)
		}
		*p = Persons{one}
	default:
		*p = nil
	}
	return nil
}

// First returns the first non-blank name.
func (p Persons) First() (string, bool) {
	if len(p) == 0 {
		return "", false
	}
	name := strings.TrimSpace(p[0].Name)
	return name, name != ""
}

// Rating is a schema.org Rating or AggregateRating.
type Rating struct {
	RatingValue Number `json:"ratingValue"`
	BestRating  Number `json:"bestRating"`
	RatingCount Number `json:"ratingCount"`
}

// Normalized returns the rating on a 0-10 scale.
func (r Rating) Normalized() (float64, bool) {
	if !r.RatingValue.Valid {
		return 0, false
	}
	var best *float64
	if r.BestRating.Valid {
		best = &r.BestRating.Value
	}
	return NormalizeRating(r.RatingValue.Value, best)
}

// Count returns ratingCount when it is a non-negative whole number.
func (r Rating) Count() *uint32 {
	if !r.RatingCount.Valid {
		return nil
	}
	v := r.RatingCount.Value
	if v < 0 || v > float64(^uint32(0)) || v != float64(uint32(v)) {
		return nil
	}
	count := uint32(v)
	return &count
}

// Types holds a schema.org @type written as a string or an array of strings.
type Types []string

// UnmarshalJSON accepts "MusicAlbum", ["MusicAlbum","Product"] and null.
// Any other shape decodes as no types.
func (t *Types) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = nil
	switch {
	case len(data) == 0:
	case data[0] == '"':
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return fmt.Errorf("decode type: %w", err)
		}
		*t = Types{one}
	case data[0] == '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode type list: %w", err)
		}
		for _, raw := range list {
			var name string
			if json.Unmarshal(raw, &name) == nil {
				*t = append(*t, name)
			}
		}
	}
	return nil
}

// Has reports whether name is one of the declared types.
func (t Types) Has(name string) bool {
	return slices.Contains(t, name)
}

// MusicAlbum is the subset of a schema.org MusicAlbum the adapters read.
type MusicAlbum struct {
	Type            Types        `json:"@type"`
	AggregateRating *Rating      `json:"aggregateRating"`
	ByArtist        Persons      `json:"byArtist"`
	Reviews         AlbumReviews `json:"review"`
	DatePublished   string       `json:"datePublished"`
}

// IsMusicAlbum reports whether the payload declared itself a MusicAlbum.
func (a MusicAlbum) IsMusicAlbum() bool {
	return a.Type.Has("MusicAlbum")
}

// AlbumReview is the review nested inside a MusicAlbum.
type AlbumReview struct {
	ReviewRating  *Rating `json:"reviewRating"`
	Author        Persons `json:"author"`
	DatePublished string  `json:"datePublished"`
	ReviewBody    string  `json:"reviewBody"`
}

// AlbumReviews holds either a single review object or an array of them.
type AlbumReviews []AlbumReview

// UnmarshalJSON accepts {...}, [{...}] and null.
func (r *AlbumReviews) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = nil
	case data[0] == '[':
		var list []AlbumReview
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode review list: %w", err)
		}
		*r = list
	case data[0] == '{':
		var one AlbumReview
		if err := json.Unmarshal(data, &one); err != nil {
			return fmt.Errorf("decode review: %w", err)
		}
		*r = AlbumReviews{one}
	default:
		*r = nil
	}
	return nil
}

// ArticleReview is a top-level Review payload.
type ArticleReview struct {
	ReviewBody    string  `json:"reviewBody"`
	Author        Persons `json:"author"`
	DatePublished string  `json:"datePublished"`
}

// Decode unmarshals a JSON-LD payload, mapping failures to
// editorial.ErrMalformedData.
func Decode(payload string, v any) error {
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: json-ld: %v", editorial.ErrMalformedData, err)
	}
	return nil
}

// DecodeAlbums decodes a payload holding one MusicAlbum or an array of
// schema.org objects and returns the entries typed MusicAlbum.
func DecodeAlbums(payload string) ([]MusicAlbum, error) {
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "[") {
		var list []MusicAlbum
		if err := Decode(trimmed, &list); err != nil {
			return nil, err
		}
		albums := list[:0]
		for _, a := range list {
			if a.IsMusicAlbum() {
				albums = append(albums, a)
			}
		}
		return albums, nil
	}
	var album MusicAlbum
	if err := Decode(trimmed, &album); err != nil {
		return nil, err
	}
	if !album.IsMusicAlbum() {
		return nil, nil
	}
	return []MusicAlbum{album}, nil
}

// NormalizeRating maps value onto 0-10. best defaults to 10; a non-positive
// best or a result outside 0-10 is rejected.
func NormalizeRating(value float64, best *float64) (float64, bool) {
	scale := DefaultBestRating
	if best != nil {
		scale = *best
	}
	if !(scale > 0) {
		return 0, false
	}
	rating := value
	if scale != DefaultBestRating {
		rating = value / scale * DefaultBestRating
	}
	if !InRange(rating) {
		return 0, false
	}
	return rating, true
}

// InRange reports whether v lies on the closed 0-10 scale. NaN is rejected.
func InRange(v float64) bool {
	return v >= 0 && v <= 10
}

// VerifyArtist reports whether any credited artist's slug contains
// artistSlug. An empty artistSlug always verifies.
func VerifyArtist(artists Persons, artistSlug string) bool {
	if artistSlug == "" {
		return true
	}
	for _, a := range artists {
		if a.Name != "" && strings.Contains(normalize.Slugify(a.Name), artistSlug) {
			return true
		}
	}
	return false
}
