package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrMalformed is returned when a sidecar exists but cannot be used
var ErrMalformed = errors.New("malformed sidecar")

// MaxKeywordLength is the IPTC limit for a single keyword
const MaxKeywordLength = 64

// Record is the subset of a takeout sidecar written back into media files
type Record struct {
	Title          string
	Description    string
	PhotoTakenTime time.Time
	CreationTime   *time.Time
	Geo            *Geo
	People         []string
}

// Geo is a WGS84 position. Altitude is metres above sea level.
type Geo struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// document mirrors the JSON written by the exporter
type document struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	PhotoTakenTime *timestamp `json:"photoTakenTime"`
	CreationTime   *timestamp `json:"creationTime"`
	GeoData        *geoData   `json:"geoData"`
	GeoDataExif    *geoData   `json:"geoDataExif"`
	People         []person   `json:"people"`
}

type timestamp struct {
	Timestamp json.Number `json:"timestamp"`
	Formatted string      `json:"formatted"`
}

type geoData struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Altitude      float64 `json:"altitude"`
	LatitudeSpan  float64 `json:"latitudeSpan"`
	LongitudeSpan float64 `json:"longitudeSpan"`
}

type person struct {
	Name string `json:"name"`
}

// Load reads and parses the sidecar at path
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}
	rec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// Parse decodes a sidecar document. Every validation failure wraps ErrMalformed.
func Parse(data []byte) (*Record, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if doc.PhotoTakenTime == nil || doc.PhotoTakenTime.Timestamp == "" {
		return nil, fmt.Errorf("%w: photoTakenTime.timestamp is missing", ErrMalformed)
	}
	taken, err := doc.PhotoTakenTime.time()
	if err != nil {
		return nil, fmt.Errorf("%w: photoTakenTime: %v", ErrMalformed, err)
	}

	rec := &Record{
		Title:          doc.Title,
		Description:    strings.TrimSpace(doc.Description),
		PhotoTakenTime: taken,
	}

	if doc.CreationTime != nil && doc.CreationTime.Timestamp != "" {
		created, err := doc.CreationTime.time()
		if err != nil {
			return nil, fmt.Errorf("%w: creationTime: %v", ErrMalformed, err)
		}
		rec.CreationTime = &created
	}

	geo, err := pickGeo(doc.GeoData, doc.GeoDataExif)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	rec.Geo = geo

	for _, p := range doc.People {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		rec.People = append(rec.People, truncate(name, MaxKeywordLength))
	}

	return rec, nil
}

func (t *timestamp) time() (time.Time, error) {
	secs, err := strconv.ParseInt(t.Timestamp.String(), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not an integer", t.Timestamp)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// pickGeo prefers geoData and falls back to geoDataExif. 0/0 means unknown.
func pickGeo(candidates ...*geoData) (*Geo, error) {
	for _, g := range candidates {
		if g == nil || (g.Latitude == 0 && g.Longitude == 0) {
			continue
		}
		if g.Latitude < -90 || g.Latitude > 90 {
			return nil, fmt.Errorf("latitude %f out of range", g.Latitude)
		}
		if g.Longitude < -180 || g.Longitude > 180 {
			return nil, fmt.Errorf("longitude %f out of range", g.Longitude)
		}
		return &Geo{
			Latitude:  g.Latitude,
			Longitude: g.Longitude,
			Altitude:  g.Altitude,
		}, nil
	}
	return nil, nil
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
