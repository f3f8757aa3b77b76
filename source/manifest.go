package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"flipbook/geometry"
)

// Manifest describes document pre-rendered into images, links are extracted
// in advance (rectangles in page space at scale 1, origin top-left).
type Manifest struct {
	Title        string           `json:"title,omitempty"`
	TotalPages   int              `json:"totalPages"`
	PageSizes    []geometry.Size  `json:"pageSizes,omitempty"`
	Links        [][]ManifestLink `json:"links,omitempty"`
	Low          []string         `json:"low,omitempty"`
	High         []string         `json:"high,omitempty"`
	LowResURLs   []string         `json:"lowResURLs,omitempty"`
	HighResURLs  []string         `json:"highResURLs,omitempty"`
	Destinations map[string]int   `json:"destinations,omitempty"`
}

// ManifestLink is a single precomputed link.
type ManifestLink struct {
	Rect     []float64       `json:"transformedRect"`
	URL      *string         `json:"url,omitempty"`
	Dest     json.RawMessage `json:"dest,omitempty"`
	DestPage *int            `json:"destPage,omitempty"`
}

// ParseManifest decodes and checks manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unable to decode manifest: %w", err)
	}
	if len(m.Low) == 0 {
		m.Low = m.LowResURLs
	}
	if len(m.High) == 0 {
		m.High = m.HighResURLs
	}
	m.LowResURLs, m.HighResURLs = nil, nil

	if m.TotalPages < 0 {
		return nil, fmt.Errorf("negative page count %d", m.TotalPages)
	}
	if m.TotalPages == 0 {
		m.TotalPages = max(len(m.Low), len(m.High))
	}
	if m.TotalPages > 0 && len(m.Low) == 0 && len(m.High) == 0 {
		return nil, errors.New("manifest has no page images")
	}
	for i, s := range m.PageSizes {
		if s.IsZero() {
			return nil, fmt.Errorf("page %d has invalid size %vx%v", i, s.Width, s.Height)
		}
	}
	return &m, nil
}

// imageRef returns image location for page, preferring requested list.
func (m *Manifest) imageRef(index int, high bool) (ref string, isHigh bool) {
	pick := func(list []string) string {
		if index < len(list) {
			return strings.TrimSpace(list[index])
		}
		return ""
	}
	if high {
		if ref = pick(m.High); len(ref) > 0 {
			return ref, true
		}
		return pick(m.Low), false
	}
	if ref = pick(m.Low); len(ref) > 0 {
		return ref, false
	}
	return pick(m.High), true
}

// pageSize returns natural size of page if manifest knows it.
func (m *Manifest) pageSize(index int) (geometry.Size, bool) {
	switch {
	case index < len(m.PageSizes):
		return m.PageSizes[index], true
	case len(m.PageSizes) > 0:
		return m.PageSizes[0], true
	}
	return geometry.Size{}, false
}

// target interprets link destination, named destinations are resolved against
// manifest table.
func (m *Manifest) target(l ManifestLink) (Target, error) {
	if l.URL != nil && len(*l.URL) > 0 {
		return URLTarget(*l.URL), nil
	}
	if l.DestPage != nil {
		return PageTarget(*l.DestPage), nil
	}
	if len(l.Dest) == 0 || string(l.Dest) == "null" {
		return Target{}, errNoTarget
	}

	var name string
	if err := json.Unmarshal(l.Dest, &name); err == nil {
		if index, ok := m.Destinations[name]; ok {
			return PageTarget(index), nil
		}
		return Target{}, &LinkResolutionError{Destination: name, Err: errors.New("not in destinations table")}
	}
	var number int
	if err := json.Unmarshal(l.Dest, &number); err == nil {
		return PageNumberTarget(number), nil
	}
	// explicit destination array, only numeric page reference is usable
	var explicit []json.RawMessage
	if err := json.Unmarshal(l.Dest, &explicit); err == nil && len(explicit) > 0 {
		var index int
		if err := json.Unmarshal(explicit[0], &index); err == nil {
			return PageTarget(index), nil
		}
	}
	return Target{}, &LinkResolutionError{Destination: string(l.Dest), Err: errors.New("unsupported destination")}
}
