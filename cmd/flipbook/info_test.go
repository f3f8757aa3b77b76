package main

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"seehuhn.de/go/geom/rect"

	"flipbook/common"
	"flipbook/geometry"
	"flipbook/source"
)

type infoSource struct {
	count int
	bad   int
	links map[int][]source.Link
}

func (s *infoSource) PageCount() int { return s.count }

func (s *infoSource) NaturalSize(_ context.Context, index int) (geometry.Size, error) {
	if index == s.bad {
		return geometry.Size{}, errors.New("boom")
	}
	return geometry.Size{Width: 350, Height: 460}, nil
}

func (s *infoSource) Raster(context.Context, source.Request) (*source.Raster, error) {
	return nil, errors.New("not used")
}

func (s *infoSource) Links(_ context.Context, index int, _ geometry.Size) ([]source.Link, error) {
	return s.links[index], nil
}

func (s *infoSource) Resolve(context.Context, string) (int, error) {
	return 0, errors.New("not used")
}

func (s *infoSource) Close() error { return nil }

func TestDescribe(t *testing.T) {
	src := &infoSource{
		count: 4,
		bad:   2,
		links: map[int][]source.Link{
			0: {
				{Rect: rect.Rect{LLx: 10, LLy: 20, URx: 110, URy: 60}, Target: source.URLTarget("https://example.com")},
				{Rect: rect.Rect{URx: 50, URy: 50}, Target: source.PageNumberTarget(3)},
			},
		},
	}

	got, err := describe(context.Background(), "book", src, common.ViewModeDouble, true, 0)
	if errs := multierr.Errors(err); len(errs) != 1 || errs[0].Error() != "boom" {
		t.Errorf("errors = %v", errs)
	}

	want := `document: "book"
  pages: 4
  mode: double cover: true
  page 1
    size: 350x460
    link: [10 20 110 60]
      target: https://example.com
    link: [0 0 50 50]
      target: page #3
  page 2
    size: 350x460
  page 3
    error: "boom"
  page 4
    size: 350x460
  spreads: 3
    [0]: "1 / 4"
    [1 2]: "2-3 / 4"
    [3]: "4 / 4"
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("describe mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribeSinglePage(t *testing.T) {
	src := &infoSource{count: 2, bad: -1}

	got, err := describe(context.Background(), "book", src, common.ViewModeSingle, true, 0)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	want := `document: "book"
  pages: 2
  mode: single cover: true
  page 1
    size: 350x460
  page 2
    size: 350x460
  spreads: 2
    [0]: "1 / 2"
    [1]: "2 / 2"
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("describe mismatch (-want +got):\n%s", diff)
	}
}
