package source

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// ManifestName is looked up when directory is opened.
const ManifestName = "manifest.json"

// Options controls how Open builds source.
type Options struct {
	LowFidelityScale float64
	CodePage         encoding.Encoding // zip entry names
	Client           *http.Client      // remote manifests and images
}

// Open picks source implementation by location: manifest (".json" file, URL
// or directory holding manifest.json) becomes PrecomputedImageSource, zip
// archive or directory of images becomes RasterDocumentSource over Book.
// Failures are *SourceLoadError.
func Open(ctx context.Context, location string, opts Options, log *zap.Logger) (PageSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SourceLoadError{Location: location, Err: err}
	}
	if isRemote(location) || strings.EqualFold(filepath.Ext(location), ".json") {
		return OpenManifest(ctx, location, opts.Client, opts.LowFidelityScale, log)
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, &SourceLoadError{Location: location, Err: err}
	}
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(location, ManifestName)); err == nil {
			return OpenManifest(ctx, filepath.Join(location, ManifestName), opts.Client, opts.LowFidelityScale, log)
		}
	}

	book, err := OpenBook(location, opts.CodePage)
	if err != nil {
		return nil, &SourceLoadError{Location: location, Err: err}
	}
	log.Debug("Opened book", zap.String("location", location), zap.Int("pages", book.NumPages()))
	return NewRasterDocumentSource(book, opts.LowFidelityScale, log), nil
}
