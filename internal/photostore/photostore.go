package photostore

import (
	"context"
	"crypto/md5" //nolint:gosec // MD5 used for stable photo IDs, not security
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"photoreel/internal/logging"
	"photoreel/internal/workers"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the maximum width or height we'll decode.
	// Larger images are downscaled during load.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels we'll decode.
	// ~20MP uses ~80MB as NRGBA.
	MaxImagePixels = 20_000_000
)

// PhotoRecord identifies one photo in a gallery. Records are immutable
// after creation; the underlying image bytes are owned by the store
// and only read when a frame actually needs them.
type PhotoRecord struct {
	ID         string
	CapturedAt time.Time
	Path       string
	Width      int
	Height     int
}

// Store is the photo library boundary the orchestrator depends on.
type Store interface {
	// List returns the available photos sorted by capture time
	// ascending.
	List(ctx context.Context) ([]PhotoRecord, error)

	// Load decodes a photo. The target dimensions are a hint for
	// decode-time shrinking; the returned frame may be larger.
	Load(ctx context.Context, rec PhotoRecord, targetWidth, targetHeight int) (*image.NRGBA, error)
}

// DirStore is a Store over a directory of image files.
type DirStore struct {
	dir string
}

// NewDirStore creates a store over the given directory.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// recordID derives a stable photo ID from its path relative to the
// store root.
func recordID(relPath string) string {
	hash := md5.Sum([]byte(relPath)) //nolint:gosec
	return fmt.Sprintf("%x", hash)
}

// List walks the directory, recognizes photo files and returns them
// sorted by capture time. Files are probed by a bounded worker pool;
// unreadable or non-image files are skipped with a debug log.
func (s *DirStore) List(ctx context.Context) ([]PhotoRecord, error) {
	var paths []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != s.dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.dir, err)
	}

	jobs := make(chan string)
	results := make(chan PhotoRecord, len(paths))

	numWorkers := workers.ForIO(8)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				rec, ok := s.probe(path)
				if ok {
					results <- rec
				}
			}
		}()
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	records := make([]PhotoRecord, 0, len(paths))
	for rec := range results {
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CapturedAt.Equal(records[j].CapturedAt) {
			return records[i].CapturedAt.Before(records[j].CapturedAt)
		}
		return records[i].Path < records[j].Path
	})

	logging.Debug("photo store: %d photos in %s (%d files scanned)", len(records), s.dir, len(paths))
	return records, nil
}

// probe checks whether a file is a decodable photo and builds its
// record.
func (s *DirStore) probe(path string) (PhotoRecord, bool) {
	info, err := os.Stat(path)
	if err != nil {
		logging.Debug("photo store: skipping %s: %v", path, err)
		return PhotoRecord{}, false
	}

	format, err := sniffImageType(path)
	if err != nil || format == "unknown" {
		if !hasImageExt(path) {
			return PhotoRecord{}, false
		}
	}

	dims, err := imageDimensions(path)
	if err != nil {
		logging.Debug("photo store: %s not decodable: %v", path, err)
		return PhotoRecord{}, false
	}

	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		rel = path
	}

	return PhotoRecord{
		ID:         recordID(rel),
		CapturedAt: info.ModTime(),
		Path:       path,
		Width:      dims.Width,
		Height:     dims.Height,
	}, true
}

// Load decodes a photo into an NRGBA frame, shrinking oversized images
// during load. The vips fast path is used when available.
func (s *DirStore) Load(ctx context.Context, rec PhotoRecord, targetWidth, targetHeight int) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if IsVipsAvailable() && targetWidth > 0 && targetHeight > 0 {
		img, err := loadWithVips(rec.Path, targetWidth, targetHeight)
		if err == nil {
			return imaging.Clone(img), nil
		}
		logging.Debug("vips load failed for %s: %v, falling back", rec.Path, err)
	}

	img, err := loadConstrained(rec.Path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rec.Path, err)
	}
	return imaging.Clone(img), nil
}

// loadConstrained loads an image, downscaling during load if it
// exceeds the size limits. This bounds decode memory for very large
// photos.
func loadConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dims, err := imageDimensions(path)
	if err != nil {
		logging.Debug("could not get dimensions for %s: %v, loading directly", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	width, height := dims.Width, dims.Height
	pixels := width * height

	if width <= maxDimension && height <= maxDimension && pixels <= maxPixels {
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	targetWidth, targetHeight := width, height
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}
	if targetWidth*targetHeight > maxPixels {
		scale := float64(maxPixels) / float64(targetWidth*targetHeight)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	logging.Info("constraining large photo %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// Dimensions holds image width and height.
type Dimensions struct {
	Width  int
	Height int
}

// imageDimensions returns image dimensions without fully decoding.
func imageDimensions(path string) (*Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}
	return &Dimensions{Width: config.Width, Height: config.Height}, nil
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true, ".tif": true,
	".heic": true, ".heif": true, ".avif": true, ".jxl": true,
}

func hasImageExt(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}
