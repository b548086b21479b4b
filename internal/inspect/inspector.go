// Package inspect loads PRTG map pages and counts the sensor status markers
// on them.
package inspect

import (
	"context"
	"errors"
	"fmt"

	"github.com/sznuper/prtgwatch/internal/status"
)

// ErrInspectionFailed is wrapped by every error Inspect returns: the page
// could not be loaded, or it carried no status markers.
var ErrInspectionFailed = errors.New("inspection failed")

// Renderer loads a page and returns it ready for querying.
type Renderer interface {
	Render(ctx context.Context, url string) (*Document, error)
}

// Inspector counts marker classes on rendered pages. It never retries.
type Inspector struct {
	renderer Renderer
}

func New(r Renderer) *Inspector {
	return &Inspector{renderer: r}
}

// Inspect loads url and counts each known marker. A page without any marker
// is a failure, not a healthy map: a correctly configured map always shows at
// least one sensor.
func (i *Inspector) Inspect(ctx context.Context, url string) (status.Counts, error) {
	doc, err := i.renderer.Render(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInspectionFailed, err)
	}

	counts := make(status.Counts, len(status.Markers))
	total := 0
	for _, m := range status.Markers {
		if n := doc.CountClass(string(m)); n > 0 {
			counts[m] = n
			total += n
		}
	}

	if total == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInspectionFailed, status.ErrNoMarkers)
	}
	return counts, nil
}
