// internal/catalog/archive.go
package catalog

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/plaza/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultArchiveBatch is the number of games written per transaction by Archive.
const DefaultArchiveBatch = 50

// BatchSaver stores several games at once.
type BatchSaver interface {
	SaveBatch(ctx context.Context, games []*models.Game) error
}

// Archive copies every game in src into dst, batchSize games at a time, oldest first.
// Games already in dst are overwritten with src's copy. It returns the number of games
// written; on error, earlier batches stay committed.
func Archive(ctx context.Context, src Catalog, dst BatchSaver, batchSize int, logger *logrus.Logger) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultArchiveBatch
	}
	games, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("archive: %w", err)
	}

	written := 0
	for start := 0; start < len(games); start += batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		end := min(start+batchSize, len(games))
		if err := dst.SaveBatch(ctx, games[start:end]); err != nil {
			return written, fmt.Errorf("archive: batch at %d: %w", start, err)
		}
		written = end
		logger.Debugf("archived %d/%d games", written, len(games))
	}
	logger.Infof("archived %d games", written)
	return written, nil
}
