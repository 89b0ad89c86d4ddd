// internal/catalog/catalog.go
package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/jason-s-yu/plaza/internal/models"
)

// ErrGameNotFound is returned by Get for an unknown id.
var ErrGameNotFound = errors.New("game not found")

// Catalog is the keyed store of saved games. Games are only ever added; there is no
// update of plays/likes and no delete.
type Catalog interface {
	Save(ctx context.Context, g *models.Game) error
	Get(ctx context.Context, id string) (*models.Game, error)
	// List returns every game ordered by creation time, oldest first.
	List(ctx context.Context) ([]*models.Game, error)
	Count(ctx context.Context) (int, error)
}

func sortGames(games []*models.Game) {
	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})
}
