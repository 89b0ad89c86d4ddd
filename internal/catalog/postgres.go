// internal/catalog/postgres.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/plaza/internal/models"
)

// Postgres stores the catalog in the saved_games table (see database.EnsureSchema).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var (
	_ Catalog    = (*Postgres)(nil)
	_ BatchSaver = (*Postgres)(nil)
)

const gameColumns = `id, title, description, creator, creator_id, created_at, payload, plays, likes`

const upsertGame = `
	INSERT INTO saved_games (` + gameColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		payload = EXCLUDED.payload
`

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (p *Postgres) Save(ctx context.Context, g *models.Game) error {
	return saveGame(ctx, p.pool, g)
}

// SaveBatch writes games in a single transaction; either all of them land or none do.
func (p *Postgres) SaveBatch(ctx context.Context, games []*models.Game) error {
	return pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, g := range games {
			if err := saveGame(ctx, tx, g); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveGame(ctx context.Context, db execer, g *models.Game) error {
	var payload []byte
	if len(g.Payload) > 0 {
		payload = g.Payload
	}
	_, err := db.Exec(ctx, upsertGame,
		g.ID, g.Title, g.Description, g.Creator, g.CreatorID, g.CreatedAt, payload, g.Plays, g.Likes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game %s: %w", g.ID, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*models.Game, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM saved_games WHERE id = $1`, id)
	g, err := scanGame(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}
	return g, nil
}

func (p *Postgres) List(ctx context.Context) ([]*models.Game, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+gameColumns+` FROM saved_games ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := []*models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM saved_games`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return n, nil
}

func scanGame(row pgx.Row) (*models.Game, error) {
	var g models.Game
	var payload []byte
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Creator, &g.CreatorID, &g.CreatedAt, &payload, &g.Plays, &g.Likes); err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		g.Payload = json.RawMessage(payload)
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return &g, nil
}
