// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/uno/internal/cache"
)

// SeatResult is one row of game_results.
type SeatResult struct {
	SeatID   string
	Name     string
	IsBot    bool
	HandSize int
	DidWin   bool
}

// StartGame records a freshly dealt game together with its initial table.
func StartGame(ctx context.Context, gameID uuid.UUID, roomID string, seed int64, initialState []byte) error {
	q := `
		INSERT INTO games (id, room_id, status, seed, initial_game_state, start_time)
		VALUES ($1, $2, 'in_progress', $3, $4, NOW())
		ON CONFLICT (id)
		DO UPDATE SET room_id = EXCLUDED.room_id, seed = EXCLUDED.seed,
			initial_game_state = EXCLUDED.initial_game_state
	`
	err := inTx(ctx, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, gameID, roomID, seed, initialState)
		return e
	})
	if err != nil {
		return fmt.Errorf("storing initial game state for %s: %w", gameID, err)
	}
	return nil
}

// RecordGameResult persists the final outcome of a game: the games row is completed
// and every seat gets a game_results row with its final hand size.
func RecordGameResult(ctx context.Context, gameID uuid.UUID, winnerSeatID string, results []SeatResult, finalState []byte) error {
	err := inTx(ctx, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, status, winner_seat_id, final_game_state, end_time)
			VALUES ($1, 'completed', $2, $3, NOW())
			ON CONFLICT (id) DO UPDATE SET status = 'completed', winner_seat_id = $2,
				final_game_state = $3, end_time = NOW()
		`
		if _, e := tx.Exec(ctx, upsertGame, gameID, winnerSeatID, finalState); e != nil {
			return e
		}

		q := `
			INSERT INTO game_results (game_id, seat_id, seat_name, is_bot, hand_size, did_win)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (game_id, seat_id)
			DO UPDATE SET hand_size = $5, did_win = $6
		`
		for _, r := range results {
			if _, e := tx.Exec(ctx, q, gameID, r.SeatID, r.Name, r.IsBot, r.HandSize, r.DidWin); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or results: %w", err)
	}
	return nil
}

// InsertGameActions writes a batch of history records in one transaction. Records
// already stored under the same (game, index) are skipped, and a game_end record
// completes its game.
func InsertGameActions(ctx context.Context, recs []cache.GameActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return inTx(ctx, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %d of game %s: %w", rec.ActionIndex, rec.GameID, err)
			}
		}
		return nil
	})
}

func insertGameActionTx(ctx context.Context, tx pgx.Tx, rec cache.GameActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO game_actions (
			game_id, action_index, actor_seat_id, action_type, action_payload, action_time
		) VALUES ($1, $2, $3, $4, $5, to_timestamp($6::double precision / 1000))
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.GameID, rec.ActionIndex, rec.ActorSeatID, rec.ActionType, payload, rec.Timestamp,
	)
	if err != nil {
		return err
	}

	if rec.ActionType == "game_end" {
		finalizeQ := `
			UPDATE games
			SET status = 'completed', end_time = COALESCE(end_time, NOW())
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.GameID); err != nil {
			return err
		}
	}
	return nil
}

// MarkGameAbandoned flags a game still in progress as abandoned. It reports
// whether a row changed.
func MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	var changed bool
	err := inTx(ctx, func(tx pgx.Tx) error {
		tag, e := tx.Exec(ctx, `
			UPDATE games
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`, gameID)
		changed = tag.RowsAffected() > 0
		return e
	})
	if err != nil {
		return false, fmt.Errorf("mark game %s abandoned: %w", gameID, err)
	}
	return changed, nil
}
