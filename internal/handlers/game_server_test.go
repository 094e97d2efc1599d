package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisSessions needs a local Redis; the test is skipped when none answers.
func redisSessions(t *testing.T) *cache.SessionRepo {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return cache.NewSessionRepo(rdb, time.Minute)
}

func TestLookupRestoresFromRedis(t *testing.T) {
	sessions := redisSessions(t)
	gs, srv := newTestServerWith(t, sessions)
	id := uuid.MustParse(createGame(t, srv, twoHumans()))
	t.Cleanup(func() { sessions.Delete(context.Background(), id) })

	resp, _ := postJSON(t, srv.URL+"/api/games/"+id.String()+"/draw", MoveRequest{SeatID: "a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// a restart loses everything in memory
	gs.GameStore.DeleteGame(id)
	require.Equal(t, 0, gs.GameStore.Len())

	resp, out := getJSON(t, srv.URL+"/api/games/"+id.String()+"/state?seatId=b")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), out["version"])
	assert.Equal(t, "b", out["currentSeatId"])
	assert.Equal(t, 1, gs.GameStore.Len())

	resp, out = postJSON(t, srv.URL+"/api/games/"+id.String()+"/draw", MoveRequest{SeatID: "b"})
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	assert.Equal(t, float64(3), out["version"])

	_, version, err := sessions.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
}

func TestLookupUnknownGame(t *testing.T) {
	sessions := redisSessions(t)
	_, srv := newTestServerWith(t, sessions)

	resp, _ := getJSON(t, srv.URL+"/api/games/"+uuid.NewString()+"/state")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRestoredFinishedGameIsEvicted(t *testing.T) {
	sessions := redisSessions(t)
	gs, srv := newTestServerWith(t, sessions)
	gs.EvictAfter = 20 * time.Millisecond

	seed := int64(5)
	id := uuid.MustParse(createGame(t, srv, CreateGameRequest{
		RoomID: "bots-only",
		Seats:  []models.SeatSpec{{ID: "x", Name: "X", IsBot: true}, {ID: "y", Name: "Y", IsBot: true}},
		Seed:   &seed,
	}))
	t.Cleanup(func() { sessions.Delete(context.Background(), id) })

	assert.Eventually(t, func() bool { return gs.GameStore.Len() == 0 }, time.Second, 5*time.Millisecond)

	g, err := gs.Lookup(context.Background(), id)
	require.NoError(t, err)
	require.True(t, g.Snapshot("").Over)
	assert.Equal(t, 1, gs.GameStore.Len())

	assert.Eventually(t, func() bool { return gs.GameStore.Len() == 0 }, time.Second, 5*time.Millisecond,
		"a finished game read back from redis is dropped again")
}

func TestVersionConflictReloadsLatestState(t *testing.T) {
	sessions := redisSessions(t)
	gs, srv := newTestServerWith(t, sessions)
	ctx := context.Background()
	id := uuid.MustParse(createGame(t, srv, twoHumans()))
	t.Cleanup(func() { sessions.Delete(ctx, id) })

	stale, ok := gs.GameStore.GetGame(id)
	require.True(t, ok)

	// another process moves the game on behind our back
	data, version, err := sessions.Load(ctx, id)
	require.NoError(t, err)
	s, err := game.DecodeState(data)
	require.NoError(t, err)
	next, _, err := game.Apply(s, game.DrawIntent("a"))
	require.NoError(t, err)
	encoded, err := game.EncodeState(next)
	require.NoError(t, err)
	require.NoError(t, sessions.Save(ctx, id, version, next.Version, encoded))

	resp, out := postJSON(t, srv.URL+"/api/games/"+id.String()+"/draw", MoveRequest{SeatID: "a"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, out["accepted"])

	_, ok = gs.GameStore.GetGame(id)
	assert.False(t, ok, "the stale game is no longer served")

	g, err := gs.Lookup(ctx, id)
	require.NoError(t, err)
	assert.NotSame(t, stale, g)
	view := g.Snapshot("")
	assert.Equal(t, next.Version, view.Version)
	assert.Equal(t, "b", view.CurrentSeatID)

	resp, out = postJSON(t, srv.URL+"/api/games/"+id.String()+"/draw", MoveRequest{SeatID: "b"})
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	assert.Equal(t, float64(next.Version+1), out["version"])
}
