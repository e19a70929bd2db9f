package nadeo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2qar/trackmania-bot/internal/domain"
)

// fakeServices stands in for the core and live endpoints behind one mux.
func fakeServices(t *testing.T) (*Client, *httptest.Server, *int) {
	t.Helper()
	authCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/authentication/token/basic", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "login", user)
		assert.Equal(t, "pass", pass)
		authCalls++
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-123"})
	})
	mux.HandleFunc("/maps/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "nadeo_v1 t=tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "M1", r.URL.Query().Get("mapUidList"))
		fmt.Fprint(w, `[{"name":"cool map","authorName":"mapper","mapUid":"M1",
			"thumbnailUrl":"https://x/t.jpg","authorScore":43123,"goldScore":45000,
			"silverScore":50000,"bronzeScore":60000}]`)
	})
	mux.HandleFunc("/api/token/leaderboard/group/G1/map/M1/top", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "990", r.URL.Query().Get("offset"))
		fmt.Fprint(w, `{"tops":[{"zoneName":"World","top":[
			{"accountId":"acct-1","position":991,"score":43123}]}]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient("login", "pass")
	c.coreURL = srv.URL
	c.liveURL = srv.URL
	c.meetURL = srv.URL
	return c, srv, &authCalls
}

func TestMapLookupAuthenticatesOnceAndCachesToken(t *testing.T) {
	c, _, authCalls := fakeServices(t)

	info, err := c.GetTrackInfo(context.Background(), "Map Search", "M1", "G1")
	require.NoError(t, err)
	assert.Equal(t, "Map Search", info.Label)
	assert.Equal(t, "cool map", info.Name)
	assert.Equal(t, "mapper", info.Author)
	assert.Equal(t, "G1", info.GroupUID)
	assert.Equal(t, 43123, info.AuthorTime)

	_, err = c.GetTrackInfo(context.Background(), "Map Search", "M1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, *authCalls)
}

func TestLeaderboardParsesCursorAsOffset(t *testing.T) {
	c, _, _ := fakeServices(t)

	page, err := c.Leaderboard(context.Background(),
		domain.TrackRef{GroupUID: "G1", MapUID: "M1"}, "990", true, "")
	require.NoError(t, err)
	assert.Equal(t, 990, page.Offset)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, 991, page.Entries[0].Position)
	assert.Equal(t, "acct-1", page.Entries[0].AccountID)
}

func TestLeaderboardRejectsNonNumericCursor(t *testing.T) {
	c, _, _ := fakeServices(t)

	_, err := c.Leaderboard(context.Background(),
		domain.TrackRef{GroupUID: "G1", MapUID: "M1"}, "bogus", true, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cursor")
}

func TestTrackOfTheDayForPastDate(t *testing.T) {
	now := time.Now().UTC()
	// Last day of the previous month, so the month offset is always 1.
	target := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/authentication/token/basic", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-123"})
	})
	mux.HandleFunc("/api/token/campaign/month", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("offset"))
		fmt.Fprintf(w, `{"monthList":[{"year":%d,"month":%d,"days":[
			{"mapUid":"M1","monthDay":%d,"seasonUid":"S1","startTimestamp":1,"endTimestamp":2}]}]}`,
			target.Year(), int(target.Month()), target.Day())
	})
	mux.HandleFunc("/maps/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name":"old map","authorName":"mapper","mapUid":"M1"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient("login", "pass")
	c.coreURL = srv.URL
	c.liveURL = srv.URL

	info, err := c.TrackOfTheDay(context.Background(), &target)
	require.NoError(t, err)

	wantDay := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	assert.Equal(t, "Track of the Day - "+wantDay, info.Label)
	assert.Equal(t, "S1", info.GroupUID)
	assert.Equal(t, int64(2), info.EndTimestamp)
}
