// Package nadeo is the data-provider collaborator: a client for the
// Trackmania web services (core, live and meet), authenticated with a
// dedicated server account.
package nadeo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/2qar/trackmania-bot/internal/domain"
)

const (
	defaultCoreURL = "https://prod.trackmania.core.nadeo.online"
	defaultLiveURL = "https://live-services.trackmania.nadeo.live"
	defaultMeetURL = "https://meet.trackmania.nadeo.club"

	audienceCore = "NadeoServices"
	audienceLive = "NadeoLiveServices"

	leaderboardPageSize = 10
)

type token struct {
	value   string
	expires time.Time
}

type Client struct {
	login    string
	password string
	http     *http.Client

	coreURL string
	liveURL string
	meetURL string

	mu     sync.Mutex
	tokens map[string]token
}

func NewClient(login, password string) *Client {
	return &Client{
		login:    login,
		password: password,
		http:     &http.Client{Timeout: 20 * time.Second},
		coreURL:  defaultCoreURL,
		liveURL:  defaultLiveURL,
		meetURL:  defaultMeetURL,
		tokens:   map[string]token{},
	}
}

// TrackOfTheDay returns the TOTD for date, or the current one when date is
// nil.
func (c *Client) TrackOfTheDay(ctx context.Context, date *time.Time) (domain.TrackInfo, error) {
	now := time.Now().UTC()
	target := now
	if date != nil {
		target = date.UTC()
	}

	// The live service pages TOTD campaigns by month, offset 0 being the
	// current month.
	offset := (now.Year()-target.Year())*12 + int(now.Month()-target.Month())

	var payload struct {
		MonthList []struct {
			Year  int `json:"year"`
			Month int `json:"month"`
			Days  []struct {
				MapUID         string `json:"mapUid"`
				MonthDay       int    `json:"monthDay"`
				SeasonUID      string `json:"seasonUid"`
				StartTimestamp int64  `json:"startTimestamp"`
				EndTimestamp   int64  `json:"endTimestamp"`
			} `json:"days"`
		} `json:"monthList"`
	}
	endpoint := fmt.Sprintf("%s/api/token/campaign/month?length=1&offset=%d", c.liveURL, offset)
	if err := c.get(ctx, audienceLive, endpoint, &payload); err != nil {
		return domain.TrackInfo{}, fmt.Errorf("totd month: %w", err)
	}
	if len(payload.MonthList) == 0 {
		return domain.TrackInfo{}, fmt.Errorf("totd month: empty response")
	}
	month := payload.MonthList[0]

	var day *struct {
		MapUID         string `json:"mapUid"`
		MonthDay       int    `json:"monthDay"`
		SeasonUID      string `json:"seasonUid"`
		StartTimestamp int64  `json:"startTimestamp"`
		EndTimestamp   int64  `json:"endTimestamp"`
	}
	for i := range month.Days {
		d := &month.Days[i]
		if date != nil {
			if d.MonthDay == target.Day() {
				day = d
				break
			}
			continue
		}
		if d.StartTimestamp <= now.Unix() && now.Unix() < d.EndTimestamp {
			day = d
			break
		}
	}
	if day == nil || day.MapUID == "" {
		return domain.TrackInfo{}, fmt.Errorf("no track of the day for %s", target.Format("2006-01-02"))
	}

	dayDate := time.Date(month.Year, time.Month(month.Month), day.MonthDay, 0, 0, 0, 0, time.UTC)
	info, err := c.mapInfo(ctx, day.MapUID)
	if err != nil {
		return domain.TrackInfo{}, err
	}
	info.Label = "Track of the Day - " + dayDate.Format("2006-01-02")
	info.GroupUID = day.SeasonUID
	info.Day = dayDate.Format("2006-01-02")
	info.EndTimestamp = day.EndTimestamp
	return info, nil
}

// GetTrackInfo looks a map up by uid and attaches the given display label.
func (c *Client) GetTrackInfo(ctx context.Context, label, mapUID, extra string) (domain.TrackInfo, error) {
	info, err := c.mapInfo(ctx, mapUID)
	if err != nil {
		return domain.TrackInfo{}, err
	}
	info.Label = label
	if extra != "" {
		info.GroupUID = extra
	}
	return info, nil
}

// Leaderboard fetches one page of the world leaderboard. cursor is the raw
// offset field decoded from a control id; empty means offset 0.
func (c *Client) Leaderboard(ctx context.Context, ref domain.TrackRef, cursor string, reverse bool, extra string) (domain.LeaderboardPage, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return domain.LeaderboardPage{}, fmt.Errorf("leaderboard cursor %q: %w", cursor, err)
		}
		offset = n
	}

	var payload struct {
		Tops []struct {
			ZoneName string `json:"zoneName"`
			Top      []struct {
				AccountID string `json:"accountId"`
				Position  int    `json:"position"`
				Score     int    `json:"score"`
			} `json:"top"`
		} `json:"tops"`
	}
	endpoint := fmt.Sprintf("%s/api/token/leaderboard/group/%s/map/%s/top?onlyWorld=true&length=%d&offset=%d",
		c.liveURL, ref.GroupUID, ref.MapUID, leaderboardPageSize, offset)
	if err := c.get(ctx, audienceLive, endpoint, &payload); err != nil {
		return domain.LeaderboardPage{}, fmt.Errorf("leaderboard: %w", err)
	}

	page := domain.LeaderboardPage{GroupUID: ref.GroupUID, MapUID: ref.MapUID, Offset: offset}
	if len(payload.Tops) > 0 {
		for _, e := range payload.Tops[0].Top {
			page.Entries = append(page.Entries, domain.LeaderboardEntry{
				Position:  e.Position,
				AccountID: e.AccountID,
				Score:     e.Score,
			})
		}
	}
	return page, nil
}

// CupOfTheDay returns the currently running cup, if any.
func (c *Client) CupOfTheDay(ctx context.Context) (domain.CupInfo, error) {
	var payload struct {
		ID        int64 `json:"id"`
		Challenge struct {
			Name      string `json:"name"`
			StartDate int64  `json:"startDate"`
			EndDate   int64  `json:"endDate"`
		} `json:"challenge"`
		Competition struct {
			Name string `json:"name"`
		} `json:"competition"`
	}
	if err := c.get(ctx, audienceLive, c.meetURL+"/api/cup-of-the-day/current", &payload); err != nil {
		return domain.CupInfo{}, fmt.Errorf("cup of the day: %w", err)
	}
	return domain.CupInfo{
		ID:        payload.ID,
		Name:      payload.Competition.Name,
		Challenge: payload.Challenge.Name,
		StartDate: payload.Challenge.StartDate,
		EndDate:   payload.Challenge.EndDate,
	}, nil
}

func (c *Client) mapInfo(ctx context.Context, mapUID string) (domain.TrackInfo, error) {
	var maps []struct {
		Name         string `json:"name"`
		AuthorName   string `json:"authorName"`
		MapUID       string `json:"mapUid"`
		ThumbnailURL string `json:"thumbnailUrl"`
		AuthorScore  int    `json:"authorScore"`
		GoldScore    int    `json:"goldScore"`
		SilverScore  int    `json:"silverScore"`
		BronzeScore  int    `json:"bronzeScore"`
	}
	if err := c.get(ctx, audienceCore, c.coreURL+"/maps/?mapUidList="+mapUID, &maps); err != nil {
		return domain.TrackInfo{}, fmt.Errorf("map info: %w", err)
	}
	if len(maps) == 0 {
		return domain.TrackInfo{}, fmt.Errorf("map info: unknown map %q", mapUID)
	}
	m := maps[0]
	return domain.TrackInfo{
		MapUID:       m.MapUID,
		Name:         m.Name,
		Author:       m.AuthorName,
		ThumbnailURL: m.ThumbnailURL,
		AuthorTime:   m.AuthorScore,
		GoldTime:     m.GoldScore,
		SilverTime:   m.SilverScore,
		BronzeTime:   m.BronzeScore,
	}, nil
}

func (c *Client) get(ctx context.Context, audience, url string, out any) error {
	tok, err := c.getToken(ctx, audience)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "nadeo_v1 t="+tok)

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode >= 300 {
		return fmt.Errorf("status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) getToken(ctx context.Context, audience string) (string, error) {
	c.mu.Lock()
	if t, ok := c.tokens[audience]; ok && time.Now().Before(t.expires.Add(-time.Minute)) {
		c.mu.Unlock()
		return t.value, nil
	}
	c.mu.Unlock()

	data, _ := json.Marshal(map[string]string{"audience": audience})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.coreURL+"/v2/authentication/token/basic", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("nadeo auth: %w", err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode >= 300 {
		return "", fmt.Errorf("nadeo auth: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var r struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return "", fmt.Errorf("nadeo auth: decode response: %w", err)
	}
	if r.AccessToken == "" {
		return "", fmt.Errorf("nadeo auth: empty access token")
	}

	c.mu.Lock()
	// Tokens are good for an hour; refresh a little early.
	c.tokens[audience] = token{value: r.AccessToken, expires: time.Now().Add(55 * time.Minute)}
	c.mu.Unlock()
	return r.AccessToken, nil
}
