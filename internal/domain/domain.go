package domain

import (
	"context"
	"errors"
	"time"
)

// Action tags the meaning of a component custom id.
type Action string

const (
	ActionTest             Action = "test"
	ActionCupOfTheDay      Action = "cotd"
	ActionLeaderboardFirst Action = "lb_f"
	ActionLeaderboardLast  Action = "lb_l"
	ActionLeaderboardPage  Action = "lb_p"
	ActionTrack            Action = "track"
	// ActionUnknown is what unrecognized custom ids decode to. Handlers
	// treat it as a logged no-op, never a failure.
	ActionUnknown Action = "unknown"
)

// ControlState is the decoded form of a component custom id: an action tag
// plus ordered, untyped string arguments whose meaning depends on the tag.
// Numeric fields are parsed by consumers, not here.
type ControlState struct {
	Action Action
	// Count is the packed count carried by last-page controls (the third
	// `_`-token of the leading segment). Empty for every other action.
	Count string
	Args  []string
}

var (
	ErrDateBeforeEpoch = errors.New("date is before the first track of the day")
	ErrMissingOption   = errors.New("missing command option")
	ErrUnknownAction   = errors.New("unrecognized component action")
	ErrCacheMiss       = errors.New("cache miss")
)

// TrackRef identifies a leaderboard to fetch.
type TrackRef struct {
	Author   string
	GroupUID string
	MapUID   string
}

type TrackInfo struct {
	Label        string `json:"label"`
	MapUID       string `json:"mapUid"`
	GroupUID     string `json:"groupUid"`
	Name         string `json:"name"`
	Author       string `json:"author"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Day          string `json:"day"` // YYYY-MM-DD
	AuthorTime   int    `json:"authorTime"`
	GoldTime     int    `json:"goldTime"`
	SilverTime   int    `json:"silverTime"`
	BronzeTime   int    `json:"bronzeTime"`
	// EndTimestamp marks when this record stops being "the" track of the
	// day, in epoch seconds. Zero for plain map lookups.
	EndTimestamp int64 `json:"endTimestamp"`
}

type LeaderboardEntry struct {
	Position  int    `json:"position"`
	AccountID string `json:"accountId"`
	Score     int    `json:"score"` // milliseconds
}

type LeaderboardPage struct {
	GroupUID string             `json:"groupUid"`
	MapUID   string             `json:"mapUid"`
	Offset   int                `json:"offset"`
	Entries  []LeaderboardEntry `json:"tops"`
}

type CupInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Challenge string `json:"challenge"`
	StartDate int64  `json:"startDate"`
	EndDate   int64  `json:"endDate"`
}

// TrackProvider is the data-provider collaborator. Implementations talk to
// the Nadeo web services; tests substitute mocks.
type TrackProvider interface {
	// TrackOfTheDay returns the current TOTD, or the TOTD for a past date
	// when date is non-nil.
	TrackOfTheDay(ctx context.Context, date *time.Time) (TrackInfo, error)
	GetTrackInfo(ctx context.Context, label, mapUID, extra string) (TrackInfo, error)
	// Leaderboard fetches one page. cursor is the raw offset field from a
	// control id; empty means the top of the board.
	Leaderboard(ctx context.Context, ref TrackRef, cursor string, reverse bool, extra string) (LeaderboardPage, error)
	CupOfTheDay(ctx context.Context) (CupInfo, error)
}

// Messenger is the chat-platform send capability: one PATCH and one POST,
// both addressed by API endpoint path.
type Messenger interface {
	Patch(ctx context.Context, endpoint string, body any) error
	Post(ctx context.Context, endpoint string, body any) error
}

// PingLimiter is the key-value collaborator: pinged at startup and used for
// request rate limiting, nothing else.
type PingLimiter interface {
	Ping(ctx context.Context) error
	AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error)
}
