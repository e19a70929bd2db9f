package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/2qar/trackmania-bot/internal/config"
	"github.com/2qar/trackmania-bot/internal/customid"
	"github.com/2qar/trackmania-bot/internal/domain"
	"github.com/2qar/trackmania-bot/internal/infrastructure/discord"
	"github.com/2qar/trackmania-bot/internal/metrics"
	"github.com/2qar/trackmania-bot/internal/pkg/logger"
	"github.com/2qar/trackmania-bot/internal/totd"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter(io.Discard)
	os.Exit(m.Run())
}

type MockProvider struct{ mock.Mock }

func (m *MockProvider) TrackOfTheDay(ctx context.Context, date *time.Time) (domain.TrackInfo, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(domain.TrackInfo), args.Error(1)
}
func (m *MockProvider) GetTrackInfo(ctx context.Context, label, mapUID, extra string) (domain.TrackInfo, error) {
	args := m.Called(ctx, label, mapUID, extra)
	return args.Get(0).(domain.TrackInfo), args.Error(1)
}
func (m *MockProvider) Leaderboard(ctx context.Context, ref domain.TrackRef, cursor string, reverse bool, extra string) (domain.LeaderboardPage, error) {
	args := m.Called(ctx, ref, cursor, reverse, extra)
	return args.Get(0).(domain.LeaderboardPage), args.Error(1)
}
func (m *MockProvider) CupOfTheDay(ctx context.Context) (domain.CupInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.CupInfo), args.Error(1)
}

type MockMessenger struct{ mock.Mock }

func (m *MockMessenger) Patch(ctx context.Context, endpoint string, body any) error {
	return m.Called(ctx, endpoint, body).Error(0)
}
func (m *MockMessenger) Post(ctx context.Context, endpoint string, body any) error {
	return m.Called(ctx, endpoint, body).Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		EpochStart:         time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
		MaxLeaderboardPage: 1000,
		TOTDChannelID:      "C1",
	}
}

func newTestService(t *testing.T) (*Service, *MockProvider, *MockMessenger, *totd.Store) {
	t.Helper()
	provider := &MockProvider{}
	messenger := &MockMessenger{}
	cache := totd.NewStore(filepath.Join(t.TempDir(), "totd.json"))
	svc := New(provider, messenger, cache, testConfig(), metrics.NewCollector())
	return svc, provider, messenger, cache
}

func writeCache(t *testing.T, svc *Service, info domain.TrackInfo) {
	t.Helper()
	payload, err := json.Marshal(info)
	require.NoError(t, err)
	_, err = svc.cache.GetFresh(context.Background(), func(ctx context.Context) (totd.Record, error) {
		return totd.Record{EndTimestamp: info.EndTimestamp, Payload: payload}, nil
	})
	require.NoError(t, err)
}

func isErrorEmbed(body any) bool {
	msg, ok := body.(discord.MessageBody)
	return ok && len(msg.Embeds) == 1 && msg.Embeds[0].Title == "Error: Unable to handle request"
}

const endpoint = "webhooks/app/token/messages/@original"

func TestHandleTOTDStaleCacheRefetchesOnce(t *testing.T) {
	svc, provider, messenger, cache := newTestService(t)
	writeCache(t, svc, domain.TrackInfo{Name: "old", EndTimestamp: 1})

	fresh := domain.TrackInfo{
		Label:        "Track of the Day - 2026-08-28",
		Name:         "new map",
		EndTimestamp: time.Now().Unix() + 3600,
	}
	provider.On("TrackOfTheDay", mock.Anything, (*time.Time)(nil)).Return(fresh, nil).Once()
	messenger.On("Patch", mock.Anything, endpoint, mock.MatchedBy(func(body any) bool {
		msg, ok := body.(discord.MessageBody)
		return ok && len(msg.Embeds) == 1 && msg.Embeds[0].Description == "new map"
	})).Return(nil).Once()

	svc.HandleTOTD(context.Background(), endpoint, nil)

	provider.AssertExpectations(t)
	messenger.AssertExpectations(t)
	messenger.AssertNumberOfCalls(t, "Patch", 1)

	// The cache file was rewritten with the fresh record.
	rec, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, fresh.EndTimestamp, rec.EndTimestamp)
}

func TestHandleTOTDFreshCacheSkipsProvider(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)
	writeCache(t, svc, domain.TrackInfo{Name: "cached map", EndTimestamp: time.Now().Unix() + 3600})

	messenger.On("Patch", mock.Anything, endpoint, mock.Anything).Return(nil).Once()

	svc.HandleTOTD(context.Background(), endpoint, nil)

	provider.AssertNotCalled(t, "TrackOfTheDay", mock.Anything, mock.Anything)
	messenger.AssertExpectations(t)
}

func TestHandleTOTDFetchFailureReportsOnce(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)

	provider.On("TrackOfTheDay", mock.Anything, (*time.Time)(nil)).
		Return(domain.TrackInfo{}, errors.New("provider down")).Once()
	messenger.On("Patch", mock.Anything, endpoint, mock.MatchedBy(isErrorEmbed)).Return(nil).Once()

	svc.HandleTOTD(context.Background(), endpoint, nil)

	provider.AssertExpectations(t)
	messenger.AssertExpectations(t)
	messenger.AssertNumberOfCalls(t, "Patch", 1)
}

func pastOption(year, month, day int) []discord.CommandOption {
	num := func(n int) json.Number { return json.Number(strconv.Itoa(n)) }
	return []discord.CommandOption{{
		Name: "past",
		Options: []discord.CommandOption{
			{Name: "year", Value: num(year)},
			{Name: "month", Value: num(month)},
			{Name: "day", Value: num(day)},
		},
	}}
}

func TestHandlePastTOTDClampsFutureDate(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	provider.On("TrackOfTheDay", mock.Anything, mock.MatchedBy(func(d *time.Time) bool {
		return d != nil && d.Equal(now)
	})).Return(domain.TrackInfo{Name: "today"}, nil).Once()
	messenger.On("Patch", mock.Anything, endpoint, mock.Anything).Return(nil).Once()

	svc.HandleTOTD(context.Background(), endpoint, pastOption(2030, 1, 1))

	provider.AssertExpectations(t)
	messenger.AssertExpectations(t)
}

func TestHandlePastTOTDRejectsPreEpochDate(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)

	messenger.On("Patch", mock.Anything, endpoint, mock.MatchedBy(isErrorEmbed)).Return(nil).Once()

	svc.HandleTOTD(context.Background(), endpoint, pastOption(2020, 6, 30))

	provider.AssertNotCalled(t, "TrackOfTheDay", mock.Anything, mock.Anything)
	messenger.AssertExpectations(t)
	messenger.AssertNumberOfCalls(t, "Patch", 1)
}

func TestHandleComponentLeaderboardFirst(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)
	msg := &discord.Message{
		ID:        "M",
		ChannelID: "C",
		Embeds:    []discord.Embed{{Title: "Map Search", Author: &discord.EmbedAuthor{Name: "AuthorGuy"}}},
	}
	componentEndpoint := "channels/C/messages/M"

	wantRef := domain.TrackRef{Author: "AuthorGuy", GroupUID: "G1", MapUID: "M1"}
	provider.On("Leaderboard", mock.Anything, wantRef, "", true, "").
		Return(domain.LeaderboardPage{GroupUID: "G1", MapUID: "M1"}, nil).Once()
	messenger.On("Patch", mock.Anything, componentEndpoint, mock.Anything).Return(nil).Once()

	svc.HandleComponent(context.Background(), componentEndpoint, msg, customid.Decode("lb_f;G1;M1"), nil)

	provider.AssertExpectations(t)
	provider.AssertNumberOfCalls(t, "Leaderboard", 1)
	messenger.AssertExpectations(t)
}

func TestHandleComponentLeaderboardLastCursor(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)
	msg := &discord.Message{Embeds: []discord.Embed{{Author: &discord.EmbedAuthor{Name: "A"}}}}

	provider.On("Leaderboard", mock.Anything, mock.Anything, "750", true, "").
		Return(domain.LeaderboardPage{}, nil).Once()
	messenger.On("Patch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	svc.HandleComponent(context.Background(), "channels/C/messages/M", msg, customid.Decode("lb_l_250;G1;M1"), nil)

	provider.AssertExpectations(t)
}

func TestHandleComponentPageJump(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)
	msg := &discord.Message{Embeds: []discord.Embed{{Author: &discord.EmbedAuthor{Name: "A"}}}}

	provider.On("Leaderboard", mock.Anything, mock.Anything, "500", true, "Page 51").
		Return(domain.LeaderboardPage{}, nil).Once()
	messenger.On("Patch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	svc.HandleComponent(context.Background(), "channels/C/messages/M", msg,
		customid.Decode("lb_p;G1;M1"), []string{"500;Page 51"})

	provider.AssertExpectations(t)
}

func TestHandleComponentTrackLabelTOTD(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)

	provider.On("GetTrackInfo", mock.Anything, "Track of the Day - 2024-01-15", "M1", "G1").
		Return(domain.TrackInfo{Name: "map"}, nil).Once()
	messenger.On("Patch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	svc.HandleComponent(context.Background(), "channels/C/messages/M", &discord.Message{},
		customid.Decode("track;totd;M1;G1;2024-01-15"), nil)

	provider.AssertExpectations(t)
}

func TestHandleComponentTrackLabelSearch(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)

	provider.On("GetTrackInfo", mock.Anything, "Map Search", "M1", "G1").
		Return(domain.TrackInfo{Name: "map"}, nil).Once()
	messenger.On("Patch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	svc.HandleComponent(context.Background(), "channels/C/messages/M", &discord.Message{},
		customid.Decode("track;search;M1;G1"), nil)

	provider.AssertExpectations(t)
}

func TestHandleComponentCupOfTheDayIsNotRendered(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)

	provider.On("CupOfTheDay", mock.Anything).
		Return(domain.CupInfo{ID: 7, Challenge: "COTD 2026-08-28"}, nil).Once()

	svc.HandleComponent(context.Background(), "channels/C/messages/M", &discord.Message{},
		customid.Decode("cotd"), nil)

	provider.AssertExpectations(t)
	messenger.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleComponentUnrecognizedIsNoop(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)

	svc.HandleComponent(context.Background(), "channels/C/messages/M", &discord.Message{},
		customid.Decode("back"), nil)

	provider.AssertNotCalled(t, "Leaderboard", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	messenger.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleComponentFetchFailureReportsOnce(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)
	msg := &discord.Message{Embeds: []discord.Embed{{Author: &discord.EmbedAuthor{Name: "A"}}}}

	provider.On("Leaderboard", mock.Anything, mock.Anything, "", true, "").
		Return(domain.LeaderboardPage{}, errors.New("upstream rejected")).Once()
	messenger.On("Patch", mock.Anything, mock.Anything, mock.MatchedBy(isErrorEmbed)).Return(nil).Once()

	svc.HandleComponent(context.Background(), "channels/C/messages/M", msg, customid.Decode("lb_f;G1;M1"), nil)

	messenger.AssertExpectations(t)
	messenger.AssertNumberOfCalls(t, "Patch", 1)
}

func TestReportSwallowsNestedFailure(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)

	provider.On("TrackOfTheDay", mock.Anything, (*time.Time)(nil)).
		Return(domain.TrackInfo{}, errors.New("provider down")).Once()
	messenger.On("Patch", mock.Anything, endpoint, mock.Anything).
		Return(errors.New("discord down")).Once()

	// Must not panic or retry.
	svc.HandleTOTD(context.Background(), endpoint, nil)

	messenger.AssertNumberOfCalls(t, "Patch", 1)
}

func TestPostDailyTOTD(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)

	fresh := domain.TrackInfo{Name: "daily map", EndTimestamp: time.Now().Unix() + 3600}
	provider.On("TrackOfTheDay", mock.Anything, (*time.Time)(nil)).Return(fresh, nil).Once()
	messenger.On("Post", mock.Anything, "channels/C1/messages", mock.Anything).Return(nil).Once()

	require.NoError(t, svc.PostDailyTOTD(context.Background()))

	provider.AssertExpectations(t)
	messenger.AssertExpectations(t)
}

func TestPostDailyTOTDReturnsProviderError(t *testing.T) {
	svc, provider, messenger, _ := newTestService(t)

	provider.On("TrackOfTheDay", mock.Anything, (*time.Time)(nil)).
		Return(domain.TrackInfo{}, errors.New("provider down")).Once()

	assert.Error(t, svc.PostDailyTOTD(context.Background()))
	messenger.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything)
}
