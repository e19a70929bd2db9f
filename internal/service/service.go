// Package service holds the bot's interaction handling: everything that
// happens after the initial ack has been written.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/2qar/trackmania-bot/internal/config"
	"github.com/2qar/trackmania-bot/internal/domain"
	"github.com/2qar/trackmania-bot/internal/embed"
	"github.com/2qar/trackmania-bot/internal/infrastructure/discord"
	"github.com/2qar/trackmania-bot/internal/metrics"
	"github.com/2qar/trackmania-bot/internal/pkg/logger"
	"github.com/2qar/trackmania-bot/internal/totd"
)

const totdLabelPrefix = "Track of the Day - "

type Service struct {
	provider  domain.TrackProvider
	messenger domain.Messenger
	cache     *totd.Store
	cfg       *config.Config
	metrics   *metrics.Collector

	now func() time.Time
}

func New(provider domain.TrackProvider, messenger domain.Messenger, cache *totd.Store, cfg *config.Config, m *metrics.Collector) *Service {
	return &Service{
		provider:  provider,
		messenger: messenger,
		cache:     cache,
		cfg:       cfg,
		metrics:   m,
		now:       time.Now,
	}
}

// HandleTest patches the fixed demonstration payload in after the deferred
// ack.
func (s *Service) HandleTest(ctx context.Context, endpoint string) {
	if err := s.messenger.Patch(ctx, endpoint, embed.TestMessage()); err != nil {
		s.report(ctx, endpoint, err)
	}
}

// HandleTOTD resolves today's (or a past day's) track of the day and patches
// the rendered view in.
func (s *Service) HandleTOTD(ctx context.Context, endpoint string, options []discord.CommandOption) {
	var info domain.TrackInfo

	if past, ok := findOption(options, "past"); ok {
		date, err := s.pastDate(past)
		if err != nil {
			s.report(ctx, endpoint, err)
			return
		}
		info, err = s.provider.TrackOfTheDay(ctx, &date)
		if err != nil {
			s.report(ctx, endpoint, err)
			return
		}
	} else {
		rec, err := s.cache.GetFresh(ctx, s.recomputeTOTD)
		if err != nil {
			s.report(ctx, endpoint, err)
			return
		}
		if err := json.Unmarshal(rec.Payload, &info); err != nil {
			s.report(ctx, endpoint, fmt.Errorf("decode cached totd: %w", err))
			return
		}
	}

	if err := s.messenger.Patch(ctx, endpoint, embed.TrackMessage(info)); err != nil {
		s.report(ctx, endpoint, err)
	}
}

// HandleComponent dispatches a decoded control activation. msg is the
// read-only source message the control belongs to.
func (s *Service) HandleComponent(ctx context.Context, endpoint string, msg *discord.Message, st domain.ControlState, values []string) {
	s.metrics.RecordComponent(string(st.Action))
	log := logger.WithCtx(ctx)

	switch st.Action {
	case domain.ActionTest:
		log.Info().Interface("message", msg).Msg("test control pressed")

	case domain.ActionCupOfTheDay:
		cup, err := s.provider.CupOfTheDay(ctx)
		if err != nil {
			s.report(ctx, endpoint, err)
			return
		}
		// Fetched but not rendered back to the user yet.
		// TODO: design a cup embed and patch it in here.
		log.Info().Int64("cup_id", cup.ID).Str("challenge", cup.Challenge).Msg("cup of the day")

	case domain.ActionLeaderboardFirst, domain.ActionLeaderboardLast, domain.ActionLeaderboardPage:
		params, err := resolvePage(st, values, s.cfg.MaxLeaderboardPage)
		if err != nil {
			s.report(ctx, endpoint, err)
			return
		}
		ref := domain.TrackRef{
			Author:   msg.AuthorName(),
			GroupUID: params.GroupID,
			MapUID:   params.MapID,
		}
		page, err := s.provider.Leaderboard(ctx, ref, params.Cursor, true, params.Extra)
		if err != nil {
			s.report(ctx, endpoint, err)
			return
		}
		body := embed.LeaderboardMessage(ref.Author, page, s.cfg.MaxLeaderboardPage, backState(msg, ref))
		if err := s.messenger.Patch(ctx, endpoint, body); err != nil {
			s.report(ctx, endpoint, err)
		}

	case domain.ActionTrack:
		label := "Map Search"
		if len(st.Args) >= 4 && st.Args[0] == "totd" {
			label = totdLabelPrefix + st.Args[3]
		}
		if len(st.Args) < 2 {
			s.report(ctx, endpoint, fmt.Errorf("%w: track control %v", domain.ErrUnknownAction, st.Args))
			return
		}
		extra := ""
		if len(st.Args) >= 3 {
			extra = st.Args[2]
		}
		info, err := s.provider.GetTrackInfo(ctx, label, st.Args[1], extra)
		if err != nil {
			s.report(ctx, endpoint, err)
			return
		}
		if err := s.messenger.Patch(ctx, endpoint, embed.TrackMessage(info)); err != nil {
			s.report(ctx, endpoint, err)
		}

	default:
		// Unrecognized ids (including the error embed's bare "back"
		// control) degrade to a logged no-op; the deferred-update ack
		// already answered the interaction.
		log.Warn().Strs("fields", st.Args).Msg("unrecognized component custom id")
	}
}

// PostDailyTOTD runs the scheduled flow: freshen the shared cache and post
// the rendered track to the configured channel. No user-facing error path;
// failures are logged by the caller.
func (s *Service) PostDailyTOTD(ctx context.Context) error {
	info, err := s.freshTOTD(ctx)
	if err != nil {
		s.metrics.RecordDailyPost(false)
		return err
	}
	endpoint := "channels/" + s.cfg.TOTDChannelID + "/messages"
	if err := s.messenger.Post(ctx, endpoint, embed.TrackMessage(info)); err != nil {
		s.metrics.RecordDailyPost(false)
		return err
	}
	s.metrics.RecordDailyPost(true)
	return nil
}

// WarmCache freshens the TOTD cache once, used at startup.
func (s *Service) WarmCache(ctx context.Context) (domain.TrackInfo, error) {
	return s.freshTOTD(ctx)
}

func (s *Service) freshTOTD(ctx context.Context) (domain.TrackInfo, error) {
	rec, err := s.cache.GetFresh(ctx, s.recomputeTOTD)
	if err != nil {
		return domain.TrackInfo{}, err
	}
	var info domain.TrackInfo
	if err := json.Unmarshal(rec.Payload, &info); err != nil {
		return domain.TrackInfo{}, fmt.Errorf("decode cached totd: %w", err)
	}
	return info, nil
}

func (s *Service) recomputeTOTD(ctx context.Context) (totd.Record, error) {
	info, err := s.provider.TrackOfTheDay(ctx, nil)
	if err != nil {
		return totd.Record{}, err
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return totd.Record{}, fmt.Errorf("encode totd: %w", err)
	}
	s.metrics.RecordCacheRefresh()
	return totd.Record{EndTimestamp: info.EndTimestamp, Payload: payload}, nil
}

// pastDate builds the query date for a past-TOTD request: forward dates
// clamp to now, dates before the epoch start are rejected.
func (s *Service) pastDate(past discord.CommandOption) (time.Time, error) {
	year, err := optionInt(past, "year")
	if err != nil {
		return time.Time{}, err
	}
	month, err := optionInt(past, "month")
	if err != nil {
		return time.Time{}, err
	}
	day, err := optionInt(past, "day")
	if err != nil {
		return time.Time{}, err
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	now := s.now().UTC()
	if date.After(now) {
		date = now
	}
	if date.Before(s.cfg.EpochStart) {
		return time.Time{}, fmt.Errorf("%w (%s)", domain.ErrDateBeforeEpoch, s.cfg.EpochStart.Format("2006-01-02"))
	}
	return date, nil
}

// report is the uniform failure path: one error embed patched to the same
// endpoint the real response would have used. A nested failure is logged
// and swallowed.
func (s *Service) report(ctx context.Context, endpoint string, err error) {
	s.metrics.RecordErrorReply()
	logger.WithCtx(ctx).Error().Err(err).Str("endpoint", endpoint).Msg("interaction failed")

	if sendErr := s.messenger.Patch(ctx, endpoint, embed.ErrorMessage(err)); sendErr != nil {
		logger.WithCtx(ctx).Error().Err(sendErr).Str("endpoint", endpoint).Msg("error reply failed")
	}
}

// backState derives the control that re-renders the view the leaderboard
// was opened from, reading the provenance off the source message's embed.
func backState(msg *discord.Message, ref domain.TrackRef) domain.ControlState {
	if msg != nil && len(msg.Embeds) > 0 {
		if date, ok := strings.CutPrefix(msg.Embeds[0].Title, totdLabelPrefix); ok {
			return domain.ControlState{
				Action: domain.ActionTrack,
				Args:   []string{"totd", ref.MapUID, ref.GroupUID, date},
			}
		}
	}
	return domain.ControlState{
		Action: domain.ActionTrack,
		Args:   []string{"search", ref.MapUID, ref.GroupUID},
	}
}

func findOption(options []discord.CommandOption, name string) (discord.CommandOption, bool) {
	for _, o := range options {
		if o.Name == name {
			return o, true
		}
	}
	return discord.CommandOption{}, false
}

func optionInt(parent discord.CommandOption, name string) (int, error) {
	o, ok := parent.Option(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrMissingOption, name)
	}
	n, err := o.Int()
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", name, err)
	}
	return n, nil
}
