package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"github.com/2qar/trackmania-bot/internal/config"
	"github.com/2qar/trackmania-bot/internal/customid"
	"github.com/2qar/trackmania-bot/internal/infrastructure/discord"
	"github.com/2qar/trackmania-bot/internal/metrics"
	"github.com/2qar/trackmania-bot/internal/pkg/logger"
	"github.com/2qar/trackmania-bot/internal/service"
)

type Handler struct {
	svc     *service.Service
	cfg     *config.Config
	metrics *metrics.Collector
}

func NewHandler(svc *service.Service, cfg *config.Config, m *metrics.Collector) *Handler {
	return &Handler{svc: svc, cfg: cfg, metrics: m}
}

// Health answers the platform's reachability probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("whats up"))
}

// Interactions is the single webhook endpoint. It classifies the inbound
// interaction, writes exactly one initial response (the platform allows one
// initial response per interaction, patches after), flushes it, and then
// runs any deferred follow-up work before returning.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	var in discord.Interaction
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		logger.WithCtx(r.Context()).Warn().Err(err).Msg("undecodable interaction payload")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// Follow-up fetches and patches must survive the client hanging up
	// after it has read the ack.
	ctx := context.WithoutCancel(r.Context())

	switch in.Type {
	case discord.InteractionPing:
		h.metrics.RecordInteraction("ping")
		render.JSON(w, r, discord.InteractionResponse{Type: discord.ResponsePong})

	case discord.InteractionApplicationCommand:
		h.metrics.RecordInteraction("command")
		h.handleCommand(ctx, w, r, in)

	case discord.InteractionMessageComponent:
		h.metrics.RecordInteraction("component")
		h.handleComponent(ctx, w, r, in)

	default:
		logger.WithCtx(r.Context()).Warn().Int("type", in.Type).Msg("unsupported interaction type")
		http.Error(w, "Bad Request", http.StatusBadRequest)
	}
}

func (h *Handler) handleCommand(ctx context.Context, w http.ResponseWriter, r *http.Request, in discord.Interaction) {
	h.metrics.RecordCommand(in.Data.Name)
	endpoint := "webhooks/" + h.cfg.DiscordAppID + "/" + in.Token + "/messages/@original"

	switch in.Data.Name {
	case "test":
		h.ack(w, r, discord.InteractionResponse{Type: discord.ResponseDeferredChannelMessage})
		h.svc.HandleTest(ctx, endpoint)

	case "tucker":
		// No external fetch needed, so no defer: answer directly,
		// visible only to the requester.
		render.JSON(w, r, discord.InteractionResponse{
			Type: discord.ResponseChannelMessage,
			Data: &discord.MessageBody{
				Content: "i miss him <@203284058673774592>",
				Flags:   discord.FlagEphemeral,
			},
		})

	case "totd":
		h.ack(w, r, discord.InteractionResponse{Type: discord.ResponseDeferredChannelMessage})
		h.svc.HandleTOTD(ctx, endpoint, in.Data.Options)

	default:
		logger.WithCtx(r.Context()).Warn().Str("command", in.Data.Name).Msg("unknown command")
		render.JSON(w, r, discord.InteractionResponse{
			Type: discord.ResponseChannelMessage,
			Data: &discord.MessageBody{
				Content: "unknown command",
				Flags:   discord.FlagEphemeral,
			},
		})
	}
}

func (h *Handler) handleComponent(ctx context.Context, w http.ResponseWriter, r *http.Request, in discord.Interaction) {
	if in.Message == nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	endpoint := "channels/" + in.Message.ChannelID + "/messages/" + in.Message.ID

	// Components always get a deferred update first: the source message
	// stays, follow-ups patch it in place.
	h.ack(w, r, discord.InteractionResponse{Type: discord.ResponseDeferredUpdateMessage})

	st := customid.Decode(in.Data.CustomID)
	h.svc.HandleComponent(ctx, endpoint, in.Message, st, in.Data.Values)
}

// ack writes the initial response and flushes it so the platform sees the
// ack before any follow-up work runs. The router never writes a second
// initial response for the same interaction.
func (h *Handler) ack(w http.ResponseWriter, r *http.Request, res discord.InteractionResponse) {
	render.JSON(w, r, res)
	_ = http.NewResponseController(w).Flush()
}
