// Command register overwrites the application's global slash commands.
// Run it once after changing the command set.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/2qar/trackmania-bot/internal/config"
	"github.com/2qar/trackmania-bot/internal/infrastructure/discord"
	"github.com/2qar/trackmania-bot/internal/pkg/logger"
)

const (
	optionSubCommand = 1
	optionInteger    = 4
)

func commands() []discord.Command {
	dateOptions := []discord.CommandSchema{
		{Name: "year", Description: "year", Type: optionInteger, Required: true},
		{Name: "month", Description: "month", Type: optionInteger, Required: true},
		{Name: "day", Description: "day", Type: optionInteger, Required: true},
	}

	return []discord.Command{
		{
			Name:        "test",
			Description: "Basic command",
			Type:        1,
		},
		{
			Name:        "tucker",
			Description: "sad",
			Type:        1,
		},
		{
			Name:        "totd",
			Description: "Track of the day",
			Type:        1,
			Options: []discord.CommandSchema{
				{
					Name:        "past",
					Description: "Look up a previous track of the day",
					Type:        optionSubCommand,
					Options:     dateOptions,
				},
			},
		},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logger.Init()
	log := logger.Logger.With().Str("service", "register").Logger()

	client := discord.NewClient(cfg.DiscordAPIBase, cfg.DiscordBotToken)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmds := commands()
	if err := client.InstallGlobalCommands(ctx, cfg.DiscordAppID, cmds); err != nil {
		log.Fatal().Err(err).Msg("command install failed")
	}
	log.Info().Int("count", len(cmds)).Msg("global commands installed")
}
