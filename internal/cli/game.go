package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/tichu/internal/cards"
	"github.com/mcoot/tichu/internal/protocol"
)

const playHelp = `Commands (one per line on stdin):
  call | decline          grand tichu decision
  trade <left> <partner> <right>
  play <card>...          e.g. play sword5 jade5
  pass
  bot [strategy]          seat a bot while in the lobby (lowest or random)
  leave
  say <text>              echo test
  quit`

var errQuit = errors.New("quit")

func newCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a game and play it from stdin",
		Long:  "Create a game, print its code and every update, and send play commands read from stdin.\n\n" + playHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			first := &protocol.CreateGame{UserID: cfg.UserID, DisplayName: name}
			return runGame(cmd.Context(), client.SocketURL(cfg.UserID), first, cmd.InOrStdin(),
				NewOutput(cfg.Output, cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "Player", "Display name")
	cmd.Flags().StringVar(&cfg.UserID, "user-id", cfg.UserID, "User id to reconnect as (env: TICHU_USER_ID)")

	return cmd
}

func newJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a game by code and play it from stdin",
		Long:  "Join a game by its code, print every update, and send play commands read from stdin.\n\n" + playHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			first := &protocol.JoinGameWithGameCode{
				GameCode:    strings.ToUpper(args[0]),
				DisplayName: name,
				UserID:      cfg.UserID,
			}
			return runGame(cmd.Context(), client.SocketURL(cfg.UserID), first, cmd.InOrStdin(),
				NewOutput(cfg.Output, cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "Player", "Display name")
	cmd.Flags().StringVar(&cfg.UserID, "user-id", cfg.UserID, "User id to reconnect as (env: TICHU_USER_ID)")

	return cmd
}

// parseCommand turns an input line into the message to send. Blank lines
// yield nil.
func parseCommand(line string) (protocol.ClientMessage, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	verb, rest := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "call", "decline":
		return &protocol.CallGrandTichu{Call: verb == "call"}, nil
	case "trade":
		if len(rest) != 3 {
			return nil, errors.New("trade needs three cards: left partner right")
		}
		parsed, err := cards.ParseCards(strings.Join(rest, " "))
		if err != nil {
			return nil, err
		}
		return &protocol.SubmitTrade{Left: parsed[0], Partner: parsed[1], Right: parsed[2]}, nil
	case "play":
		if len(rest) == 0 {
			return nil, errors.New("play needs at least one card")
		}
		parsed, err := cards.ParseCards(strings.Join(rest, " "))
		if err != nil {
			return nil, err
		}
		return &protocol.PlayCards{Cards: parsed}, nil
	case "pass":
		return &protocol.Pass{}, nil
	case "bot":
		if len(rest) > 1 {
			return nil, errors.New("bot takes at most one strategy")
		}
		return &protocol.AddBot{Strategy: strings.Join(rest, "")}, nil
	case "leave":
		return &protocol.LeaveGame{}, nil
	case "ping":
		return &protocol.ClientPing{}, nil
	case "say":
		return &protocol.ClientTest{Text: strings.Join(rest, " ")}, nil
	case "quit", "exit":
		return nil, errQuit
	default:
		return nil, fmt.Errorf("unknown command %q", verb)
	}
}
