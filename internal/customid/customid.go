// Package customid encodes application state into component custom ids and
// back. Custom ids are the only place state survives the round trip through
// the chat platform, so the format is wire-compatible with what older
// messages already carry: fields joined by ";", with the leading field
// overloading "_" to pack the leaderboard sub-kind and its count.
//
//	test
//	cotd
//	lb_f;<groupUid>;<mapUid>
//	lb_l_<count>;<groupUid>;<mapUid>
//	lb_p;<groupUid>;<mapUid>
//	track;<kind>;<mapUid>;<extra>;<date>
package customid

import (
	"strings"

	"github.com/2qar/trackmania-bot/internal/domain"
)

const (
	fieldSep = ";"
	kindSep  = "_"
)

// Encode packs a control state into a custom id string.
func Encode(st domain.ControlState) string {
	head := string(st.Action)
	if st.Action == domain.ActionLeaderboardLast && st.Count != "" {
		head += kindSep + st.Count
	}
	if len(st.Args) == 0 {
		return head
	}
	return head + fieldSep + strings.Join(st.Args, fieldSep)
}

// Decode recovers a control state from a custom id. Decoding is total:
// anything unrecognized comes back as ActionUnknown with the raw fields
// preserved, never an error or a panic.
func Decode(s string) domain.ControlState {
	fields := strings.Split(s, fieldSep)
	head := fields[0]
	args := fields[1:]

	if strings.HasPrefix(head, "lb") {
		parts := strings.SplitN(head, kindSep, 3)
		if len(parts) < 2 {
			return unknown(fields)
		}
		switch parts[1] {
		case "f":
			return domain.ControlState{Action: domain.ActionLeaderboardFirst, Args: args}
		case "l":
			st := domain.ControlState{Action: domain.ActionLeaderboardLast, Args: args}
			if len(parts) == 3 {
				st.Count = parts[2]
			}
			return st
		case "p":
			return domain.ControlState{Action: domain.ActionLeaderboardPage, Args: args}
		default:
			return unknown(fields)
		}
	}

	switch domain.Action(head) {
	case domain.ActionTest, domain.ActionCupOfTheDay, domain.ActionTrack:
		return domain.ControlState{Action: domain.Action(head), Args: args}
	default:
		return unknown(fields)
	}
}

func unknown(fields []string) domain.ControlState {
	return domain.ControlState{Action: domain.ActionUnknown, Args: fields}
}
