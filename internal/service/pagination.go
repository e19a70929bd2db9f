package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/2qar/trackmania-bot/internal/domain"
)

// pageParams feeds the leaderboard fetch: group, map, a raw cursor string
// ("" means the top of the board) and an optional extra field carried by
// page-jump selections.
type pageParams struct {
	GroupID string
	MapID   string
	Cursor  string
	Extra   string
}

// resolvePage turns a decoded leaderboard control plus the triggering
// select's values into fetch parameters.
//
// Last-page offsets are maxPage minus the control's packed count. maxPage is
// a fixed ceiling on leaderboard depth, not the live board length; callers
// must not assume it tracks the true last page.
func resolvePage(st domain.ControlState, selected []string, maxPage int) (pageParams, error) {
	if len(st.Args) < 2 {
		return pageParams{}, fmt.Errorf("leaderboard control missing fields: %v", st.Args)
	}
	p := pageParams{GroupID: st.Args[0], MapID: st.Args[1]}

	switch st.Action {
	case domain.ActionLeaderboardFirst:
		// Cursor stays unset: fetch from the start.

	case domain.ActionLeaderboardLast:
		count, err := strconv.Atoi(st.Count)
		if err != nil {
			return pageParams{}, fmt.Errorf("last-page count %q: %w", st.Count, err)
		}
		p.Cursor = strconv.Itoa(maxPage - count)

	case domain.ActionLeaderboardPage:
		if len(selected) == 0 {
			return pageParams{}, fmt.Errorf("page selection carried no value")
		}
		// The chosen value is itself ";"-joined: offset, then a display
		// label the consumer may use to disambiguate.
		parts := strings.Split(selected[0], ";")
		p.Cursor = parts[0]
		if len(parts) > 1 {
			p.Extra = parts[1]
		}

	default:
		return pageParams{}, fmt.Errorf("%w: %s", domain.ErrUnknownAction, st.Action)
	}
	return p, nil
}
