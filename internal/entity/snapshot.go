package entity

import "slices"

const SnapshotType = "game_state"

type PlayerInfo struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

// Snapshot is the full room state sent to participants after every change.
type Snapshot struct {
	Type        string       `json:"type"`
	RoomID      string       `json:"room_id"`
	Board       []string     `json:"board"`
	CurrentTurn string       `json:"current_turn"`
	Status      string       `json:"status"`
	Winner      *string      `json:"winner"`
	WinningLine []int        `json:"winning_line"`
	Mode        string       `json:"mode"`
	Players     []PlayerInfo `json:"players"`
	Size        int          `json:"size"`
}

// Snapshot copies the current state. Callers must hold the lock.
func (that *Room) Snapshot() *Snapshot {
	players := make([]PlayerInfo, 0, len(that.Players))
	for _, player := range that.Players {
		players = append(players, PlayerInfo{ID: player.ID, Symbol: player.Symbol})
	}

	var winner *string
	if that.Winner != "" {
		w := that.Winner
		winner = &w
	}

	return &Snapshot{
		Type:        SnapshotType,
		RoomID:      that.ID,
		Board:       slices.Clone(that.Board),
		CurrentTurn: that.Turn,
		Status:      that.Status,
		Winner:      winner,
		WinningLine: append([]int{}, that.WinningLine...),
		Mode:        that.Mode,
		Players:     players,
		Size:        that.Size,
	}
}
