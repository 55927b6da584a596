// internal/coordinator/events.go
//
// Wire-level event names and payload shapes for the game protocol.
// Field names match what the browser client expects (gameId, mySocketId,
// playerName, playerId, answer, wordExists, board).

package coordinator

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Inbound event names (client → coordinator).
const (
	EvHostCreateNewGame     = "hostCreateNewGame"
	EvHostRoomFull          = "hostRoomFull"
	EvHostCountdownFinished = "hostCountdownFinished"
	EvHostListJoinableGames = "hostListJoinableGames"
	EvPlayerJoinGame        = "playerJoinGame"
	EvPlayerAnswer          = "playerAnswer"
)

// Outbound event names (coordinator → client/group).
const (
	EvConnected           = "connected"
	EvNewGameCreated      = "newGameCreated"
	EvDidGetJoinableRooms = "didGetJoinableRooms"
	EvPlayerJoinedRoom    = "playerJoinedRoom"
	EvBeginNewGame        = "beginNewGame"
	EvNewBoardData        = "newBoardData"
	EvCheckAnswer         = "checkAnswer"
	EvGameOver            = "gameOver"
	EvError               = "error"
)

// Event is the JSON envelope used in both directions:
//
//	{"event": "playerAnswer", "data": {...}}
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals a payload into an envelope. Marshal failures cannot occur
// for the fixed payload types used here, so they fall back to an empty body.
func NewEvent(name string, data any) Event {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = nil
	}
	return Event{Name: name, Data: raw}
}

// gameID tolerates both JSON numbers and strings: the browser client coerces
// the typed room code to a number before sending, while our ids are strings.
type gameID string

func (g *gameID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*g = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*g = gameID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("gameId: %w", err)
	}
	*g = gameID(n.String())
	return nil
}

// Inbound payloads.
type createGamePayload struct {
	PlayerName string `json:"playerName"`
}
type roomRefPayload struct {
	GameID gameID `json:"gameId"`
}
type joinGamePayload struct {
	GameID     gameID `json:"gameId"`
	PlayerName string `json:"playerName"`
}
type answerPayload struct {
	GameID   gameID `json:"gameId"`
	PlayerID string `json:"playerId"`
	Answer   string `json:"answer"`
}

// Outbound payloads.
type connectedPayload struct {
	Message string `json:"message"`
}
type newGameCreatedPayload struct {
	GameID     string `json:"gameId"`
	MySocketID string `json:"mySocketId"`
}
type playerJoinedPayload struct {
	PlayerName string `json:"playerName"`
	GameID     string `json:"gameId"`
	MySocketID string `json:"mySocketId"`
}
type beginNewGamePayload struct {
	MySocketID string `json:"mySocketId"`
	GameID     string `json:"gameId"`
}
type newBoardPayload struct {
	Board [][]string `json:"board"`
}
type checkAnswerPayload struct {
	PlayerID   string `json:"playerId"`
	Answer     string `json:"answer"`
	WordExists bool   `json:"wordExists"`
	GameID     string `json:"gameId"`
	Score      int    `json:"score"`
}
type finalScore struct {
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}
type gameOverPayload struct {
	GameID string       `json:"gameId"`
	Reason string       `json:"reason"`
	Winner string       `json:"winner,omitempty"`
	Scores []finalScore `json:"scores"`
}
type errorPayload struct {
	Message string `json:"message"`
}
