package session

import "errors"

// User-facing rejections. None of them are fatal; the hub reports them to the
// originating connection only.
var (
	ErrRoomFull               = errors.New("room is full")
	ErrNicknameTaken          = errors.New("nickname is already taken")
	ErrGameInProgress         = errors.New("game is already in progress")
	ErrUnknownReconnectTarget = errors.New("no disconnected player with that nickname")
	ErrInvalidNickname        = errors.New("nickname must be 1-32 characters")
	ErrAlreadyJoined          = errors.New("connection has already joined")
	ErrUnknownPlayer          = errors.New("player has not joined")
	ErrNotExpert              = errors.New("only the expert can guess")
	ErrExpertCannotHint       = errors.New("the expert cannot submit hints")
	ErrExpertCannotView       = errors.New("the expert cannot see the answer")
	ErrDuplicateHint          = errors.New("hint already submitted this round")
	ErrEmptyText              = errors.New("text cannot be empty")
	ErrRoundClosed            = errors.New("round is closed")
	ErrNotPlaying             = errors.New("game is not in progress")
	ErrCannotStart            = errors.New("game cannot start")
	ErrUnauthorized           = errors.New("only the room leader can do that")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomFull, "room_full"},
	{ErrNicknameTaken, "nickname_taken"},
	{ErrGameInProgress, "game_in_progress"},
	{ErrUnknownReconnectTarget, "unknown_reconnect_target"},
	{ErrInvalidNickname, "invalid_nickname"},
	{ErrAlreadyJoined, "already_joined"},
	{ErrUnknownPlayer, "unknown_player"},
	{ErrNotExpert, "not_expert"},
	{ErrExpertCannotHint, "expert_cannot_hint"},
	{ErrExpertCannotView, "expert_cannot_view"},
	{ErrDuplicateHint, "duplicate_hint"},
	{ErrEmptyText, "empty_text"},
	{ErrRoundClosed, "round_closed"},
	{ErrNotPlaying, "not_playing"},
	{ErrCannotStart, "cannot_start"},
	{ErrUnauthorized, "unauthorized"},
}

// ErrorCode maps a rejection to the stable code carried in error payloads.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
