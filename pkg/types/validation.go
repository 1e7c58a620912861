package types

// MaxPayloadBytes bounds Envelope.Data; hints, guesses and nicknames are short.
const MaxPayloadBytes = 1024

// Validate checks that the envelope names a client intent and carries a sane payload.
func (e *Envelope) Validate() error {
	if e.Type == IntentDisconnected {
		return ErrReservedIntent
	}
	if !IsValidIntentType(e.Type) {
		return ErrUnknownIntent
	}
	if len(e.Data) > MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	return nil
}

// Validate checks the chat message kind.
func (m *ChatMessage) Validate() error {
	if !IsValidChatKind(m.Kind) {
		return ErrInvalidChatKind
	}
	return nil
}

// IsValidIntentType reports whether t is an intent a client may send.
func IsValidIntentType(t string) bool {
	switch t {
	case IntentJoin,
		IntentToggleReady,
		IntentStartGame,
		IntentSubmitHint,
		IntentMakeGuess,
		IntentRestartGame,
		IntentGetAnswer,
		IntentChatMessage:
		return true
	default:
		return false
	}
}

// IsValidChatKind reports whether kind is one of the chat log kinds.
func IsValidChatKind(kind string) bool {
	switch kind {
	case ChatKindChat, ChatKindSystem, ChatKindGame:
		return true
	default:
		return false
	}
}
