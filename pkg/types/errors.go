package types

import "errors"

var (
	ErrUnknownIntent   = errors.New("unknown intent type")
	ErrReservedIntent  = errors.New("intent type is reserved for the server")
	ErrPayloadTooLarge = errors.New("payload exceeds 1KB limit")
	ErrInvalidChatKind = errors.New("chat kind must be chat, system or game")
)
