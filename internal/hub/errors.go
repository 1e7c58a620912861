package hub

import "errors"

var (
	ErrHubAlreadyRunning = errors.New("hub is already running")
	ErrHubNotRunning     = errors.New("hub is not running")
	ErrHubStopped        = errors.New("hub was stopped and cannot be restarted")
	ErrIntentChannelFull = errors.New("intent channel is full")
	ErrRateLimited       = errors.New("rate limit exceeded, slow down")
)
