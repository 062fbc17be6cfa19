package apperror

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrInvalidRoomSize  = errors.New("invalid room size")
	ErrInvalidMode      = errors.New("invalid game mode")
	ErrInvalidMove      = errors.New("invalid move")
	ErrSendFailed       = errors.New("failed to send snapshot")
	ErrConnectionClosed = errors.New("connection is closed")
)
