package domain

import "errors"

var (
	ErrInvalidPieceID = errors.New("piece id out of range")
	ErrInvalidCellID  = errors.New("cell id out of range")
	ErrNoSuchMove     = errors.New("move not available for piece")
)
