package store

import "errors"

var (
	ErrSlotTaken = errors.New("slot already booked")
	ErrNotFound  = errors.New("not found")
	ErrClosed    = errors.New("store closed")
)
