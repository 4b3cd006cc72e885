package game

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomExists          = errors.New("room already exists")
	ErrNoSuchExit          = errors.New("no exit in that direction")
	ErrMissingDestination  = errors.New("exit destination room does not exist")
	ErrAlreadyMoving       = errors.New("movement already in progress")
	ErrNPCTemplateNotFound = errors.New("npc template not found")
)
