package game

import "github.com/ellyseum/ellymud-sub008/internal/storage"

// Session is a connected player's view of the world, owned by the session
// manager. The world layer only reads the collection; it never creates or
// destroys sessions.
type Session interface {
	Username() string
	RoomId() storage.Identifier
	SetRoomId(storage.Identifier)

	// Speed is the character's movement-speed stat, used to compute
	// movement delay.
	Speed() int
}

// SessionSource iterates the externally-owned collection of connected
// sessions. The callback returns false to stop early.
type SessionSource interface {
	ForEachSession(fn func(Session) bool)
}

// Publisher delivers messages to a player's outbound channel.
type Publisher interface {
	PublishToPlayer(username string, data []byte) error
}
