package messaging

import "fmt"

// PlayerPublisher delivers world messages to per-player NATS subjects.
// Session handling subscribes each connection to its own subject; the
// world layer only publishes.
type PlayerPublisher struct {
	server *NatsServer
}

func NewPlayerPublisher(server *NatsServer) *PlayerPublisher {
	return &PlayerPublisher{server: server}
}

// PublishToPlayer sends data to the player's subject.
func (p *PlayerPublisher) PublishToPlayer(username string, data []byte) error {
	return p.server.Publish(PlayerSubject(username), data)
}

// PlayerSubject returns the NATS subject a player's session listens on.
func PlayerSubject(username string) string {
	return fmt.Sprintf("player.%s", username)
}
