package game

// Services bundles the world-facing services, constructed once by the
// composition root. Cross-service calls go through the WorldState facade;
// no service holds a reference to another except the shared notifier.
type Services struct {
	Notify   *NotificationService
	Movement *MovementService
	Teleport *TeleportService
	Entities *EntityService
}

func NewServices(world *WorldState, sessions SessionSource, pub Publisher) *Services {
	notify := NewNotificationService(pub)
	return &Services{
		Notify:   notify,
		Movement: NewMovementService(world, notify),
		Teleport: NewTeleportService(world, sessions, notify),
		Entities: NewEntityService(world, sessions, notify),
	}
}
