package npc

// Event types published on the bus.
const (
	EventSpawned   = "npc.spawned"
	EventDespawned = "npc.despawned"
	EventDecision  = "npc.decision"
)

const eventSource = "npc.manager"
