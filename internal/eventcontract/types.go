package eventcontract

// EventType is the closed enum of event types the world-core produces
// and consumes (spec §6).
type EventType string

const (
	PlayerMove                EventType = "Player.Move"
	PlayerLook                EventType = "Player.Look"
	NPCTick                   EventType = "NPC.Tick"
	WorldAmbienceGenerated    EventType = "World.Ambience.Generated"
	WorldLocationBatchGenerate EventType = "World.Location.BatchGenerate"
	WorldExitCreate           EventType = "World.Exit.Create"
	LocationEnvironmentChanged EventType = "Location.Environment.Changed"
	QuestProposed             EventType = "Quest.Proposed"
)

var knownEventTypes = map[EventType]struct{}{
	PlayerMove:                 {},
	PlayerLook:                 {},
	NPCTick:                    {},
	WorldAmbienceGenerated:     {},
	WorldLocationBatchGenerate: {},
	WorldExitCreate:            {},
	LocationEnvironmentChanged: {},
	QuestProposed:              {},
}

func (t EventType) Valid() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// ActorKind is the closed enum for who/what caused an event.
type ActorKind string

const (
	ActorPlayer ActorKind = "player"
	ActorNPC    ActorKind = "npc"
	ActorSystem ActorKind = "system"
	ActorAI     ActorKind = "ai"
)

var knownActorKinds = map[ActorKind]struct{}{
	ActorPlayer: {}, ActorNPC: {}, ActorSystem: {}, ActorAI: {},
}

func (k ActorKind) Valid() bool {
	_, ok := knownActorKinds[k]
	return ok
}

// Actor identifies who caused an event.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}
