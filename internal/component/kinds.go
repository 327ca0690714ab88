package component

import "github.com/hearthfall/settlement/internal/core/ecs"

// The closed set of component kinds.
const (
	KindPosition  ecs.Kind = "position"
	KindMovement  ecs.Kind = "movement"
	KindCitizen   ecs.Kind = "citizen"
	KindWorker    ecs.Kind = "worker"
	KindBuilding  ecs.Kind = "building"
	KindProducer  ecs.Kind = "producer"
	KindStorage   ecs.Kind = "storage"
	KindHouse     ecs.Kind = "house"
	KindFamily    ecs.Kind = "family"
	KindNeeds     ecs.Kind = "needs"
	KindLivestock ecs.Kind = "livestock"
)

// Stores caches the typed store for every kind. Built once per world;
// pointers stay valid for the world's lifetime.
type Stores struct {
	Position  *ecs.Store[Position]
	Movement  *ecs.Store[Movement]
	Citizen   *ecs.Store[Citizen]
	Worker    *ecs.Store[Worker]
	Building  *ecs.Store[Building]
	Producer  *ecs.Store[Producer]
	Storage   *ecs.Store[Storage]
	House     *ecs.Store[House]
	Family    *ecs.Store[Family]
	Needs     *ecs.Store[Needs]
	Livestock *ecs.Store[Livestock]
}

// Register creates every component store on w.
func Register(w *ecs.World) Stores {
	return Stores{
		Position:  ecs.Register[Position](w, KindPosition),
		Movement:  ecs.Register[Movement](w, KindMovement),
		Citizen:   ecs.Register[Citizen](w, KindCitizen),
		Worker:    ecs.Register[Worker](w, KindWorker),
		Building:  ecs.Register[Building](w, KindBuilding),
		Producer:  ecs.Register[Producer](w, KindProducer),
		Storage:   ecs.Register[Storage](w, KindStorage),
		House:     ecs.Register[House](w, KindHouse),
		Family:    ecs.Register[Family](w, KindFamily),
		Needs:     ecs.Register[Needs](w, KindNeeds),
		Livestock: ecs.Register[Livestock](w, KindLivestock),
	}
}
