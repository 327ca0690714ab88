package event

import "github.com/hearthfall/settlement/internal/core/ecs"

// Building lifecycle.

type BuildingPlaced struct {
	Building ecs.EntityID
	Type     string
	X, Y     int
}

type BuildingCompleted struct {
	Building ecs.EntityID
	Type     string
}

type BuildingUpgradeStarted struct {
	Building ecs.EntityID
	From     string
	To       string
}

type BuildingUpgraded struct {
	Building ecs.EntityID
	From     string
	To       string
}

type BuildingDemolitionStarted struct {
	Building ecs.EntityID
	Type     string
	Refund   map[string]int
}

type BuildingDemolished struct {
	Building ecs.EntityID
	Type     string
	Carriers int // workers walking salvage home; 0 means the ledger was credited directly
}

type BuildingCollapsed struct {
	Building ecs.EntityID
	Type     string
}

type UpgradeBlocked struct {
	Building ecs.EntityID
	Reason   string
}

// Workers and citizens.

type WorkerAssigned struct {
	Worker   ecs.EntityID
	Building ecs.EntityID
}

type WorkerUnassigned struct {
	Worker   ecs.EntityID
	Building ecs.EntityID
}

type CitizenBorn struct {
	Citizen ecs.EntityID
	Parent  ecs.EntityID
}

type CitizenDied struct {
	Citizen ecs.EntityID
	Cause   string
}

type MineDepleted struct {
	Building ecs.EntityID
	Type     string
}

// Settlement-wide.

type SeasonChanged struct {
	Year   int
	Season string
}

type WeatherChanged struct {
	Weather string
}

type StorageFull struct {
	Used     int
	Capacity int
}

type TraderArrived struct {
	Sold   map[string]int
	Bought map[string]int
}

type DiseaseOutbreak struct {
	Infected int
}

type FestivalStarted struct {
	Festival string
}

type FestivalEnded struct {
	Festival string
}

type MilestoneReached struct {
	Milestone string
	Value     int
}

func (BuildingPlaced) Name() string            { return "building_placed" }
func (BuildingCompleted) Name() string         { return "building_completed" }
func (BuildingUpgradeStarted) Name() string    { return "building_upgrade_started" }
func (BuildingUpgraded) Name() string          { return "building_upgraded" }
func (BuildingDemolitionStarted) Name() string { return "building_demolition_started" }
func (BuildingDemolished) Name() string        { return "building_demolished" }
func (BuildingCollapsed) Name() string         { return "building_collapsed" }
func (UpgradeBlocked) Name() string            { return "building_upgrade_blocked" }
func (WorkerAssigned) Name() string            { return "worker_assigned" }
func (WorkerUnassigned) Name() string          { return "worker_unassigned" }
func (CitizenBorn) Name() string               { return "citizen_born" }
func (CitizenDied) Name() string               { return "citizen_died" }
func (MineDepleted) Name() string              { return "mine_depleted" }
func (SeasonChanged) Name() string             { return "season_changed" }
func (WeatherChanged) Name() string            { return "weather_changed" }
func (StorageFull) Name() string               { return "storage_full" }
func (TraderArrived) Name() string             { return "trader_arrived" }
func (DiseaseOutbreak) Name() string           { return "disease_outbreak" }
func (FestivalStarted) Name() string           { return "festival_started" }
func (FestivalEnded) Name() string             { return "festival_ended" }
func (MilestoneReached) Name() string          { return "milestone_reached" }
