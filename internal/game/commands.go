package game

import (
	"fmt"

	"github.com/hearthfall/settlement/internal/core/ecs"
	"go.uber.org/zap"
)

// Command is an external request applied at the start of a tick.
type Command interface {
	Apply(g *Game) bool
	String() string
}

// Submit queues cmd for the next tick. Safe from any goroutine; returns
// false when the queue is full.
func (g *Game) Submit(cmd Command) bool {
	select {
	case g.commands <- cmd:
		return true
	default:
		return false
	}
}

func (g *Game) drainCommands() {
	for {
		select {
		case cmd := <-g.commands:
			ok := cmd.Apply(g)
			g.log.Debug("command applied", zap.String("cmd", cmd.String()), zap.Bool("ok", ok))
		default:
			return
		}
	}
}

type PlaceCommand struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (c PlaceCommand) Apply(g *Game) bool {
	_, ok := g.PlaceBuilding(c.Type, c.X, c.Y)
	return ok
}

func (c PlaceCommand) String() string { return fmt.Sprintf("place %s at %d,%d", c.Type, c.X, c.Y) }

type UpgradeCommand struct {
	Building ecs.EntityID `json:"building"`
}

func (c UpgradeCommand) Apply(g *Game) bool { return g.InitiateUpgrade(c.Building) }
func (c UpgradeCommand) String() string     { return fmt.Sprintf("upgrade %v", c.Building) }

type DemolishCommand struct {
	Building ecs.EntityID `json:"building"`
}

func (c DemolishCommand) Apply(g *Game) bool { return g.InitiateDemolition(c.Building) }
func (c DemolishCommand) String() string     { return fmt.Sprintf("demolish %v", c.Building) }

type AssignCommand struct {
	Worker   ecs.EntityID `json:"worker"`
	Building ecs.EntityID `json:"building"`
}

func (c AssignCommand) Apply(g *Game) bool { return g.AssignWorkerToBuilding(c.Worker, c.Building) }
func (c AssignCommand) String() string {
	return fmt.Sprintf("assign %v to %v", c.Worker, c.Building)
}

type UnassignCommand struct {
	Worker ecs.EntityID `json:"worker"`
}

func (c UnassignCommand) Apply(g *Game) bool { return g.UnassignWorker(c.Worker) }
func (c UnassignCommand) String() string     { return fmt.Sprintf("unassign %v", c.Worker) }
