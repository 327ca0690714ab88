package data

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/hearthfall/settlement/internal/economy"
	"gopkg.in/yaml.v3"
)

// BuildingDef is the static template of one building type.
type BuildingDef struct {
	Type          string
	Category      string
	Width         int
	Height        int
	Blocks        bool             // footprint blocks movement
	Cost          []economy.Amount // in ledger order
	Work          float64          // work units to construct
	MaxWorkers    int
	Profession    string           // profession of workers once completed
	MaxDurability float64
	DecayRate     float64          // durability lost per environment pass
	UpgradeTo     string
	UpgradeCost   []economy.Amount
	UpgradeWork   float64

	Storage    *StorageDef
	House      *HouseDef
	Producer   *ProducerDef
	Extraction *ExtractionDef
	Gather     *GatherDef
	Livestock  *LivestockDef
	Trading    *TradingDef
}

// StorageDef adds capacity to the global ledger.
type StorageDef struct {
	Capacity int `yaml:"capacity"`
}

// HouseDef shelters residents.
type HouseDef struct {
	Capacity int     `yaml:"capacity"`
	Warmth   float64 `yaml:"warmth"`
}

// ProducerDef converts inputs to outputs once per Interval ticks per cycle.
type ProducerDef struct {
	Interval int              `yaml:"interval"`
	Inputs   []economy.Amount `yaml:"inputs"`
	Outputs  []economy.Amount `yaml:"outputs"`
	Season   string           `yaml:"season"` // only produces in this season when set ("" = always)
}

// ExtractionDef digs a resource. Surface deposits inside Radius are taken
// first, then the underground vein.
type ExtractionDef struct {
	Family   string           `yaml:"family"` // vein key family, e.g. "mine" or "quarry"
	Resource economy.Resource `yaml:"resource"`
	Radius   int              `yaml:"radius"`
	VeinSize int              `yaml:"vein_size"`
	Yield    int              `yaml:"yield"`
	Interval int              `yaml:"interval"`
}

// GatherDef sends workers out to harvest wild surface resources.
type GatherDef struct {
	Resources   []economy.Resource `yaml:"resources"`
	Radius      int                `yaml:"radius"`
	HarvestTime int                `yaml:"harvest_time"`
	Carry       int                `yaml:"carry"`
}

// LivestockDef keeps a herd.
type LivestockDef struct {
	Animal    string           `yaml:"animal"`
	Initial   int              `yaml:"initial"`
	Capacity  int              `yaml:"capacity"`
	BreedRate float64          `yaml:"breed_rate"` // growth per pass per animal pair
	Interval  int              `yaml:"interval"`
	Yields    []economy.Amount `yaml:"yields"`
}

// TradingDef lets traders visit.
type TradingDef struct {
	Interval int     `yaml:"interval"`
	Lot      int     `yaml:"lot"`  // surplus units sold per visit
	Rate     float64 `yaml:"rate"` // tools received per unit sold
}

// HasWork reports whether completed buildings of this type take workers.
func (d *BuildingDef) HasWork() bool {
	return d.MaxWorkers > 0
}

// BuildingTable holds every building definition keyed by type.
type BuildingTable struct {
	defs  map[string]*BuildingDef
	types []string
}

// Get returns a definition by type.
func (t *BuildingTable) Get(typ string) (*BuildingDef, bool) {
	d, ok := t.defs[typ]
	return d, ok
}

// Count returns the number of definitions loaded.
func (t *BuildingTable) Count() int {
	return len(t.defs)
}

// Types returns every type, sorted.
func (t *BuildingTable) Types() []string {
	return slices.Clone(t.types)
}

// Suggest returns the known type closest to typ, or "" when nothing is near.
func (t *BuildingTable) Suggest(typ string) string {
	best, bestDist := "", -1
	for _, cand := range t.types {
		dist := levenshtein.ComputeDistance(typ, cand)
		if dist > suggestLimit(len(cand)) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	return best
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

type buildingYAML struct {
	Type          string         `yaml:"type"`
	Category      string         `yaml:"category"`
	Width         int            `yaml:"width"`
	Height        int            `yaml:"height"`
	Blocks        *bool          `yaml:"blocks"`
	Cost          map[string]int `yaml:"cost"`
	Work          float64        `yaml:"work"`
	MaxWorkers    int            `yaml:"max_workers"`
	Profession    string         `yaml:"profession"`
	MaxDurability float64        `yaml:"max_durability"`
	DecayRate     float64        `yaml:"decay_rate"`
	UpgradeTo     string         `yaml:"upgrade_to"`
	UpgradeCost   map[string]int `yaml:"upgrade_cost"`
	UpgradeWork   float64        `yaml:"upgrade_work"`

	Storage    *StorageDef    `yaml:"storage"`
	House      *HouseDef      `yaml:"house"`
	Producer   *ProducerDef   `yaml:"producer"`
	Extraction *ExtractionDef `yaml:"extraction"`
	Gather     *GatherDef     `yaml:"gather"`
	Livestock  *LivestockDef  `yaml:"livestock"`
	Trading    *TradingDef    `yaml:"trading"`
}

type buildingListFile struct {
	Buildings []buildingYAML `yaml:"buildings"`
}

// LoadBuildingTable loads building definitions from a YAML file.
func LoadBuildingTable(path string) (*BuildingTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read building_list: %w", err)
	}
	return ParseBuildingTable(raw)
}

// ParseBuildingTable builds a table from YAML bytes.
func ParseBuildingTable(raw []byte) (*BuildingTable, error) {
	var f buildingListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse building_list: %w", err)
	}

	t := &BuildingTable{defs: make(map[string]*BuildingDef, len(f.Buildings))}
	for i := range f.Buildings {
		y := &f.Buildings[i]
		if y.Type == "" {
			return nil, fmt.Errorf("building #%d: missing type", i)
		}
		if _, dup := t.defs[y.Type]; dup {
			return nil, fmt.Errorf("building %s: duplicate type", y.Type)
		}
		if y.Width <= 0 || y.Height <= 0 {
			return nil, fmt.Errorf("building %s: footprint %dx%d", y.Type, y.Width, y.Height)
		}
		d := &BuildingDef{
			Type:          y.Type,
			Category:      y.Category,
			Width:         y.Width,
			Height:        y.Height,
			Blocks:        true,
			Cost:          amounts(y.Cost),
			Work:          y.Work,
			MaxWorkers:    y.MaxWorkers,
			Profession:    y.Profession,
			MaxDurability: y.MaxDurability,
			DecayRate:     y.DecayRate,
			UpgradeTo:     y.UpgradeTo,
			UpgradeCost:   amounts(y.UpgradeCost),
			UpgradeWork:   y.UpgradeWork,
			Storage:       y.Storage,
			House:         y.House,
			Producer:      y.Producer,
			Extraction:    y.Extraction,
			Gather:        y.Gather,
			Livestock:     y.Livestock,
			Trading:       y.Trading,
		}
		if y.Blocks != nil {
			d.Blocks = *y.Blocks
		}
		if d.Work <= 0 {
			d.Work = 1
		}
		if d.MaxDurability <= 0 {
			d.MaxDurability = 100
		}
		if d.UpgradeTo != "" && d.UpgradeWork <= 0 {
			d.UpgradeWork = d.Work
		}
		if e := d.Extraction; e != nil {
			if e.Family == "" || e.Resource == "" || e.Radius <= 0 {
				return nil, fmt.Errorf("building %s: extraction needs family, resource and radius", y.Type)
			}
			if e.Interval <= 0 {
				e.Interval = 1
			}
			if e.Yield <= 0 {
				e.Yield = 1
			}
		}
		if p := d.Producer; p != nil && p.Interval <= 0 {
			p.Interval = 1
		}
		t.defs[d.Type] = d
		t.types = append(t.types, d.Type)
	}
	sort.Strings(t.types)

	for _, d := range t.defs {
		if d.UpgradeTo == "" {
			continue
		}
		target, ok := t.defs[d.UpgradeTo]
		if !ok {
			return nil, fmt.Errorf("building %s: unknown upgrade target %s", d.Type, d.UpgradeTo)
		}
		if target.Width < d.Width || target.Height < d.Height {
			return nil, fmt.Errorf("building %s: upgrade %s shrinks the footprint", d.Type, d.UpgradeTo)
		}
	}
	return t, nil
}

// amounts orders a cost map by ledger order, then unknown keys alphabetically.
func amounts(m map[string]int) []economy.Amount {
	if len(m) == 0 {
		return nil
	}
	out := make([]economy.Amount, 0, len(m))
	for _, r := range economy.All {
		if n, ok := m[string(r)]; ok && n > 0 {
			out = append(out, economy.Amount{Type: r, Amount: n})
		}
	}
	var extra []string
	for k, n := range m {
		if n > 0 && !slices.Contains(economy.All, economy.Resource(k)) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, economy.Amount{Type: economy.Resource(k), Amount: m[k]})
	}
	return out
}
