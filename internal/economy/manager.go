package economy

import (
	"slices"

	"github.com/hearthfall/settlement/internal/rng"
	"go.uber.org/zap"
)

// dietMemory is how many recent meals bias food selection.
const dietMemory = 6

// Manager owns the global resource ledger and aggregate storage accounting.
// Quantities never go negative. Adds are clamped to free storage capacity and
// the excess is dropped; producers are never blocked.
type Manager struct {
	amounts  map[Resource]int
	limits   map[Resource]int
	used     int
	capacity int
	diet     []Resource
	log      *zap.Logger
}

func NewManager(capacity int, log *zap.Logger) *Manager {
	return &Manager{
		amounts:  make(map[Resource]int, len(All)),
		limits:   make(map[Resource]int),
		capacity: capacity,
		log:      log,
	}
}

// GetResource returns the quantity held, 0 for unknown types.
func (m *Manager) GetResource(r Resource) int {
	return m.amounts[r]
}

// AddResource adds up to amount and returns what was actually stored.
func (m *Manager) AddResource(r Resource, amount int) int {
	if amount <= 0 {
		return 0
	}
	free := m.capacity - m.used
	if free <= 0 {
		return 0
	}
	if amount > free {
		m.log.Debug("storage clamp", zap.String("resource", string(r)),
			zap.Int("requested", amount), zap.Int("stored", free))
		amount = free
	}
	m.amounts[r] += amount
	m.used += amount
	return amount
}

// RemoveResource removes up to amount and returns what was actually removed.
func (m *Manager) RemoveResource(r Resource, amount int) int {
	if amount <= 0 {
		return 0
	}
	have := m.amounts[r]
	if amount > have {
		amount = have
	}
	if amount == 0 {
		return 0
	}
	m.amounts[r] = have - amount
	m.used -= amount
	return amount
}

// AddResourceRespectingLimit adds like AddResource but stops at the soft
// limit configured for r. Amounts already above the limit are kept.
func (m *Manager) AddResourceRespectingLimit(r Resource, amount int) int {
	if limit, ok := m.limits[r]; ok {
		room := limit - m.amounts[r]
		if room <= 0 {
			return 0
		}
		if amount > room {
			amount = room
		}
	}
	return m.AddResource(r, amount)
}

func (m *Manager) SetLimit(r Resource, limit int) {
	if limit < 0 {
		limit = 0
	}
	m.limits[r] = limit
}

func (m *Manager) ClearLimit(r Resource) {
	delete(m.limits, r)
}

func (m *Manager) Limit(r Resource) (int, bool) {
	l, ok := m.limits[r]
	return l, ok
}

// HasAll reports whether every cost can be paid in full.
func (m *Manager) HasAll(costs []Amount) bool {
	need := make(map[Resource]int, len(costs))
	for _, c := range costs {
		need[c.Type] += c.Amount
	}
	for r, n := range need {
		if m.amounts[r] < n {
			return false
		}
	}
	return true
}

// RemoveAll deducts every cost or nothing at all.
func (m *Manager) RemoveAll(costs []Amount) bool {
	if !m.HasAll(costs) {
		return false
	}
	for _, c := range costs {
		m.RemoveResource(c.Type, c.Amount)
	}
	return true
}

func (m *Manager) GetStorageUsed() int     { return m.used }
func (m *Manager) GetStorageCapacity() int { return m.capacity }
func (m *Manager) IsStorageFull() bool     { return m.used >= m.capacity }

// SetStorageCapacity updates the aggregate capacity. Holdings above a
// reduced capacity are kept; further adds are refused until usage drops.
func (m *Manager) SetStorageCapacity(capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	m.capacity = capacity
}

// TotalFood sums every edible resource.
func (m *Manager) TotalFood() int {
	total := 0
	for _, f := range FoodTypes {
		total += m.amounts[f]
	}
	return total
}

// Meal reports what ConsumeFood removed.
type Meal struct {
	Eaten int
	Types []Resource
}

// Variety is the number of distinct food types in the meal.
func (meal Meal) Variety() int {
	seen := make([]Resource, 0, len(meal.Types))
	for _, t := range meal.Types {
		if !slices.Contains(seen, t) {
			seen = append(seen, t)
		}
	}
	return len(seen)
}

// ConsumeFood removes up to amount units of food one at a time, weighting
// each pick toward plentiful types and away from recently eaten ones.
func (m *Manager) ConsumeFood(amount int, r *rng.Random) Meal {
	var meal Meal
	weights := make([]float64, len(FoodTypes))
	for meal.Eaten < amount {
		for i, f := range FoodTypes {
			have := m.amounts[f]
			if have <= 0 {
				weights[i] = 0
				continue
			}
			weights[i] = float64(min(have, 50)) / float64(1+3*m.recentCount(f))
		}
		i := r.Weighted(weights)
		if i < 0 {
			break
		}
		f := FoodTypes[i]
		m.RemoveResource(f, 1)
		m.remember(f)
		meal.Eaten++
		meal.Types = append(meal.Types, f)
	}
	return meal
}

func (m *Manager) recentCount(f Resource) int {
	n := 0
	for _, d := range m.diet {
		if d == f {
			n++
		}
	}
	return n
}

func (m *Manager) remember(f Resource) {
	m.diet = append(m.diet, f)
	if len(m.diet) > dietMemory {
		m.diet = m.diet[len(m.diet)-dietMemory:]
	}
}

// RecentDiet returns the remembered meals, oldest first.
func (m *Manager) RecentDiet() []Resource {
	return append([]Resource(nil), m.diet...)
}
