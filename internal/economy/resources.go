// Package economy owns the settlement-wide resource ledger.
package economy

// Resource is a ledger key.
type Resource string

const (
	Log       Resource = "log"
	Stone     Resource = "stone"
	Iron      Resource = "iron"
	Tools     Resource = "tools"
	Wheat     Resource = "wheat"
	Bread     Resource = "bread"
	Berries   Resource = "berries"
	Mushrooms Resource = "mushrooms"
	Herbs     Resource = "herbs"
	Fish      Resource = "fish"
	Meat      Resource = "meat"
	Leather   Resource = "leather"
	Wool      Resource = "wool"
	Firewood  Resource = "firewood"
)

// All lists every known resource in ledger order.
var All = []Resource{
	Log, Stone, Iron, Tools, Wheat, Bread, Berries, Mushrooms,
	Herbs, Fish, Meat, Leather, Wool, Firewood,
}

// FoodTypes lists the edible resources in the order the food helpers scan them.
var FoodTypes = []Resource{Bread, Berries, Mushrooms, Fish, Meat}

func IsFood(r Resource) bool {
	for _, f := range FoodTypes {
		if f == r {
			return true
		}
	}
	return false
}

// Amount pairs a resource with a quantity.
type Amount struct {
	Type   Resource `json:"type" yaml:"type"`
	Amount int      `json:"amount" yaml:"amount"`
}
