// Package core holds the one algorithm this system actually owns: turning a
// ticket of menu items into an ingredient demand and reserving that demand
// against live stock without ever overselling.
package core

import "github.com/infinirdc/resto-op/models"

// PurchasedItem references a menu item and how many units of it were bought.
type PurchasedItem struct {
	ItemID string
	Qty    int
}

// Demand maps ingredient ids to the total quantity a ticket requires.
type Demand map[string]float64

// AggregateDemand sums the recipe lines of every purchased item. Items missing
// from the catalog or carrying an empty recipe contribute nothing. Pure and
// order-independent, so it is safe to call speculatively.
func AggregateDemand(purchased []PurchasedItem, catalog map[string]models.MenuItem) Demand {
	demand := make(Demand)
	for _, p := range purchased {
		if p.Qty <= 0 {
			continue
		}
		item, ok := catalog[p.ItemID]
		if !ok {
			continue
		}
		for _, line := range item.Recipe {
			demand[line.Ingredient_id] += line.Qty * float64(p.Qty)
		}
	}
	return demand
}
