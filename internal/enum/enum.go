package enum

// Values constrained by CHECK clauses rather than Postgres enum types.

const (
	UnitKilogram   = "kg"
	UnitGram       = "g"
	UnitLitre      = "l"
	UnitMillilitre = "ml"
	UnitPieces     = "pieces"
	UnitPackets    = "packets"
)

var InventoryUnits = []string{
	UnitKilogram, UnitGram, UnitLitre, UnitMillilitre, UnitPieces, UnitPackets,
}

const (
	CategoryVeg     = "veg"
	CategoryNonVeg  = "non-veg"
	CategoryPremium = "premium"
)

// Role names as they appear in the users.role column and token claims.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

const (
	EventLowStock = "inventory.low_stock"
)

func IsValidUnit(u string) bool {
	for _, v := range InventoryUnits {
		if v == u {
			return true
		}
	}
	return false
}
