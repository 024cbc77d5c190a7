package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/slicehouse/api/internal/database"
)

const customPizzaName = "Custom Pizza"

// OrderLineRequest is a single requested line: either a catalog item in a
// size, or a custom composition. Any client-sent price is never read.
type OrderLineRequest struct {
	CatalogItemID string
	Size          string
	Composition   *CompositionRequest
	Quantity      int32
}

// CompositionRequest lists inventory item ids for a custom pizza.
type CompositionRequest struct {
	Base    string
	Sauce   string
	Cheese  string
	Veggies []string
	Meats   []string
}

// Composition is the snapshot stored on a custom order line.
type Composition struct {
	Base    uuid.UUID   `json:"base"`
	Sauce   uuid.UUID   `json:"sauce"`
	Cheese  uuid.UUID   `json:"cheese"`
	Veggies []uuid.UUID `json:"veggies"`
	Meats   []uuid.UUID `json:"meats"`
}

// Components returns every inventory item the composition consumes.
func (c Composition) Components() []uuid.UUID {
	ids := []uuid.UUID{c.Base, c.Sauce, c.Cheese}
	ids = append(ids, c.Veggies...)
	return append(ids, c.Meats...)
}

// pricedLine is a resolved line ready to insert.
type pricedLine struct {
	params    database.CreateOrderItemParams
	unitPrice decimal.Decimal
}

// priceLines resolves every line against the catalog and inventory and
// returns the lines plus Σ unitPrice × quantity.
func priceLines(ctx context.Context, store OrderStore, lines []OrderLineRequest) ([]pricedLine, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, ErrEmptyOrder
	}

	total := decimal.Zero
	priced := make([]pricedLine, 0, len(lines))
	for i, line := range lines {
		if line.Quantity < 1 {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, validationf("quantity must be at least 1"))
		}

		var (
			pl  pricedLine
			err error
		)
		switch {
		case line.CatalogItemID != "" && line.Composition != nil:
			err = validationf("item must reference a catalog item or a composition, not both")
		case line.CatalogItemID != "":
			pl, err = priceCatalogLine(ctx, store, line)
		case line.Composition != nil:
			pl, err = priceCompositionLine(ctx, store, *line.Composition)
		default:
			err = validationf("item must reference a catalog item or a composition")
		}
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, err)
		}

		pl.params.Position = int32(i)
		pl.params.Quantity = line.Quantity
		pl.params.UnitPrice = decimalToNumeric(pl.unitPrice)
		total = total.Add(pl.unitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
		priced = append(priced, pl)
	}
	return priced, total, nil
}

func priceCatalogLine(ctx context.Context, store OrderStore, line OrderLineRequest) (pricedLine, error) {
	id, err := uuid.Parse(line.CatalogItemID)
	if err != nil {
		return pricedLine{}, validationf("invalid catalog item id")
	}
	size, err := parseSize(line.Size)
	if err != nil {
		return pricedLine{}, err
	}

	row, err := store.GetCatalogItemPrice(ctx, database.GetCatalogItemPriceParams{ID: id, Size: size})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricedLine{}, fmt.Errorf("catalog item %s: %w", id, ErrNotFound)
		}
		return pricedLine{}, fmt.Errorf("get catalog item: %w", err)
	}
	if !row.IsAvailable {
		return pricedLine{}, fmt.Errorf("catalog item %s: %w", id, ErrNotFound)
	}
	if !row.Price.Valid {
		return pricedLine{}, fmt.Errorf("%s %s: %w", row.Name, size, ErrInvalidSize)
	}

	return pricedLine{
		params: database.CreateOrderItemParams{
			CatalogItemID: pgtype.UUID{Bytes: id, Valid: true},
			Size:          database.NullPizzaSize{PizzaSize: size, Valid: true},
			Name:          row.Name,
		},
		unitPrice: numericToDecimal(row.Price),
	}, nil
}

func parseSize(s string) (database.PizzaSize, error) {
	switch size := database.PizzaSize(s); size {
	case database.PizzaSizeSmall, database.PizzaSizeMedium, database.PizzaSizeLarge:
		return size, nil
	}
	return "", fmt.Errorf("size %q: %w", s, ErrInvalidSize)
}

type slot struct {
	name     string
	ids      []string
	itemType database.InventoryType
	required bool
}

func priceCompositionLine(ctx context.Context, store OrderStore, req CompositionRequest) (pricedLine, error) {
	slots := []slot{
		{"base", single(req.Base), database.InventoryTypeBase, true},
		{"sauce", single(req.Sauce), database.InventoryTypeSauce, true},
		{"cheese", single(req.Cheese), database.InventoryTypeCheese, true},
		{"veggies", req.Veggies, database.InventoryTypeVeggie, false},
		{"meats", req.Meats, database.InventoryTypeMeat, false},
	}

	parsed := make([][]uuid.UUID, len(slots))
	var lookup []uuid.UUID
	for i, s := range slots {
		if s.required && len(s.ids) == 0 {
			return pricedLine{}, fmt.Errorf("missing %s: %w", s.name, ErrIncompleteComposition)
		}
		for _, raw := range s.ids {
			id, err := uuid.Parse(raw)
			if err != nil {
				return pricedLine{}, validationf("invalid %s id %q", s.name, raw)
			}
			parsed[i] = append(parsed[i], id)
			lookup = append(lookup, id)
		}
	}

	found, err := store.GetInventoryItemsByIDs(ctx, lookup)
	if err != nil {
		return pricedLine{}, fmt.Errorf("get inventory items: %w", err)
	}
	byID := make(map[uuid.UUID]database.InventoryItem, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}

	unitPrice := decimal.Zero
	for i, s := range slots {
		for _, id := range parsed[i] {
			it, ok := byID[id]
			if !ok {
				return pricedLine{}, fmt.Errorf("%s %s: %w", s.name, id, ErrNotFound)
			}
			if it.ItemType != s.itemType {
				return pricedLine{}, validationf("%s %s is a %s, not a %s", s.name, it.Name, it.ItemType, s.itemType)
			}
			unitPrice = unitPrice.Add(numericToDecimal(it.Cost))
		}
	}

	snapshot, err := json.Marshal(Composition{
		Base:    parsed[0][0],
		Sauce:   parsed[1][0],
		Cheese:  parsed[2][0],
		Veggies: nonNil(parsed[3]),
		Meats:   nonNil(parsed[4]),
	})
	if err != nil {
		return pricedLine{}, fmt.Errorf("encode composition: %w", err)
	}

	return pricedLine{
		params: database.CreateOrderItemParams{
			Composition: snapshot,
			Name:        customPizzaName,
		},
		unitPrice: unitPrice,
	}, nil
}

func single(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
