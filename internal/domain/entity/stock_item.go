package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categorías de artículos del almacén de alimentos.
const (
	CategoryGrains     = "grains"
	CategoryLegumes    = "legumes"
	CategoryDairy      = "dairy"
	CategoryMeat       = "meat"
	CategoryFish       = "fish"
	CategoryVegetables = "vegetables"
	CategoryFruits     = "fruits"
	CategoryCanned     = "canned"
	CategoryOils       = "oils"
	CategorySugar      = "sugar"
	CategoryBeverages  = "beverages"
	CategoryBabyFood   = "baby-food"
	CategoryHygiene    = "hygiene"
	CategoryOther      = "other"
)

// Categories lista las categorías válidas en orden de presentación.
var Categories = []string{
	CategoryGrains, CategoryLegumes, CategoryDairy, CategoryMeat, CategoryFish,
	CategoryVegetables, CategoryFruits, CategoryCanned, CategoryOils, CategorySugar,
	CategoryBeverages, CategoryBabyFood, CategoryHygiene, CategoryOther,
}

// Dimensiones de unidad.
const (
	DimensionWeight = "weight"
	DimensionVolume = "volume"
	DimensionCount  = "count"
)

// Unidades de medida y su dimensión.
var Units = map[string]string{
	"kg":   DimensionWeight,
	"g":    DimensionWeight,
	"l":    DimensionVolume,
	"ml":   DimensionVolume,
	"unit": DimensionCount,
	"pack": DimensionCount,
	"box":  DimensionCount,
}

// IsValidCategory indica si c es una categoría conocida.
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// IsValidUnit indica si u es una unidad conocida.
func IsValidUnit(u string) bool {
	_, ok := Units[u]
	return ok
}

// StockItem representa un artículo del catálogo con su cantidad en caché.
// Quantity es una proyección del libro de movimientos: solo cambia vía Movement.
// Version cubre los atributos del catálogo (no la cantidad).
type StockItem struct {
	ID                string
	Name              string
	Category          string
	Unit              string
	UnitPrice         decimal.Decimal
	Quantity          decimal.Decimal
	CriticalThreshold decimal.Decimal
	PurchaseDate      *time.Time
	ExpirationDate    *time.Time
	Supplier          string
	Location          string
	Barcode           *string
	Notes             string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// Archived indica si el artículo fue dado de baja (borrado lógico).
func (i *StockItem) Archived() bool { return i.DeletedAt != nil }

// Value devuelve cantidad × precio unitario.
func (i *StockItem) Value() decimal.Decimal { return i.Quantity.Mul(i.UnitPrice) }

// Clone devuelve una copia profunda (punteros incluidos).
func (i *StockItem) Clone() *StockItem {
	if i == nil {
		return nil
	}
	c := *i
	if i.PurchaseDate != nil {
		t := *i.PurchaseDate
		c.PurchaseDate = &t
	}
	if i.ExpirationDate != nil {
		t := *i.ExpirationDate
		c.ExpirationDate = &t
	}
	if i.Barcode != nil {
		b := *i.Barcode
		c.Barcode = &b
	}
	if i.DeletedAt != nil {
		t := *i.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}
