package nutrition

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// baseSuffix marks dictionary keys usable as a 100 g base for weighted lookups.
const baseSuffix = " 100г"

var weightedPattern = regexp.MustCompile(`(?i)^(.*?)\s+(\d+)\s*(г|гр|грамм?)$`)

// FoodItem is a dictionary hit, already scaled to the requested portion.
type FoodItem struct {
	Name     string
	Grams    int
	Calories int
	ProteinG float64
	FatG     float64
	CarbsG   float64
}

// Dictionary is a static food lookup table keyed by lower-case text.
type Dictionary struct {
	items map[string]FoodItem
}

// NewDictionary builds a dictionary from items. Keys are lower-cased.
func NewDictionary(items map[string]FoodItem) *Dictionary {
	d := &Dictionary{items: make(map[string]FoodItem, len(items))}
	for k, v := range items {
		d.items[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return d
}

// DefaultDictionary returns the built-in placeholder food table.
func DefaultDictionary() *Dictionary {
	return NewDictionary(map[string]FoodItem{
		"яблоко":              {Name: "Яблоко (среднее)", Grams: 150, Calories: 80, ProteinG: 0.4, FatG: 0.3, CarbsG: 20},
		"банан":               {Name: "Банан (средний)", Grams: 120, Calories: 110, ProteinG: 1.3, FatG: 0.4, CarbsG: 27},
		"куриная грудка 100г": {Name: "Куриная грудка (100г)", Grams: 100, Calories: 165, ProteinG: 31, FatG: 3.6, CarbsG: 0},
		"гречка 100г":         {Name: "Гречка отварная (100г)", Grams: 100, Calories: 110, ProteinG: 4.2, FatG: 1.1, CarbsG: 21.3},
		"овсянка 50г":         {Name: "Овсянка сухая (50г)", Grams: 50, Calories: 190, ProteinG: 6, FatG: 3.5, CarbsG: 32},
		"творог 100г":         {Name: "Творог 5% (100г)", Grams: 100, Calories: 120, ProteinG: 17, FatG: 5, CarbsG: 1.8},
		"яйцо":                {Name: "Яйцо куриное (1 шт)", Grams: 55, Calories: 75, ProteinG: 6.5, FatG: 5, CarbsG: 0.6},
		"хлеб":                {Name: "Хлеб ржаной (1 кусок)", Grams: 30, Calories: 70, ProteinG: 2, FatG: 0.5, CarbsG: 14},
		"кофе":                {Name: "Кофе черный", Grams: 200, Calories: 2},
		"чай":                 {Name: "Чай без сахара", Grams: 200, Calories: 1},
	})
}

// Lookup resolves text to a food item. Exact keys win; otherwise
// "<name> <N>г" is scaled linearly from the "<name> 100г" entry.
func (d *Dictionary) Lookup(text string) (FoodItem, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if item, ok := d.items[key]; ok {
		return item, nil
	}

	m := weightedPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return FoodItem{}, fmt.Errorf("%w: %q", ErrNotRecognized, text)
	}
	grams, err := strconv.Atoi(m[2])
	if err != nil || grams <= 0 {
		return FoodItem{}, fmt.Errorf("%w: %q", ErrNotRecognized, text)
	}
	base, ok := d.items[strings.ToLower(strings.TrimSpace(m[1]))+baseSuffix]
	if !ok {
		return FoodItem{}, fmt.Errorf("%w: %q", ErrNotRecognized, text)
	}
	return base.Scale(grams), nil
}

// Scale returns the item resized from its 100 g base to grams.
func (f FoodItem) Scale(grams int) FoodItem {
	k := float64(grams) / 100
	name := strings.TrimSpace(strings.ReplaceAll(f.Name, "(100г)", ""))
	return FoodItem{
		Name:     fmt.Sprintf("%s (%dг)", name, grams),
		Grams:    grams,
		Calories: int(math.Round(float64(f.Calories) * k)),
		ProteinG: Round1(f.ProteinG * k),
		FatG:     Round1(f.FatG * k),
		CarbsG:   Round1(f.CarbsG * k),
	}
}
