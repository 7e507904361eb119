package main

import (
	"fmt"
	"io"

	"github.com/cafebar/api/internal/service"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// menuFile is the on-disk catalogue format. Amounts are strings so they
// are parsed exactly.
type menuFile struct {
	Ingredients []ingredientEntry `yaml:"ingredients"`
	Items       []itemEntry       `yaml:"items"`
}

type ingredientEntry struct {
	Name     string `yaml:"name"`
	Quantity string `yaml:"quantity"`
	Unit     string `yaml:"unit"`
}

type itemEntry struct {
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
	// Absent keeps the stored recipe; an empty list clears it.
	Recipe *[]recipeEntry `yaml:"recipe"`
}

type recipeEntry struct {
	Ingredient string `yaml:"ingredient"`
	Quantity   string `yaml:"quantity"`
}

func parseMenu(r io.Reader) (service.Menu, error) {
	var f menuFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return service.Menu{}, fmt.Errorf("decode yaml: %w", err)
	}

	var m service.Menu
	for i, e := range f.Ingredients {
		qty, err := decimal.NewFromString(e.Quantity)
		if err != nil {
			return service.Menu{}, fmt.Errorf("ingredients[%d] %s: invalid quantity %q", i, e.Name, e.Quantity)
		}
		m.Ingredients = append(m.Ingredients, service.IngredientInput{Name: e.Name, Quantity: qty, Unit: e.Unit})
	}
	for i, e := range f.Items {
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return service.Menu{}, fmt.Errorf("items[%d] %s: invalid price %q", i, e.Name, e.Price)
		}
		item := service.ItemInput{Name: e.Name, Price: price}
		if e.Recipe != nil {
			item.ReplaceRecipe = true
			for j, l := range *e.Recipe {
				qty, err := decimal.NewFromString(l.Quantity)
				if err != nil {
					return service.Menu{}, fmt.Errorf("items[%d].recipe[%d]: invalid quantity %q", i, j, l.Quantity)
				}
				item.Recipe = append(item.Recipe, service.RecipeLine{Ingredient: l.Ingredient, Quantity: qty})
			}
		}
		m.Items = append(m.Items, item)
	}
	return m, nil
}
