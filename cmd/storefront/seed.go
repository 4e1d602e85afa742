package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type seedProduct struct {
	name, description, price string
	colors, sizes            []string
}

var seedCatalog = map[string][]seedProduct{
	"Vêtements": {
		{"T-shirt coton bio", "Coupe droite, coton biologique.", "19.90", []string{"blanc", "noir"}, []string{"S", "M", "L"}},
		{"Pull en laine", "Maille épaisse, laine mérinos.", "59.00", []string{"beige", "bleu marine"}, []string{"M", "L", "XL"}},
		{"Jean slim", "Denim stretch.", "49.50", []string{"bleu marine"}, []string{"S", "M", "L", "XL"}},
	},
	"Accessoires": {
		{"Bonnet", "Bonnet côtelé.", "14.00", []string{"rouge cerise", "noir"}, []string{"Taille unique"}},
		{"Écharpe", "Écharpe douce en laine.", "24.90", []string{"taupe"}, []string{"Taille unique"}},
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty catalog with demo categories and products",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := boot(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		ctx = logging.IntoContext(ctx, a.log)

		catalog := a.catalog()
		existing, err := catalog.Products(ctx, 1, 1)
		if err != nil {
			return err
		}
		if existing.Total > 0 {
			a.log.Info("catalog not empty, nothing to seed", "products", existing.Total)
			return nil
		}

		for catName, products := range seedCatalog {
			cat, err := catalog.CreateCategory(ctx, catName)
			if err != nil {
				return fmt.Errorf("category %s: %w", catName, err)
			}
			for _, p := range products {
				_, err := catalog.CreateProduct(ctx, service.ProductInput{
					Name:        p.name,
					Description: p.description,
					Price:       decimal.RequireFromString(p.price),
					Colors:      p.colors,
					Sizes:       p.sizes,
					CategoryID:  &cat.ID,
				}, nil)
				if err != nil {
					return fmt.Errorf("product %s: %w", p.name, err)
				}
			}
		}
		a.log.Info("catalog seeded")
		return nil
	},
}
