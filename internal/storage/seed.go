package storage

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/ident"
)

const defaultAdminPhone = "81992974918"

// EnsureDefaults seeds the admin account, settings and a starter menu
// on first boot. Safe to call on every start; existing data wins.
func (s *Storage) EnsureDefaults(ctx context.Context) error {
	admin, err := s.GetAdmin(ctx)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if admin == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(ident.DefaultPassword(defaultAdminPhone)), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		seeded := domain.Admin{
			Name:     "dono",
			Phone:    defaultAdminPhone,
			Password: string(hash),
		}
		if err := s.UpdateAdmin(ctx, seeded); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		s.log.Info("seeded default admin account", "phone", defaultAdminPhone)
	}

	if _, err := s.GetSettings(ctx); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	products, err := s.GetAllProducts(ctx)
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if len(products) > 0 {
		return nil
	}
	for _, p := range starterMenu() {
		if _, err := s.AddProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}
	s.log.Info("seeded starter menu")
	return nil
}

func starterMenu() []domain.Product {
	return []domain.Product{
		{
			Name:        "Jó Clássico",
			Category:    domain.CategoryBurger,
			Price:       18.90,
			Description: "Pão brioche, hambúrguer 120g, queijo, alface e tomate",
			Ingredients: []string{"pão brioche", "hambúrguer 120g", "queijo", "alface", "tomate"},
			Available:   true,
		},
		{
			Name:        "Combo Jó Duplo",
			Category:    domain.CategoryCombo,
			Price:       32.90,
			Description: "Hambúrguer duplo, batata média e refrigerante lata",
			Ingredients: []string{"hambúrguer duplo", "batata média", "refrigerante lata"},
			Available:   true,
		},
		{
			Name:      "Refrigerante Lata",
			Category:  domain.CategoryDrink,
			Price:     6.00,
			Available: true,
		},
	}
}
