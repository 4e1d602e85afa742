package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type Category struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string    `gorm:"size:255;not null"        json:"name"`
	Products []Product `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Category) TableName() string { return "categorie" }

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"           json:"id"`
	Name        string          `gorm:"size:255;not null"                  json:"name"`
	Description string          `gorm:"type:text"                          json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"        json:"price"`
	Colors      []string        `gorm:"serializer:json"                    json:"colors"`
	Sizes       []string        `gorm:"serializer:json"                    json:"sizes"`
	CategoryID  *uint           `gorm:"index"                              json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	Images      []Image         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Product) TableName() string { return "product" }

// Cover is the first image in display order.
func (p Product) Cover() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

type Image struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"index;not null"           json:"product_id"`
	URL       string `gorm:"size:1024;not null"       json:"url"`
	// Path is the storage key; empty for the placeholder and external URLs.
	Path      string `gorm:"size:512"                 json:"-"`
	Position  int    `gorm:"not null;default:0"       json:"position"`
}

func (Image) TableName() string { return "image_produit" }

type User struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Email           string    `gorm:"size:180;uniqueIndex;not null" json:"email"`
	Username        string    `gorm:"size:50;not null"          json:"username"`
	PasswordHash    string    `gorm:"not null"                  json:"-"`
	Roles           []string  `gorm:"serializer:json"           json:"roles"`
	FirstName       string    `gorm:"size:50"                   json:"first_name"`
	LastName        string    `gorm:"size:50"                   json:"last_name"`
	DisplayName     string    `gorm:"size:50"                   json:"display_name"`
	PostalAddress   string    `gorm:"size:255"                  json:"postal_address"`
	Phone           string    `gorm:"size:20"                   json:"phone"`
	ShippingAddress string    `gorm:"size:255"                  json:"shipping_address"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (User) TableName() string { return "user" }

// RoleSet always contains the member role, whatever is stored.
func (u User) RoleSet() []string {
	roles := []string{RoleMember}
	for _, r := range u.Roles {
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles
}

func (u User) HasRole(role string) bool {
	return slices.Contains(u.RoleSet(), role)
}

func (u User) IsAdmin() bool { return u.HasRole(RoleAdmin) }

// FullName prefers the display name, then first and last names.
func (u User) FullName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	return name
}

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Number          string          `gorm:"size:64;uniqueIndex;not null" json:"number"`
	UserID          *uint           `gorm:"index"                       json:"user_id"`
	User            *User           `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Name            string          `gorm:"size:100"                    json:"name"`
	Phone           string          `gorm:"size:20"                     json:"phone"`
	BillingAddress  string          `gorm:"size:255"                    json:"billing_address"`
	ShippingAddress string          `gorm:"size:255"                    json:"shipping_address"`
	Lines           []OrderLine     `gorm:"foreignKey:OrderID"          json:"lines"`
	CreatedAt       time.Time       `gorm:"index"                       json:"created_at"`
}

func (Order) TableName() string { return "commande" }

type OrderLine struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID     uint            `gorm:"index;not null"              json:"order_id"`
	ProductID   uint            `gorm:"index;not null"              json:"product_id"`
	ProductName string          `gorm:"size:255;not null"           json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null;check:quantite_positive,quantity > 0" json:"quantity"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
}

func (OrderLine) TableName() string { return "commande_produit" }

type PasswordResetToken struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"index;not null"           json:"user_id"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null"                 json:"expires_at"`
	Used      bool       `gorm:"not null;default:false"   json:"used"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (PasswordResetToken) TableName() string { return "reset_password_token" }

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                json:"id"`
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserID    uint      `gorm:"index;not null"            json:"user_id"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null" json:"jti"`
	ExpiresAt time.Time `gorm:"not null"                  json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"    json:"revoked"`
}

func (RefreshToken) TableName() string { return "refresh_token" }

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&Image{},
		&User{},
		&Order{},
		&OrderLine{},
		&PasswordResetToken{},
		&RefreshToken{},
	}
}
