package domain

import "time"

// Enumerations
const (
	LevelBronze   Level = "bronze"
	LevelSilver   Level = "silver"
	LevelGold     Level = "gold"
	LevelPlatinum Level = "platinum"

	CategoryBurger Category = "burger"
	CategoryDrink  Category = "drink"
	CategoryCombo  Category = "combo"
	CategorySide   Category = "side"

	TransactionEarned     TransactionType = "earned"
	TransactionRedeemed   TransactionType = "redeemed"
	TransactionAdjustment TransactionType = "adjustment"

	ActorAdmin  ActorType = "admin"
	ActorClient ActorType = "client"
)

type Level string
type Category string
type TransactionType string
type ActorType string

// ValidCategory reports whether c is one of the known menu categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryBurger, CategoryDrink, CategoryCombo, CategorySide:
		return true
	}
	return false
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Price       float64   `json:"price"`
	Image       string    `json:"image,omitempty"`
	Description string    `json:"description,omitempty"`
	Ingredients []string  `json:"ingredients,omitempty"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Client password holds a bcrypt hash, never the clear text.
type Client struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email,omitempty"`
	Password      string    `json:"password"`
	Points        int       `json:"points"`
	Level         Level     `json:"level"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

type Promotion struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Value         string     `json:"value,omitempty"`
	Description   string     `json:"description,omitempty"`
	Photo         string     `json:"photo,omitempty"`
	InstagramLink string     `json:"instagramLink,omitempty"`
	Active        bool       `json:"active"`
	StartsAt      *time.Time `json:"startsAt,omitempty"`
	EndsAt        *time.Time `json:"endsAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CurrentlyActive applies the validity window when one is set.
func (p Promotion) CurrentlyActive(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}

// RedeemRule defines what a client may exchange points for.
type RedeemRule struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"productId"`
	PointsRequired int       `json:"pointsRequired"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Transaction is one append-only ledger entry. Points are signed:
// positive entries were earned, negative ones redeemed.
type Transaction struct {
	ID        string          `json:"id"`
	ClientID  string          `json:"clientId"`
	Points    int             `json:"points"`
	Type      TransactionType `json:"type"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// LevelThresholds are the minimum point totals per tier. Bronze is the
// floor and must stay at 0; the rest are expected to be strictly
// increasing (configuration invariant, not checked at runtime).
type LevelThresholds struct {
	Bronze   int `json:"bronze"`
	Silver   int `json:"silver"`
	Gold     int `json:"gold"`
	Platinum int `json:"platinum"`
}

// LevelFor returns the highest tier whose threshold is at or below
// points, checked platinum first. Bronze is the unconditional floor.
func (t LevelThresholds) LevelFor(points int) Level {
	switch {
	case points >= t.Platinum:
		return LevelPlatinum
	case points >= t.Gold:
		return LevelGold
	case points >= t.Silver:
		return LevelSilver
	default:
		return LevelBronze
	}
}

// PointsUntilNext returns how many points separate the total from the
// lowest unmet threshold, or 0 at the top tier.
func (t LevelThresholds) PointsUntilNext(points int) int {
	switch {
	case points < t.Silver:
		return t.Silver - points
	case points < t.Gold:
		return t.Gold - points
	case points < t.Platinum:
		return t.Platinum - points
	default:
		return 0
	}
}

type Settings struct {
	StoreName         string          `json:"storeName"`
	StoreAddress      string          `json:"storeAddress,omitempty"`
	StorePhone        string          `json:"storePhone,omitempty"`
	StoreWhatsApp     string          `json:"storeWhatsApp,omitempty"`
	StoreHours        string          `json:"storeHours,omitempty"`
	PointsPerCurrency float64         `json:"pointsPerCurrencyUnit"`
	BonusRegistration int             `json:"bonusRegistration"`
	ReferralBonus     int             `json:"referralBonus"`
	Levels            LevelThresholds `json:"levels"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Admin is the single administrator account.
type Admin struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Session records an authenticated actor. Cleared on logout.
type Session struct {
	ID        string    `json:"id"`
	ActorType ActorType `json:"actorType"`
	ActorID   string    `json:"actorId"`
	LoginAt   time.Time `json:"loginAt"`
}

// DefaultSettings mirror the store's launch configuration.
func DefaultSettings() Settings {
	return Settings{
		StoreName:         "JóBurguers",
		StoreAddress:      "Rua Pasárgada, Bairro: Três Marias - Carpina, PE",
		StorePhone:        "+55 (81) 98933-4497",
		StoreWhatsApp:     "5581989334497",
		StoreHours:        "Seg-Sex-Sab-Dom 6:30h às 22h",
		PointsPerCurrency: 0.1,
		BonusRegistration: 50,
		ReferralBonus:     50,
		Levels:            LevelThresholds{Bronze: 0, Silver: 100, Gold: 300, Platinum: 500},
	}
}
