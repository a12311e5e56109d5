// Package loyalty implements the points engine: every change to a
// client's balance goes through here so the transaction ledger and the
// stored totals can never diverge.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

var (
	ErrClientNotFound     = errors.New("client not found")
	ErrRuleNotFound       = errors.New("redeem rule not found")
	ErrRuleInactive       = errors.New("redeem rule is not active")
	ErrInsufficientPoints = errors.New("insufficient points")
)

// Ledger reasons used across the system.
const (
	ReasonPurchase     = "compra"
	ReasonRedeem       = "resgate"
	ReasonRegistration = "cadastro"
	ReasonReferral     = "indicacao"
	ReasonAdjustment   = "ajuste"
)

// casAttempts bounds the compare-and-swap retry loop when concurrent
// sessions race on the same balance.
const casAttempts = 3

type Engine struct {
	store *storage.Storage
	log   *slog.Logger
}

func NewEngine(store *storage.Storage, log *slog.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// ApplyPointDelta changes a client's balance by delta, clamping the
// result at zero, and appends the matching ledger entry. The entry
// records the applied delta, which may be smaller in magnitude than
// the requested one when clamping kicked in. txType may be empty, in
// which case it is inferred from the sign of the delta.
func (e *Engine) ApplyPointDelta(ctx context.Context, clientID string, delta int, txType domain.TransactionType, reason string) (*domain.Client, error) {
	settings, err := e.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		client, err := e.store.GetClientByID(ctx, clientID)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, ErrClientNotFound
		}

		next := client.Points + delta
		if next < 0 {
			next = 0
		}
		applied := next - client.Points
		level := settings.Levels.LevelFor(next)

		swapped, err := e.store.SetClientPointsCAS(ctx, client.ID, client.Points, next, level)
		if err != nil {
			return nil, err
		}
		if !swapped {
			e.log.Warn("point update lost a race, retrying", "client", client.ID, "attempt", attempt+1)
			continue
		}

		if applied != 0 {
			tx := domain.Transaction{
				ClientID: client.ID,
				Points:   applied,
				Type:     inferType(txType, applied),
				Reason:   reason,
			}
			if _, err := e.store.RecordTransaction(ctx, tx); err != nil {
				e.revertPoints(ctx, client.ID, next, client.Points, settings.Levels.LevelFor(client.Points))
				return nil, fmt.Errorf("ledger append for client %s: %w", client.ID, err)
			}
		}
		client.Points = next
		client.Level = level
		return client, nil
	}
	return nil, fmt.Errorf("point update for client %s kept losing races", clientID)
}

// RecordPurchase converts a purchase amount into points using the
// configured rate, rounding down.
func (e *Engine) RecordPurchase(ctx context.Context, clientID string, amount float64) (*domain.Client, int, error) {
	if amount < 0 {
		return nil, 0, fmt.Errorf("purchase amount must not be negative")
	}
	settings, err := e.store.GetSettings(ctx)
	if err != nil {
		return nil, 0, err
	}
	points := int(math.Floor(amount * settings.PointsPerCurrency))
	if points == 0 {
		client, err := e.store.GetClientByID(ctx, clientID)
		if err != nil {
			return nil, 0, err
		}
		if client == nil {
			return nil, 0, ErrClientNotFound
		}
		return client, 0, nil
	}
	client, err := e.ApplyPointDelta(ctx, clientID, points, domain.TransactionEarned, ReasonPurchase)
	if err != nil {
		return nil, 0, err
	}
	return client, points, nil
}

// Redeem exchanges points for a redeem rule's product. The balance
// check runs again inside the conditional write, so two sessions
// cannot both spend the same points.
func (e *Engine) Redeem(ctx context.Context, clientID, ruleID string) (*domain.Client, *domain.RedeemRule, error) {
	rule, err := e.store.GetRedeemByID(ctx, ruleID)
	if err != nil {
		return nil, nil, err
	}
	if rule == nil {
		return nil, nil, ErrRuleNotFound
	}
	if !rule.Active {
		return nil, nil, ErrRuleInactive
	}
	settings, err := e.store.GetSettings(ctx)
	if err != nil {
		return nil, nil, err
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		client, err := e.store.GetClientByID(ctx, clientID)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, ErrClientNotFound
		}
		if client.Points < rule.PointsRequired {
			return nil, nil, ErrInsufficientPoints
		}

		next := client.Points - rule.PointsRequired
		level := settings.Levels.LevelFor(next)
		swapped, err := e.store.SetClientPointsCAS(ctx, client.ID, client.Points, next, level)
		if err != nil {
			return nil, nil, err
		}
		if !swapped {
			e.log.Warn("redemption lost a race, retrying", "client", client.ID, "attempt", attempt+1)
			continue
		}

		tx := domain.Transaction{
			ClientID: client.ID,
			Points:   -rule.PointsRequired,
			Type:     domain.TransactionRedeemed,
			Reason:   ReasonRedeem,
		}
		if _, err := e.store.RecordTransaction(ctx, tx); err != nil {
			e.revertPoints(ctx, client.ID, next, client.Points, settings.Levels.LevelFor(client.Points))
			return nil, nil, fmt.Errorf("ledger append for client %s: %w", client.ID, err)
		}
		client.Points = next
		client.Level = level
		return client, rule, nil
	}
	return nil, nil, fmt.Errorf("redemption for client %s kept losing races", clientID)
}

// GrantRegistrationBonus awards the configured signup bonus. A zero
// configuration disables it.
func (e *Engine) GrantRegistrationBonus(ctx context.Context, clientID string) (*domain.Client, error) {
	settings, err := e.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.BonusRegistration <= 0 {
		return e.store.GetClientByID(ctx, clientID)
	}
	return e.ApplyPointDelta(ctx, clientID, settings.BonusRegistration, domain.TransactionEarned, ReasonRegistration)
}

// GrantReferralBonus awards the referral bonus to the referring client.
func (e *Engine) GrantReferralBonus(ctx context.Context, referrerID string) (*domain.Client, error) {
	settings, err := e.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.ReferralBonus <= 0 {
		return e.store.GetClientByID(ctx, referrerID)
	}
	return e.ApplyPointDelta(ctx, referrerID, settings.ReferralBonus, domain.TransactionEarned, ReasonReferral)
}

// revertPoints undoes a balance move whose ledger append failed, so
// the stored total and the ledger cannot diverge silently. If the
// revert itself loses a race the mismatch is logged for manual repair.
func (e *Engine) revertPoints(ctx context.Context, clientID string, from, to int, level domain.Level) {
	swapped, err := e.store.SetClientPointsCAS(ctx, clientID, from, to, level)
	if err != nil || !swapped {
		e.log.Error("balance revert after ledger failure did not apply",
			"client", clientID, "from", from, "to", to, "err", err)
	}
}

func inferType(explicit domain.TransactionType, applied int) domain.TransactionType {
	if explicit != "" {
		return explicit
	}
	switch {
	case applied > 0:
		return domain.TransactionEarned
	case applied < 0:
		return domain.TransactionRedeemed
	default:
		return domain.TransactionAdjustment
	}
}
