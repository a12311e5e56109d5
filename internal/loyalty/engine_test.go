package loyalty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/JackobAssis/Joburguers/internal/docstore"
	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/localstore"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

func newEngine(t *testing.T) (*Engine, *storage.Storage) {
	t.Helper()
	local, err := localstore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.New(nil, local, log)
	return NewEngine(store, log), store
}

func addClient(t *testing.T, store *storage.Storage, points int) *domain.Client {
	t.Helper()
	client, err := store.AddClient(context.Background(), domain.Client{
		Name: "Ana", Phone: "81991112233", Points: points, Active: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func ledgerSum(t *testing.T, store *storage.Storage, clientID string) int {
	t.Helper()
	txs, err := store.ListClientTransactions(context.Background(), clientID)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0
	for _, tx := range txs {
		sum += tx.Points
	}
	return sum
}

// faultRemote is an in-memory remote that can refuse appends to chosen
// collections, for exercising the ledger failure path.
type faultRemote struct {
	docs    map[string]map[string]map[string]any
	nextID  int
	failAdd map[string]bool
}

func newFaultRemote() *faultRemote {
	return &faultRemote{
		docs:    map[string]map[string]map[string]any{},
		failAdd: map[string]bool{},
	}
}

func (f *faultRemote) col(collection string) map[string]map[string]any {
	if f.docs[collection] == nil {
		f.docs[collection] = map[string]map[string]any{}
	}
	return f.docs[collection]
}

func (f *faultRemote) Add(ctx context.Context, collection string, data map[string]any) (*docstore.Document, error) {
	if f.failAdd[collection] {
		return nil, fmt.Errorf("remote unavailable")
	}
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	f.col(collection)[id] = data
	return &docstore.Document{ID: id, Data: data}, nil
}

func (f *faultRemote) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	data, ok := f.col(collection)[id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return &docstore.Document{ID: id, Data: data}, nil
}

func (f *faultRemote) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	var out []docstore.Document
	for id, data := range f.col(collection) {
		out = append(out, docstore.Document{ID: id, Data: data})
	}
	return out, nil
}

func (f *faultRemote) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	data, ok := f.col(collection)[id]
	if !ok {
		return docstore.ErrNotFound
	}
	for k, v := range patch {
		data[k] = v
	}
	return nil
}

func (f *faultRemote) UpdateIf(ctx context.Context, collection, id string, patch map[string]any, field string, expected int) (bool, error) {
	data, ok := f.col(collection)[id]
	if !ok {
		return false, nil
	}
	cur, _ := data[field].(int)
	if fv, isFloat := data[field].(float64); isFloat {
		cur = int(fv)
	}
	if cur != expected {
		return false, nil
	}
	for k, v := range patch {
		data[k] = v
	}
	return true, nil
}

func (f *faultRemote) Set(ctx context.Context, collection, id string, data map[string]any) error {
	f.col(collection)[id] = data
	return nil
}

func (f *faultRemote) Delete(ctx context.Context, collection, id string) error {
	delete(f.col(collection), id)
	return nil
}

func newFaultEngine(t *testing.T, remote *faultRemote) (*Engine, *storage.Storage) {
	t.Helper()
	local, err := localstore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.New(remote, local, log)
	return NewEngine(store, log), store
}

func TestApplyPointDeltaLedgerFailureRevertsBalance(t *testing.T) {
	remote := newFaultRemote()
	remote.failAdd[docstore.ColTransactions] = true
	engine, store := newFaultEngine(t, remote)
	ctx := context.Background()
	client := addClient(t, store, 100)

	if _, err := engine.ApplyPointDelta(ctx, client.ID, -60, "", "ajuste"); err == nil {
		t.Fatal("ledger append failure must fail the whole operation")
	}

	got, err := store.GetClientByID(ctx, client.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Points != 100 {
		t.Errorf("balance = %d after failed ledger append, want 100 (reverted)", got.Points)
	}
	if sum := ledgerSum(t, store, client.ID); sum != 0 {
		t.Errorf("ledger sum = %d, want 0", sum)
	}
}

func TestRedeemLedgerFailureRevertsBalance(t *testing.T) {
	remote := newFaultRemote()
	remote.failAdd[docstore.ColTransactions] = true
	engine, store := newFaultEngine(t, remote)
	ctx := context.Background()
	client := addClient(t, store, 110)
	rule, err := store.AddRedeem(ctx, domain.RedeemRule{ProductID: "p1", PointsRequired: 100, Active: true})
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := engine.Redeem(ctx, client.ID, rule.ID); err == nil {
		t.Fatal("ledger append failure must fail the redemption")
	}

	got, err := store.GetClientByID(ctx, client.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Points != 110 {
		t.Errorf("balance = %d after failed redemption, want 110 (reverted)", got.Points)
	}
}

func TestApplyPointDeltaEarnsAndLevels(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	client := addClient(t, store, 0)

	// 0 -> 50 -> 110: crosses the silver threshold at 100.
	updated, err := engine.ApplyPointDelta(ctx, client.ID, 50, "", "compra")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Points != 50 || updated.Level != domain.LevelBronze {
		t.Errorf("after +50: %d points, level %s", updated.Points, updated.Level)
	}

	updated, err = engine.ApplyPointDelta(ctx, client.ID, 60, "", "compra")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Points != 110 {
		t.Errorf("points = %d, want 110", updated.Points)
	}
	if updated.Level != domain.LevelSilver {
		t.Errorf("level = %s, want silver", updated.Level)
	}

	if sum := ledgerSum(t, store, client.ID); sum != 110 {
		t.Errorf("ledger sum = %d, want 110", sum)
	}
}

func TestApplyPointDeltaClampsAtZero(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	client := addClient(t, store, 30)

	updated, err := engine.ApplyPointDelta(ctx, client.ID, -100, "", "ajuste")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Points != 0 {
		t.Errorf("points = %d, want 0", updated.Points)
	}

	// The ledger records the applied delta, not the requested one.
	txs, err := store.ListClientTransactions(ctx, client.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 1 || txs[0].Points != -30 {
		t.Errorf("ledger entry = %+v, want one entry of -30", txs)
	}
}

func TestApplyPointDeltaTypeInference(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	client := addClient(t, store, 100)

	if _, err := engine.ApplyPointDelta(ctx, client.ID, 10, "", "compra"); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.ApplyPointDelta(ctx, client.ID, -10, "", "resgate"); err != nil {
		t.Fatal(err)
	}

	txs, _ := store.ListClientTransactions(ctx, client.ID)
	types := map[domain.TransactionType]bool{}
	for _, tx := range txs {
		types[tx.Type] = true
	}
	if !types[domain.TransactionEarned] || !types[domain.TransactionRedeemed] {
		t.Errorf("inferred types wrong: %+v", txs)
	}
}

func TestApplyPointDeltaUnknownClient(t *testing.T) {
	engine, _ := newEngine(t)
	if _, err := engine.ApplyPointDelta(context.Background(), "ghost", 10, "", "compra"); !errors.Is(err, ErrClientNotFound) {
		t.Errorf("expected ErrClientNotFound, got %v", err)
	}
}

func TestRecordPurchaseFloorsPoints(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	client := addClient(t, store, 0)

	// Default rate is 0.1 point per currency unit: 59.90 -> 5 points.
	updated, earned, err := engine.RecordPurchase(ctx, client.ID, 59.90)
	if err != nil {
		t.Fatal(err)
	}
	if earned != 5 || updated.Points != 5 {
		t.Errorf("earned %d (total %d), want 5", earned, updated.Points)
	}

	// Too small to earn anything: no ledger entry.
	_, earned, err = engine.RecordPurchase(ctx, client.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if earned != 0 {
		t.Errorf("earned %d from a tiny purchase, want 0", earned)
	}
	txs, _ := store.ListClientTransactions(ctx, client.ID)
	if len(txs) != 1 {
		t.Errorf("ledger has %d entries, want 1", len(txs))
	}
}

func TestRedeemSpendsPoints(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	client := addClient(t, store, 110)
	rule, err := store.AddRedeem(ctx, domain.RedeemRule{ProductID: "p1", PointsRequired: 100, Active: true})
	if err != nil {
		t.Fatal(err)
	}

	updated, used, err := engine.Redeem(ctx, client.ID, rule.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Points != 10 {
		t.Errorf("points = %d, want 10", updated.Points)
	}
	if updated.Level != domain.LevelBronze {
		t.Errorf("level after redemption = %s, want bronze", updated.Level)
	}
	if used.ID != rule.ID {
		t.Error("wrong rule returned")
	}

	txs, _ := store.ListClientTransactions(ctx, client.ID)
	if len(txs) != 1 || txs[0].Points != -100 || txs[0].Type != domain.TransactionRedeemed || txs[0].Reason != ReasonRedeem {
		t.Errorf("ledger entry wrong: %+v", txs)
	}
}

func TestRedeemInsufficientPointsLeavesStateUntouched(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	client := addClient(t, store, 80)
	rule, err := store.AddRedeem(ctx, domain.RedeemRule{ProductID: "p1", PointsRequired: 100, Active: true})
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = engine.Redeem(ctx, client.ID, rule.ID)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	got, _ := store.GetClientByID(ctx, client.ID)
	if got.Points != 80 {
		t.Errorf("balance changed to %d on a failed redemption", got.Points)
	}
	txs, _ := store.ListClientTransactions(ctx, client.ID)
	if len(txs) != 0 {
		t.Errorf("failed redemption left %d ledger entries", len(txs))
	}
}

func TestRedeemInactiveRule(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	client := addClient(t, store, 500)
	rule, err := store.AddRedeem(ctx, domain.RedeemRule{ProductID: "p1", PointsRequired: 100, Active: false})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := engine.Redeem(ctx, client.ID, rule.ID); !errors.Is(err, ErrRuleInactive) {
		t.Errorf("expected ErrRuleInactive, got %v", err)
	}
}

func TestRedeemUnknownRule(t *testing.T) {
	engine, store := newEngine(t)
	client := addClient(t, store, 500)
	if _, _, err := engine.Redeem(context.Background(), client.ID, "ghost"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestRegistrationAndReferralBonuses(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()
	client := addClient(t, store, 0)

	updated, err := engine.GrantRegistrationBonus(ctx, client.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Points != 50 {
		t.Errorf("registration bonus gave %d points, want 50", updated.Points)
	}

	updated, err = engine.GrantReferralBonus(ctx, client.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Points != 100 {
		t.Errorf("referral bonus total = %d, want 100", updated.Points)
	}
	if updated.Level != domain.LevelSilver {
		t.Errorf("level = %s, want silver after 100 points", updated.Level)
	}

	txs, _ := store.ListClientTransactions(ctx, client.ID)
	reasons := map[string]bool{}
	for _, tx := range txs {
		reasons[tx.Reason] = true
	}
	if !reasons[ReasonRegistration] || !reasons[ReasonReferral] {
		t.Errorf("bonus reasons missing: %+v", txs)
	}
}
