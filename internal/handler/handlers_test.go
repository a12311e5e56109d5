package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JackobAssis/Joburguers/internal/config"
	"github.com/JackobAssis/Joburguers/internal/handler"
	"github.com/JackobAssis/Joburguers/internal/localstore"
	"github.com/JackobAssis/Joburguers/internal/loyalty"
	"github.com/JackobAssis/Joburguers/internal/server"
	"github.com/JackobAssis/Joburguers/internal/service"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupServer(t *testing.T) (*httptest.Server, *storage.Storage) {
	t.Helper()
	cfg := config.Config{
		HTTPPort:       "0",
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Hour,
		UploadDir:      t.TempDir(),
	}
	local, err := localstore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.New(nil, local, log)
	if err := store.EnsureDefaults(t.Context()); err != nil {
		t.Fatal(err)
	}
	engine := loyalty.NewEngine(store, log)
	authSvc := service.AuthService{Config: cfg, Store: store, Engine: engine, Logger: log}

	router := server.NewRouter(cfg, log,
		handler.HealthHandler{},
		handler.HomeHandler{},
		handler.AuthHandler{Auth: authSvc},
		handler.ProductHandler{Store: store},
		handler.ProductAdminHandler{Store: store},
		handler.PromotionHandler{Store: store},
		handler.PromotionAdminHandler{Store: store},
		handler.ClientAdminHandler{Store: store, Engine: engine},
		handler.RedeemAdminHandler{Store: store},
		handler.AdminAccountHandler{Store: store},
		handler.MeHandler{Store: store, Engine: engine},
		handler.SettingsHandler{Store: store},
		handler.TransactionHandler{Store: store},
		handler.ExportHandler{Store: store},
		handler.ReportHandler{Store: store},
		handler.UploadHandler{UploadDir: cfg.UploadDir},
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp, env
}

func adminToken(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/admin/login", "", map[string]string{
		"phone":    "81992974918",
		"password": "974918",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login status %d", resp.StatusCode)
	}
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" {
		t.Fatalf("no admin token in %s", env.Data)
	}
	return data.AccessToken
}

func registerClient(t *testing.T, srv *httptest.Server, phone string) (token, id string) {
	t.Helper()
	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"name":     "Cliente Teste",
		"phone":    phone,
		"password": "1234",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d: %s", resp.StatusCode, env.Message)
	}
	var data struct {
		AccessToken string `json:"accessToken"`
		Client      struct {
			ID string `json:"id"`
		} `json:"client"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	return data.AccessToken, data.Client.ID
}

func TestPublicMenuIsOpen(t *testing.T) {
	srv, _ := setupServer(t)
	resp, env := doJSON(t, http.MethodGet, srv.URL+"/api/products", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var products []map[string]any
	if err := json.Unmarshal(env.Data, &products); err != nil {
		t.Fatal(err)
	}
	if len(products) == 0 {
		t.Error("seeded menu should not be empty")
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	srv, _ := setupServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/admin/clients", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", resp.StatusCode)
	}

	clientToken, _ := registerClient(t, srv, "81991112233")
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/admin/clients", clientToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("client token on admin route: status %d, want 403", resp.StatusCode)
	}
}

func TestClientRoutesRejectAdminToken(t *testing.T) {
	srv, _ := setupServer(t)
	token := adminToken(t, srv)
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/me", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("admin token on client route: status %d, want 403", resp.StatusCode)
	}
}

func TestMeProfileShowsProgress(t *testing.T) {
	srv, _ := setupServer(t)
	token, _ := registerClient(t, srv, "81991112233")

	resp, env := doJSON(t, http.MethodGet, srv.URL+"/api/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var profile struct {
		Points               int    `json:"points"`
		Level                string `json:"level"`
		PointsUntilNextLevel int    `json:"pointsUntilNextLevel"`
	}
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatal(err)
	}
	// Registration bonus of 50 leaves 50 to silver at 100.
	if profile.Points != 50 || profile.Level != "bronze" || profile.PointsUntilNextLevel != 50 {
		t.Errorf("profile = %+v", profile)
	}
}

func TestRedeemFlowEndToEnd(t *testing.T) {
	srv, _ := setupServer(t)
	admin := adminToken(t, srv)
	clientToken, clientID := registerClient(t, srv, "81991112233")

	// Admin creates a product and links a redeem rule to it.
	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/admin/products", admin, map[string]any{
		"name": "Brinde", "category": "side", "price": 5.0, "available": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: %d", resp.StatusCode)
	}
	var product struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &product); err != nil {
		t.Fatal(err)
	}

	resp, env = doJSON(t, http.MethodPost, srv.URL+"/api/admin/redeems", admin, map[string]any{
		"productId": product.ID, "pointsRequired": 100, "active": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create redeem rule: %d", resp.StatusCode)
	}
	var rule struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &rule); err != nil {
		t.Fatal(err)
	}

	// 50 bonus points are not enough for a 100-point rule.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/me/redeems/"+rule.ID, clientToken, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("insufficient points: status %d, want 422", resp.StatusCode)
	}

	// A purchase tops the balance up past the threshold.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/admin/clients/"+clientID+"/purchase", admin, map[string]any{
		"amount": 600.0,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record purchase: %d", resp.StatusCode)
	}

	resp, env = doJSON(t, http.MethodPost, srv.URL+"/api/me/redeems/"+rule.ID, clientToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claim redeem: %d (%s)", resp.StatusCode, env.Message)
	}
	var claim struct {
		PointsSpent int `json:"pointsSpent"`
		Client      struct {
			Points int `json:"points"`
		} `json:"client"`
	}
	if err := json.Unmarshal(env.Data, &claim); err != nil {
		t.Fatal(err)
	}
	// 50 bonus + 60 earned - 100 redeemed = 10.
	if claim.PointsSpent != 100 || claim.Client.Points != 10 {
		t.Errorf("claim = %+v", claim)
	}

	// The full history shows up in the client's ledger, newest first.
	resp, env = doJSON(t, http.MethodGet, srv.URL+"/api/me/transactions", clientToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transactions: %d", resp.StatusCode)
	}
	var txs []struct {
		Points int    `json:"points"`
		Type   string `json:"type"`
	}
	if err := json.Unmarshal(env.Data, &txs); err != nil {
		t.Fatal(err)
	}
	if len(txs) != 3 {
		t.Fatalf("ledger has %d entries, want 3", len(txs))
	}
	if txs[0].Type != "redeemed" || txs[0].Points != -100 {
		t.Errorf("newest entry = %+v, want the redemption", txs[0])
	}
}

func TestPointsAdjustment(t *testing.T) {
	srv, _ := setupServer(t)
	admin := adminToken(t, srv)
	_, clientID := registerClient(t, srv, "81991112233")

	resp, env := doJSON(t, http.MethodPost, srv.URL+"/api/admin/clients/"+clientID+"/points", admin, map[string]any{
		"delta": -200, "reason": "correção",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("adjust: %d", resp.StatusCode)
	}
	var client struct {
		Points int `json:"points"`
	}
	if err := json.Unmarshal(env.Data, &client); err != nil {
		t.Fatal(err)
	}
	if client.Points != 0 {
		t.Errorf("points = %d, want 0 (clamped)", client.Points)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/admin/clients/"+clientID+"/points", admin, map[string]any{
		"delta": 0,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero delta: status %d, want 400", resp.StatusCode)
	}
}

func TestSettingsPublicSubset(t *testing.T) {
	srv, _ := setupServer(t)
	resp, env := doJSON(t, http.MethodGet, srv.URL+"/api/settings", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var info map[string]any
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatal(err)
	}
	if info["storeName"] == "" {
		t.Error("public settings missing store name")
	}
	if _, ok := info["updatedAt"]; ok {
		t.Error("public settings should not expose operational fields")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := setupServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["mode"] != "local" {
		t.Errorf("health = %v", body)
	}
}

func TestAdminAccountUpdate(t *testing.T) {
	srv, _ := setupServer(t)
	admin := adminToken(t, srv)

	resp, env := doJSON(t, http.MethodPut, srv.URL+"/api/admin/account", admin, map[string]string{
		"name":     "Jó",
		"password": "nova-senha",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update account: %d (%s)", resp.StatusCode, env.Message)
	}

	// The old password no longer works, the new one does.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/admin/login", "", map[string]string{
		"phone": "81992974918", "password": "974918",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("old password: status %d, want 401", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/admin/login", "", map[string]string{
		"phone": "81992974918", "password": "nova-senha",
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("new password: status %d, want 200", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/admin/account", admin, map[string]string{
		"password": "abc",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("short password: status %d, want 400", resp.StatusCode)
	}
}

func TestExportRequiresAdminAndRoundTrips(t *testing.T) {
	srv, _ := setupServer(t)
	admin := adminToken(t, srv)
	registerClient(t, srv, "81991112233")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/admin/export", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status %d", resp.StatusCode)
	}
	var snap storage.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Clients) != 1 {
		t.Errorf("snapshot has %d clients, want 1", len(snap.Clients))
	}
	if snap.Admin == nil {
		t.Error("snapshot missing admin")
	}
}
