package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sketchmakerhq/creditd/internal/config"
	"github.com/sketchmakerhq/creditd/internal/costs"
	"github.com/sketchmakerhq/creditd/internal/credits"
	"github.com/sketchmakerhq/creditd/internal/ledger"
	"github.com/sketchmakerhq/creditd/internal/models"
	"github.com/sketchmakerhq/creditd/internal/plans"
	"github.com/sketchmakerhq/creditd/internal/security"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB, config.JWTConf) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:httpapi_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(
		&models.Plan{}, &models.Balance{}, &models.FeatureCost{},
		&models.UsageEntry{}, &models.Setting{}, &models.Admin{},
	); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}

	costRows := []models.FeatureCost{
		{Feature: "images", CostPerUse: decimal.NewFromInt(1), IsActive: true},
		{Feature: "banners", CostPerUse: decimal.RequireFromString("0.5"), IsActive: true},
	}
	if errCreate := conn.Create(&costRows).Error; errCreate != nil {
		t.Fatalf("create cost rows: %v", errCreate)
	}

	table, errTable := costs.NewTable(context.Background(), conn)
	if errTable != nil {
		t.Fatalf("new cost table: %v", errTable)
	}
	ledgerStore := ledger.NewStore(conn)

	jwtCfg := config.JWTConf{Secret: "test-secret", Expiry: time.Hour}
	router := NewRouter(Deps{
		DB:      conn,
		Credits: credits.NewService(conn, table, ledgerStore),
		Costs:   table,
		Ledger:  ledgerStore,
		Plans:   plans.NewService(conn),
		JWT:     jwtCfg,
	})
	return router, conn, jwtCfg
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		if errDecode := json.Unmarshal(rec.Body.Bytes(), &payload); errDecode != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), errDecode)
		}
	}
	return rec, payload
}

func TestBalanceEndpoint(t *testing.T) {
	router, conn, _ := setupRouter(t)

	anchor := time.Now().UTC().AddDate(0, 0, -3)
	bal := models.Balance{
		AccountID:     1,
		PlanID:        1,
		Remaining:     decimal.RequireFromString("8.5"),
		Consumed:      decimal.RequireFromString("1.5"),
		PlanAllowance: decimal.NewFromInt(10),
		CycleAnchor:   anchor,
		LastResetAt:   anchor,
		Active:        true,
	}
	if errCreate := conn.Create(&bal).Error; errCreate != nil {
		t.Fatalf("create balance: %v", errCreate)
	}

	rec, payload := doJSON(t, router, http.MethodGet, "/api/balance/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if payload["remaining"] != "8.5" {
		t.Fatalf("expected remaining 8.5, got %v", payload["remaining"])
	}
	if payload["consumed_this_cycle"] != "1.5" {
		t.Fatalf("expected consumed 1.5, got %v", payload["consumed_this_cycle"])
	}
	if payload["next_reset_at"] == nil {
		t.Fatalf("expected next_reset_at in response")
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/api/balance/99", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown account, got %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/api/balance/abc", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad account id, got %d", rec.Code)
	}
}

func TestFrontCostsEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec, payload := doJSON(t, router, http.MethodGet, "/api/costs", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	costsMap, ok := payload["costs"].(map[string]any)
	if !ok {
		t.Fatalf("expected costs map, got %v", payload)
	}
	if costsMap["banners"] != "0.5" {
		t.Fatalf("expected banners 0.5, got %v", costsMap["banners"])
	}
}

func TestAdminLoginAndProtectedRoutes(t *testing.T) {
	router, conn, _ := setupRouter(t)

	hash, errHash := security.HashPassword("s3cret-pass")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	admin := models.Admin{Username: "root", Password: hash, Active: true}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}

	// Admin routes reject anonymous and garbage tokens.
	rec, _ := doJSON(t, router, http.MethodGet, "/admin/costs", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	rec, _ = doJSON(t, router, http.MethodGet, "/admin/costs", "garbage", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	// Wrong password rejected.
	rec, _ = doJSON(t, router, http.MethodPost, "/admin/login", "", `{"username":"root","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}

	rec, payload := doJSON(t, router, http.MethodPost, "/admin/login", "", `{"username":"root","password":"s3cret-pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 login, got %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatalf("expected token in login response")
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/admin/costs", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}

func TestAdminCostUpsertVisibleInFrontAPI(t *testing.T) {
	router, conn, jwtCfg := setupRouter(t)

	admin := models.Admin{Username: "root", Password: "x", Active: true}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
	token, errToken := security.GenerateAdminToken(jwtCfg.Secret, admin.ID, admin.Username, jwtCfg.Expiry)
	if errToken != nil {
		t.Fatalf("token: %v", errToken)
	}

	rec, _ := doJSON(t, router, http.MethodPut, "/admin/costs", token, `{"feature":"video","cost_per_use":"2.5"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 upsert, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, payload := doJSON(t, router, http.MethodGet, "/api/costs", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	costsMap := payload["costs"].(map[string]any)
	if costsMap["video"] != "2.5" {
		t.Fatalf("expected video 2.5 after upsert, got %v", costsMap["video"])
	}

	rec, _ = doJSON(t, router, http.MethodPut, "/admin/costs", token, `{"feature":"video","cost_per_use":"-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative cost, got %d", rec.Code)
	}
}

func TestUsageEndpoint(t *testing.T) {
	router, conn, _ := setupRouter(t)

	base := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	entries := []models.UsageEntry{
		{AccountID: 1, BalanceID: 1, Feature: "images", Kind: models.UsageKindReservation, CreditsCharged: decimal.NewFromInt(1), CreatedAt: base},
		{AccountID: 1, BalanceID: 1, Feature: "banners", Kind: models.UsageKindReservation, CreditsCharged: decimal.RequireFromString("0.5"), CreatedAt: base.Add(time.Hour)},
	}
	if errCreate := conn.Create(&entries).Error; errCreate != nil {
		t.Fatalf("create entries: %v", errCreate)
	}

	rec, payload := doJSON(t, router, http.MethodGet, "/api/usage?account_id=1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rows, ok := payload["entries"].([]any)
	if !ok {
		t.Fatalf("expected entries array, got %v", payload)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(rows))
	}
	if payload["total_charged"] != "1.5" {
		t.Fatalf("expected total_charged 1.5, got %v", payload["total_charged"])
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/api/usage", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without account_id, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router, _, _ := setupRouter(t)
	rec, _ := doJSON(t, router, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
