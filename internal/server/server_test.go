package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/engine"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/hub"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/ledger"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/price"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *engine.Engine, *ledger.Ledger) {
	t.Helper()
	l := ledger.New()
	oracle := price.NewMockOracle()
	h := hub.New()
	e := engine.New(engine.Config{
		BettingWindow: 5 * time.Second,
		TickInterval:  100 * time.Millisecond,
		RoundDelay:    5 * time.Second,
		GrowthRate:    0.05,
		HouseEdge:     0.01,
		MinBetUSD:     decimal.NewFromInt(1),
		MaxBetUSD:     decimal.NewFromInt(10000),
	}, l, oracle, h, nil, nil, nil)
	srv := &Server{
		Engine:  e,
		Oracle:  oracle,
		Archive: store.NewNoopArchive(),
		Hub:     h,
		Starting: map[model.Currency]decimal.Decimal{
			model.BTC: decimal.RequireFromString("0.05"),
			model.ETH: decimal.RequireFromString("0.1"),
		},
	}
	return srv, e, l
}

func mustAccount(t *testing.T, l *ledger.Ledger, username string, starting map[model.Currency]decimal.Decimal) *model.Account {
	t.Helper()
	acct, err := l.CreateAccount(username, starting)
	if err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return acct
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegister_GrantsDemoBalances(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/api/players/register", map[string]string{"username": "alice"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var resp struct {
		PlayerID string                     `json:"player_id"`
		Balances map[string]decimal.Decimal `json:"balances"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.PlayerID == "" {
		t.Error("empty player_id")
	}
	if !resp.Balances["BTC"].Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("BTC balance = %s, want 0.05", resp.Balances["BTC"])
	}
	if !resp.Balances["ETH"].Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("ETH balance = %s, want 0.1", resp.Balances["ETH"])
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/api/players/register", map[string]string{"username": "alice"})
	if w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, http.MethodPost, "/api/players/register", map[string]string{"username": "alice"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409: %s", w.Code, w.Body.String())
	}
}

func TestRegister_MissingUsername(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := doJSON(t, srv.Router(), http.MethodPost, "/api/players/register", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBalance_IncludesUSDEquivalent(t *testing.T) {
	srv, _, l := newTestServer(t)
	acct := mustAccount(t, l, "bob", srv.Starting)

	w := doJSON(t, srv.Router(), http.MethodGet, "/api/players/"+acct.PlayerID+"/balance", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Balances map[string]struct {
			Crypto decimal.Decimal `json:"crypto"`
			USD    decimal.Decimal `json:"usd"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// 0.05 BTC at the mock $50,000 quote.
	if !resp.Balances["BTC"].USD.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("BTC usd = %s, want 2500", resp.Balances["BTC"].USD)
	}
}

func TestBalance_UnknownPlayer(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := doJSON(t, srv.Router(), http.MethodGet, "/api/players/nope/balance", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestBet_FullFlowAndErrorMapping(t *testing.T) {
	srv, e, l := newTestServer(t)
	router := srv.Router()
	acct := mustAccount(t, l, "carol", srv.Starting)

	// No round open yet.
	w := doJSON(t, router, http.MethodPost, "/api/game/bet", map[string]any{
		"player_id": acct.PlayerID, "currency": "BTC", "usd_amount": 100,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("pre-round bet status = %d, want 409: %s", w.Code, w.Body.String())
	}

	if err := e.StartRound(); err != nil {
		t.Fatal(err)
	}

	w = doJSON(t, router, http.MethodPost, "/api/game/bet", map[string]any{
		"player_id": acct.PlayerID, "currency": "BTC", "usd_amount": 1000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bet status = %d: %s", w.Code, w.Body.String())
	}
	var receipt engine.BetReceipt
	if err := json.Unmarshal(w.Body.Bytes(), &receipt); err != nil {
		t.Fatal(err)
	}
	if !receipt.CryptoAmount.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("crypto amount = %s, want 0.02", receipt.CryptoAmount)
	}

	// Over-balance follow-up maps to 402.
	w = doJSON(t, router, http.MethodPost, "/api/game/bet", map[string]any{
		"player_id": acct.PlayerID, "currency": "BTC", "usd_amount": 2000,
	})
	if w.Code != http.StatusPaymentRequired {
		t.Errorf("over-balance bet status = %d, want 402: %s", w.Code, w.Body.String())
	}

	// Unknown player maps to 404.
	w = doJSON(t, router, http.MethodPost, "/api/game/bet", map[string]any{
		"player_id": "ghost", "currency": "BTC", "usd_amount": 100,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown player bet status = %d, want 404: %s", w.Code, w.Body.String())
	}
}

func TestCashout_RequiresRunningRound(t *testing.T) {
	srv, e, l := newTestServer(t)
	router := srv.Router()
	acct := mustAccount(t, l, "dave", srv.Starting)

	if err := e.StartRound(); err != nil {
		t.Fatal(err)
	}
	st := e.Status()

	// Cashout during betting phase is rejected.
	w := doJSON(t, router, http.MethodPost, "/api/game/cashout", map[string]string{
		"player_id": acct.PlayerID, "round_id": st.RoundID,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("betting-phase cashout status = %d, want 409: %s", w.Code, w.Body.String())
	}
}

func TestStatus_ReportsPhaseAndCommitment(t *testing.T) {
	srv, e, _ := newTestServer(t)
	router := srv.Router()
	if err := e.StartRound(); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodGet, "/api/game/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st engine.Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Commitment == "" {
		t.Error("status missing commitment")
	}
	if st.RoundID == "" {
		t.Error("status missing round id")
	}
}

func TestHistory_EmptyArchive(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := doJSON(t, srv.Router(), http.MethodGet, "/api/game/history?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
}
