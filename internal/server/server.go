// Package server exposes the game over HTTP: player accounts, bets,
// cashouts and a server-sent event stream of round activity.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/engine"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/hub"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/ledger"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/price"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/store"
)

// Server wires the engine and its collaborators to gin handlers.
type Server struct {
	Engine   *engine.Engine
	Oracle   price.Oracle
	Archive  store.RoundArchive
	Hub      *hub.Hub
	Starting map[model.Currency]decimal.Decimal
}

// Router builds the HTTP routes.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		api.POST("/players/register", s.register)
		api.GET("/players/:id/balance", s.balance)
		api.GET("/players/:id/transactions", s.transactions)
		api.POST("/players/:id/deposit", s.deposit)
		api.POST("/players/:id/withdraw", s.withdraw)
		api.POST("/game/bet", s.bet)
		api.POST("/game/cashout", s.cashout)
		api.GET("/game/status", s.status)
		api.GET("/game/history", s.history)
		api.GET("/game/stream", s.stream)
	}
	return r
}

func (s *Server) register(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": "username is required"})
		return
	}
	acct, err := s.Engine.Ledger().CreateAccount(body.Username, s.Starting)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"player_id": acct.PlayerID,
		"username":  acct.Username,
		"balances":  acct.Balances,
	})
}

func (s *Server) balance(c *gin.Context) {
	acct, err := s.Engine.Ledger().Account(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	type line struct {
		Crypto   decimal.Decimal `json:"crypto"`
		USD      decimal.Decimal `json:"usd,omitempty"`
		PriceUSD decimal.Decimal `json:"price_usd,omitempty"`
	}
	out := make(map[model.Currency]line, len(acct.Balances))
	for cur, bal := range acct.Balances {
		l := line{Crypto: bal}
		// USD equivalent is best effort; the crypto balance is authoritative.
		if p, perr := s.Oracle.Price(c.Request.Context(), cur); perr == nil {
			l.PriceUSD = p
			l.USD = bal.Mul(p).Round(2)
		}
		out[cur] = l
	}
	c.JSON(http.StatusOK, gin.H{"player_id": acct.PlayerID, "balances": out})
}

func (s *Server) transactions(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.Engine.Ledger().Account(id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player_id": id, "entries": s.Engine.Ledger().Entries(id)})
}

type moveRequest struct {
	Currency string          `json:"currency" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

func (s *Server) deposit(c *gin.Context) {
	var body moveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": "currency and amount are required"})
		return
	}
	balance, err := s.Engine.Deposit(c.Request.Context(), c.Param("id"), body.Currency, body.Amount)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player_id": c.Param("id"), "currency": body.Currency, "balance": balance})
}

func (s *Server) withdraw(c *gin.Context) {
	var body moveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": "currency and amount are required"})
		return
	}
	balance, err := s.Engine.Withdraw(c.Request.Context(), c.Param("id"), body.Currency, body.Amount)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player_id": c.Param("id"), "currency": body.Currency, "balance": balance})
}

func (s *Server) bet(c *gin.Context) {
	var body struct {
		PlayerID string          `json:"player_id" binding:"required"`
		Currency string          `json:"currency" binding:"required"`
		USD      decimal.Decimal `json:"usd_amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": "player_id, currency and usd_amount are required"})
		return
	}
	receipt, err := s.Engine.PlaceBet(c.Request.Context(), body.PlayerID, body.Currency, body.USD)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (s *Server) cashout(c *gin.Context) {
	var body struct {
		PlayerID string `json:"player_id" binding:"required"`
		RoundID  string `json:"round_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": "player_id and round_id are required"})
		return
	}
	receipt, err := s.Engine.CashOut(c.Request.Context(), body.PlayerID, body.RoundID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.Engine.Status())
}

func (s *Server) history(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := parsePositiveInt(v, 100); err == nil {
			limit = n
		}
	}
	rounds, err := s.Archive.RecentRounds(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rounds":  rounds,
		"summary": s.Engine.Stats().Summary(),
	})
}

// writeError maps domain sentinels to HTTP statuses. Unknown errors are
// not leaked to clients.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation), errors.Is(err, ledger.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION", "message": err.Error()})
	case errors.Is(err, ledger.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "ACCOUNT_NOT_FOUND", "message": err.Error()})
	case errors.Is(err, ledger.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "USERNAME_TAKEN", "message": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "INSUFFICIENT_FUNDS", "message": err.Error()})
	case errors.Is(err, ledger.ErrDuplicateBet):
		c.JSON(http.StatusConflict, gin.H{"error": "DUPLICATE_BET", "message": err.Error()})
	case errors.Is(err, ledger.ErrAlreadyCashedOut):
		c.JSON(http.StatusConflict, gin.H{"error": "ALREADY_CASHED_OUT", "message": err.Error()})
	case errors.Is(err, ledger.ErrNoPendingBet):
		c.JSON(http.StatusConflict, gin.H{"error": "NO_PENDING_BET", "message": err.Error()})
	case errors.Is(err, engine.ErrNoActiveRound), errors.Is(err, engine.ErrRoundNotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "ROUND_NOT_RUNNING", "message": err.Error()})
	case errors.Is(err, engine.ErrRoundFrozen):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ROUND_FROZEN", "message": err.Error()})
	case errors.Is(err, price.ErrPriceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PRICE_UNAVAILABLE", "message": err.Error()})
	case errors.Is(err, ledger.ErrInvariantViolation):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INVARIANT_VIOLATION", "message": "round frozen pending manual audit"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "unexpected error"})
	}
}
