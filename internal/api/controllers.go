package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dunea/blockchain-ai-quantificat/internal/engine"
	"github.com/dunea/blockchain-ai-quantificat/internal/risk"
	"github.com/dunea/blockchain-ai-quantificat/pkg/exchanges/common"
)

type listJournalQuery struct {
	Symbol string `form:"symbol"`
	Limit  int    `form:"limit"`
}

func (q *listJournalQuery) normalize() {
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
	if q.Symbol != "" {
		if sym, err := parseSymbolParam(q.Symbol); err == nil {
			q.Symbol = sym
		}
	}
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"code":  code,
		"error": msg,
	})
}

// parseSymbolParam accepts the unified form (escaped in URLs) or a dashed
// shorthand such as BTC-USDT-USDT.
func parseSymbolParam(raw string) (string, error) {
	raw = strings.TrimPrefix(raw, "/")
	if !strings.Contains(raw, "/") {
		parts := strings.Split(raw, "-")
		switch len(parts) {
		case 2:
			raw = parts[0] + "/" + parts[1]
		case 3:
			raw = parts[0] + "/" + parts[1] + ":" + parts[2]
		}
	}
	ins, err := common.ParseSymbol(raw)
	if err != nil {
		return "", err
	}
	return ins.String(), nil
}

// symbolOr400 resolves the :symbol path parameter or answers 400.
func symbolOr400(c *gin.Context) (string, bool) {
	sym, err := parseSymbolParam(c.Param("symbol"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_SYMBOL", err.Error())
		return "", false
	}
	return sym, true
}

// engineError maps service errors onto HTTP statuses.
func engineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownSymbol):
		respondError(c, http.StatusNotFound, "UNKNOWN_SYMBOL", err.Error())
	case errors.Is(err, risk.ErrNoPosition):
		respondError(c, http.StatusConflict, "NO_POSITION", err.Error())
	case errors.Is(err, engine.ErrJournalDisabled):
		respondError(c, http.StatusServiceUnavailable, "JOURNAL_DISABLED", err.Error())
	default:
		var ee *common.ExchangeError
		if errors.As(err, &ee) {
			respondError(c, http.StatusBadGateway, "EXCHANGE_ERROR", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

// getSystemStatus exposes venue, symbols and loop cadence.
func (s *Server) getSystemStatus(c *gin.Context) {
	st := s.Engine.GetSystemStatus(c.Request.Context())
	mode := "LIVE"
	if st.DryRun {
		mode = "DRY_RUN"
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":   mode,
		"status": st,
	})
}

// getMetrics returns the in-process metrics snapshot.
func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.Engine.GetMetrics())
}

func (s *Server) getSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, s.Engine.ListSymbols(c.Request.Context()))
}

// getSymbolStatus returns config, risk state and live position for one symbol.
func (s *Server) getSymbolStatus(c *gin.Context) {
	sym, ok := symbolOr400(c)
	if !ok {
		return
	}
	st, err := s.Engine.GetSymbolStatus(c.Request.Context(), sym)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) getPositions(c *gin.Context) {
	positions, err := s.Engine.GetPositions(c.Request.Context())
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, positions)
}

// closeSymbol flattens a position through the risk engine's close path.
func (s *Server) closeSymbol(c *gin.Context) {
	sym, ok := symbolOr400(c)
	if !ok {
		return
	}
	res, err := s.Engine.ForceClose(c.Request.Context(), sym, CurrentOperator(c))
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) bindJournalQuery(c *gin.Context) (listJournalQuery, bool) {
	var q listJournalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_QUERY", "invalid query parameters")
		return q, false
	}
	q.normalize()
	c.Header("X-Result-Limit", strconv.Itoa(q.Limit))
	return q, true
}

func (s *Server) getJournalOrders(c *gin.Context) {
	q, ok := s.bindJournalQuery(c)
	if !ok {
		return
	}
	rows, err := s.Engine.ListOrders(c.Request.Context(), q.Symbol, q.Limit)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) getJournalExits(c *gin.Context) {
	q, ok := s.bindJournalQuery(c)
	if !ok {
		return
	}
	rows, err := s.Engine.ListExits(c.Request.Context(), q.Symbol, q.Limit)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) getJournalSignals(c *gin.Context) {
	q, ok := s.bindJournalQuery(c)
	if !ok {
		return
	}
	rows, err := s.Engine.ListSignals(c.Request.Context(), q.Symbol, q.Limit)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
