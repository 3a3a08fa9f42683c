package handler

import (
	"github.com/gin-gonic/gin"

	ledgerapp "github.com/stockledger/backend/internal/application/ledger"
)

// LedgerHandler exposes journal posting, reversal, and balance queries
type LedgerHandler struct {
	BaseHandler
	posting *ledgerapp.PostingService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(posting *ledgerapp.PostingService) *LedgerHandler {
	return &LedgerHandler{posting: posting}
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/ledger")
	{
		group.POST("/entries", h.PostEntry)
		group.GET("/entries", h.ListEntries)
		group.GET("/entries/:id", h.GetEntry)
		group.POST("/entries/:id/reverse", h.ReverseEntry)
		group.GET("/accounts/:code/balance", h.GetAccountBalance)
	}
}

// PostEntry posts a manual journal entry
func (h *LedgerHandler) PostEntry(c *gin.Context) {
	var req ledgerapp.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	entry, err := h.posting.PostEntry(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ledgerapp.ToJournalEntryResponse(entry))
}

// ReverseEntry posts the mirror entry for a posted one
func (h *LedgerHandler) ReverseEntry(c *gin.Context) {
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid entry ID")
		return
	}
	var req ledgerapp.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	reversal, err := h.posting.ReverseEntry(c.Request.Context(), entryID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ledgerapp.ToJournalEntryResponse(reversal))
}

// GetEntry loads one journal entry with its lines
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.posting.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledgerapp.ToJournalEntryResponse(entry))
}

// ListEntries pages journal entries; with ?reference= it returns every
// entry carrying that reference instead.
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	ctx := c.Request.Context()

	if reference := c.Query("reference"); reference != "" {
		entries, err := h.posting.GetEntriesByReference(ctx, reference)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		responses := make([]ledgerapp.JournalEntryResponse, 0, len(entries))
		for i := range entries {
			responses = append(responses, ledgerapp.ToJournalEntryResponse(&entries[i]))
		}
		h.Success(c, responses)
		return
	}

	filter, err := bindListFilter(c)
	if err != nil {
		h.BindError(c, err)
		return
	}
	entries, err := h.posting.ListEntries(ctx, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	responses := make([]ledgerapp.JournalEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, ledgerapp.ToJournalEntryResponse(&entries[i]))
	}
	h.Success(c, responses)
}

// GetAccountBalance returns the live balance of one account
func (h *LedgerHandler) GetAccountBalance(c *gin.Context) {
	balance, err := h.posting.GetAccountBalance(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}
