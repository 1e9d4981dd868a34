package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/healthchallenge/internal/domain"
	"github.com/set-night/healthchallenge/internal/middleware"
	"github.com/shopspring/decimal"
)

type purchaseResponse struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	PaymentProof string          `json:"payment_proof,omitempty"`
	VerifiedBy   *uuid.UUID      `json:"verified_by,omitempty"`
	VerifiedAt   *time.Time      `json:"verified_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toPurchaseResponse(p *domain.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		ProductID:    p.ProductID,
		ProductName:  p.ProductName,
		Amount:       p.Amount,
		Status:       string(p.Status),
		PaymentProof: p.PaymentProof,
		VerifiedBy:   p.VerifiedBy,
		VerifiedAt:   p.VerifiedAt,
		CreatedAt:    p.CreatedAt,
	}
}

type withdrawalResponse struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	Status        string          `json:"status"`
	AdminNote     string          `json:"admin_note,omitempty"`
	ProcessedBy   *uuid.UUID      `json:"processed_by,omitempty"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toWithdrawalResponse(w *domain.Withdrawal) withdrawalResponse {
	return withdrawalResponse{
		ID:            w.ID,
		UserID:        w.UserID,
		Amount:        w.Amount,
		BankName:      w.Payout.BankName,
		AccountNumber: w.Payout.AccountNumber,
		AccountName:   w.Payout.AccountName,
		Status:        string(w.Status),
		AdminNote:     w.AdminNote,
		ProcessedBy:   w.ProcessedBy,
		ProcessedAt:   w.ProcessedAt,
		CreatedAt:     w.CreatedAt,
	}
}

type commissionResponse struct {
	ID         uuid.UUID       `json:"id"`
	FromUserID uuid.UUID       `json:"from_user_id"`
	PurchaseID uuid.UUID       `json:"purchase_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toCommissionResponse(c *domain.Commission) commissionResponse {
	return commissionResponse{
		ID:         c.ID,
		FromUserID: c.FromUserID,
		PurchaseID: c.PurchaseID,
		Amount:     c.Amount,
		Status:     string(c.Status),
		CreatedAt:  c.CreatedAt,
	}
}

type recordPurchaseRequest struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentProof string          `json:"payment_proof"`
}

func (h *Handler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.GetPrincipal(r.Context())

	var req recordPurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	purchase, err := h.ledgerService.RecordPurchase(r.Context(), p.UserID, req.ProductID, req.ProductName, req.Amount, req.PaymentProof)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPurchaseResponse(purchase))
}

type withdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
}

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.GetPrincipal(r.Context())

	var req withdrawalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	wd, err := h.ledgerService.RequestWithdrawal(r.Context(), p.UserID, req.Amount, domain.PayoutDetails{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWithdrawalResponse(wd))
}

func (h *Handler) Commissions(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.GetPrincipal(r.Context())

	list, err := h.ledgerService.ListCommissions(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]commissionResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toCommissionResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	status := domain.PurchaseStatusPending
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, err := domain.ParsePurchaseStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		status = s
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.ledgerService.ListPurchases(r.Context(), status, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]purchaseResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toPurchaseResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type verifyPurchaseRequest struct {
	Approve bool `json:"approve"`
}

type verifyPurchaseResponse struct {
	PurchaseID uuid.UUID        `json:"purchase_id"`
	Status     string           `json:"status"`
	Commission *decimal.Decimal `json:"commission,omitempty"`
	ReferrerID *uuid.UUID       `json:"referrer_id,omitempty"`
}

func (h *Handler) VerifyPurchase(w http.ResponseWriter, r *http.Request) {
	admin, _ := middleware.GetPrincipal(r.Context())
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req verifyPurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.ledgerService.VerifyPurchase(r.Context(), id, req.Approve, admin.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := verifyPurchaseResponse{PurchaseID: out.PurchaseID, Status: string(out.Status)}
	if out.Commission != nil {
		resp.Commission = &out.Commission.Amount
		resp.ReferrerID = &out.Commission.UserID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := domain.WithdrawalStatusPending
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, err := domain.ParseWithdrawalStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		status = s
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.ledgerService.ListWithdrawals(r.Context(), status, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]withdrawalResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toWithdrawalResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type processWithdrawalRequest struct {
	Approve   bool   `json:"approve"`
	AdminNote string `json:"admin_note"`
}

type processWithdrawalResponse struct {
	WithdrawalID uuid.UUID       `json:"withdrawal_id"`
	UserID       uuid.UUID       `json:"user_id"`
	Status       string          `json:"status"`
	Moved        decimal.Decimal `json:"moved"`
}

func (h *Handler) ProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	admin, _ := middleware.GetPrincipal(r.Context())
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req processWithdrawalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.ledgerService.ProcessWithdrawal(r.Context(), id, req.Approve, req.AdminNote, admin.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processWithdrawalResponse{
		WithdrawalID: out.WithdrawalID,
		UserID:       out.UserID,
		Status:       string(out.Status),
		Moved:        out.Moved,
	})
}
