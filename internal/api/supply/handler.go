package supply

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/httpx"
	"gosupply/internal/pkg/logger"
	"gosupply/internal/pkg/middleware"
)

// SupplyService define o contrato que o Handler espera da camada de Serviço.
type SupplyService interface {
	CreateItem(ctx context.Context, in domain.ItemInput) (domain.ItemView, error)
	GetItem(ctx context.Context, id string) (domain.ItemView, error)
	ListItems(ctx context.Context, filter domain.ListFilter) ([]domain.ItemView, error)
	UpdateItem(ctx context.Context, id string, in domain.ItemInput) (domain.ItemView, error)
	DeleteItem(ctx context.Context, id string) error
	UseItem(ctx context.Context, id string, forceConfirm bool) (domain.UsageResult, error)
	StockUp(ctx context.Context, id string) (domain.ItemView, error)
	SetOrderStatus(ctx context.Context, id string, isOrdered bool) (domain.ItemView, error)
}

// WidgetReader entrega o snapshot do widget.
type WidgetReader interface {
	Snapshot(ctx context.Context) (domain.WidgetSnapshot, error)
}

// NotificationLister lista os alertas pendentes.
type NotificationLister interface {
	Pending(ctx context.Context) ([]domain.ScheduledNotification, error)
}

// UseRequest é o corpo opcional de POST /v1/items/{id}/use.
type UseRequest struct {
	ForceConfirm bool `json:"force_confirm" example:"false"`
}

// OrderStatusRequest é o corpo de PUT /v1/items/{id}/order-status.
type OrderStatusRequest struct {
	IsOnOrder *bool `json:"is_on_order" example:"true"`
}

// Handler agrupa os handlers de itens de suprimento.
type Handler struct {
	Service       SupplyService
	Widget        WidgetReader
	Notifications NotificationLister
	Logger        logger.Logger
}

// NewHandler cria o Handler injetando os serviços e o Logger.
func NewHandler(svc SupplyService, widget WidgetReader, notifications NotificationLister, log logger.Logger) *Handler {
	return &Handler{
		Service:       svc,
		Widget:        widget,
		Notifications: notifications,
		Logger:        log,
	}
}

// CreateItemHandler lida com POST /v1/items.
// @Summary Cria um item de suprimento
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body domain.ItemInput true "Dados do item"
// @Success 201 {object} domain.ItemView
// @Failure 400 {object} domain.ErrorResponse "Dados inválidos"
// @Failure 401 {object} domain.ErrorResponse "Não autorizado"
// @Router /items [post]
func (h *Handler) CreateItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		h.Logger.Info("Criação de item solicitada por", map[string]interface{}{"user_id": claims.UserID, "role": claims.Role})
	}

	var in domain.ItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}

	view, err := h.Service.CreateItem(ctx, in)
	httpx.Respond(w, r, h.Logger, view, err, http.StatusCreated)
}

// ListItemsHandler lida com GET /v1/items.
// @Summary Lista os itens com data prevista de esgotamento
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param sort query string false "created_desc (padrão), name ou empty_date"
// @Param q query string false "Filtro por nome (contém, sem diferenciar maiúsculas)"
// @Param under_threshold query bool false "Somente itens abaixo do limite"
// @Param on_order query bool false "Somente itens pedidos"
// @Success 200 {array} domain.ItemView
// @Failure 400 {object} domain.ErrorResponse "Parâmetros inválidos"
// @Router /items [get]
func (h *Handler) ListItemsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.ListFilter{
		NameContains: query.Get("q"),
		Sort:         domain.SortOrder(query.Get("sort")),
	}

	var err error
	if filter.OnlyUnderThreshold, err = parseBoolParam(query.Get("under_threshold"), "under_threshold"); err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}
	if filter.OnlyOnOrder, err = parseBoolParam(query.Get("on_order"), "on_order"); err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}

	views, err := h.Service.ListItems(r.Context(), filter)
	httpx.Respond(w, r, h.Logger, views, err, http.StatusOK)
}

// GetItemHandler lida com GET /v1/items/{id}.
// @Summary Busca um item
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Success 200 {object} domain.ItemView
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado"
// @Router /items/{id} [get]
func (h *Handler) GetItemHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.GetItem(r.Context(), r.PathValue("id"))
	httpx.Respond(w, r, h.Logger, view, err, http.StatusOK)
}

// UpdateItemHandler lida com PUT /v1/items/{id}.
// @Summary Edita um item (o status de pedido é mantido)
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Param item body domain.ItemInput true "Novos dados do item"
// @Success 200 {object} domain.ItemView
// @Failure 400 {object} domain.ErrorResponse "Dados inválidos"
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Conflito de versão"
// @Router /items/{id} [put]
func (h *Handler) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	var in domain.ItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}

	view, err := h.Service.UpdateItem(r.Context(), r.PathValue("id"), in)
	httpx.Respond(w, r, h.Logger, view, err, http.StatusOK)
}

// DeleteItemHandler lida com DELETE /v1/items/{id}.
// @Summary Remove um item e seu alerta pendente
// @Tags items
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Success 204 "Removido"
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado"
// @Router /items/{id} [delete]
func (h *Handler) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteItem(r.Context(), r.PathValue("id"))
	httpx.Respond(w, r, h.Logger, nil, err, http.StatusNoContent)
}

// UseItemHandler lida com POST /v1/items/{id}/use.
// Um uso cedo demais responde 200 com requires_confirmation=true e nada é gravado;
// o cliente repete a chamada com force_confirm=true.
// @Summary Registra o consumo de uma unidade
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Param body body UseRequest false "Confirmação de uso antecipado"
// @Success 200 {object} domain.UsageResult
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado"
// @Router /items/{id}/use [post]
func (h *Handler) UseItemHandler(w http.ResponseWriter, r *http.Request) {
	var req UseRequest
	if err := httpx.DecodeOptionalJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}

	result, err := h.Service.UseItem(r.Context(), r.PathValue("id"), req.ForceConfirm)
	httpx.Respond(w, r, h.Logger, result, err, http.StatusOK)
}

// StockUpHandler lida com POST /v1/items/{id}/stock-up.
// @Summary Reabastece o item com restock_size unidades
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Success 200 {object} domain.ItemView
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado"
// @Router /items/{id}/stock-up [post]
func (h *Handler) StockUpHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.StockUp(r.Context(), r.PathValue("id"))
	httpx.Respond(w, r, h.Logger, view, err, http.StatusOK)
}

// SetOrderStatusHandler lida com PUT /v1/items/{id}/order-status.
// @Summary Marca ou desmarca o item como pedido
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do item"
// @Param body body OrderStatusRequest true "Novo status de pedido"
// @Success 200 {object} domain.ItemView
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado"
// @Router /items/{id}/order-status [put]
func (h *Handler) SetOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req OrderStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}
	if req.IsOnOrder == nil {
		httpx.WriteError(w, r, h.Logger, apperror.NewValidationError("O campo 'is_on_order' é obrigatório."))
		return
	}

	view, err := h.Service.SetOrderStatus(r.Context(), r.PathValue("id"), *req.IsOnOrder)
	httpx.Respond(w, r, h.Logger, view, err, http.StatusOK)
}

// WidgetHandler lida com GET /v1/widget.
// @Summary Itens mais próximos de acabar
// @Tags widget
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.WidgetSnapshot
// @Router /widget [get]
func (h *Handler) WidgetHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Widget.Snapshot(r.Context())
	httpx.Respond(w, r, h.Logger, snapshot, err, http.StatusOK)
}

// NotificationsHandler lida com GET /v1/notifications.
// @Summary Alertas agendados ainda não disparados
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.ScheduledNotification
// @Router /notifications [get]
func (h *Handler) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Notifications.Pending(r.Context())
	httpx.Respond(w, r, h.Logger, pending, err, http.StatusOK)
}

func parseBoolParam(raw, name string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperror.NewValidationError(fmt.Sprintf("Parâmetro '%s' deve ser booleano.", name))
	}
	return v, nil
}
