package user

import (
	"context"
	"net/http"

	"gosupply/internal/domain"
	"gosupply/internal/pkg/httpx"
	"gosupply/internal/pkg/logger"
)

// UserService define o contrato que o Handler espera da camada de Serviço.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error)
	Login(ctx context.Context, email string, password string) (string, error)
}

// LoginRequest é o payload de POST /v1/login.
type LoginRequest struct {
	Email    string `json:"email" example:"ana@example.com"`
	Password string `json:"password" example:"s3nh4-forte"`
}

// TokenResponse é a resposta de login bem-sucedido.
type TokenResponse struct {
	Token string `json:"token"`
}

// Handler agrupa os handlers de usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria o Handler de usuário.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// RegisterUserHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Cria um novo usuário, hasheia a senha e salva no banco de dados.
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Credenciais de registro (email e senha)"
// @Success 201 {object} domain.User "Usuário criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido (JSON malformado ou campos obrigatórios ausentes)"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.UserRegistration
	if err := httpx.DecodeJSON(r, &reg); err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}

	// O domain.User não serializa o hash da senha (tag json:"-").
	newUser, err := h.Service.Register(r.Context(), reg)
	httpx.Respond(w, r, h.Logger, newUser, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário e retorna um JWT
// @Description Recebe email/senha, verifica a validade e emite um JSON Web Token.
// @Tags users
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais do usuário (email e senha)"
// @Success 200 {object} TokenResponse "Token JWT emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var loginReq LoginRequest
	if err := httpx.DecodeJSON(r, &loginReq); err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}

	token, err := h.Service.Login(r.Context(), loginReq.Email, loginReq.Password)
	if err != nil {
		httpx.WriteError(w, r, h.Logger, err)
		return
	}
	httpx.Respond(w, r, h.Logger, TokenResponse{Token: token}, nil, http.StatusOK)
}
