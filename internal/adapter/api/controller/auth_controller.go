package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/dto"
	"github.com/notasimples/nfse-assistente/internal/domain/account"
	"github.com/notasimples/nfse-assistente/pkg/auth"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

// AuthController gerencia as requisições de cadastro e autenticação
type AuthController struct {
	accountRepo account.Repository
	jwtService  *auth.JWTService
	logger      logger.Logger
}

// NewAuthController cria uma nova instância de AuthController
func NewAuthController(accountRepo account.Repository, jwtService *auth.JWTService, logger logger.Logger) *AuthController {
	return &AuthController{
		accountRepo: accountRepo,
		jwtService:  jwtService,
		logger:      logger,
	}
}

// Register cria uma conta e devolve o token de acesso
// @Summary Cria uma conta
// @Description Cadastra uma nova conta e retorna um token JWT para uso imediato
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Dados da conta"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var request dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	plan := account.Plan(request.Plan)
	if request.Plan == "" {
		plan = account.PlanFree
	}

	acc, err := account.NewAccount(request.Name, request.Email, request.Phone, plan)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Dados da conta inválidos", err.Error()))
		return
	}

	if err := acc.SetPassword(request.Password); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao proteger a senha", err.Error()))
		return
	}

	// Verificar se o email já está em uso
	if _, err := c.accountRepo.FindByEmail(ctx, request.Email); err == nil {
		ctx.JSON(http.StatusConflict, dto.NewErrorResponse(http.StatusConflict, "Email já cadastrado", "use outro email ou recupere o acesso à conta existente"))
		return
	} else if !errors.Is(err, account.ErrNotFound) {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao verificar email", err.Error()))
		return
	}

	if err := c.accountRepo.Create(ctx, acc); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao criar conta", err.Error()))
		return
	}

	token, err := c.jwtService.GenerateToken(acc)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao gerar token", err.Error()))
		return
	}

	c.logger.Info("conta criada", "account_id", acc.ID, "plan", string(acc.Plan))

	ctx.JSON(http.StatusCreated, dto.AuthResponse{
		Account:     dto.NewAccountResponse(acc),
		AccessToken: token,
		ExpiresAt:   time.Now().Add(c.jwtService.Expiration()),
	})
}

// Login autentica uma conta e retorna um token JWT
// @Summary Autentica uma conta
// @Description Verifica as credenciais e retorna um token JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Credenciais de login"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var request dto.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	acc, err := c.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Credenciais inválidas", "email ou senha incorretos"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao autenticar", err.Error()))
		return
	}

	if !acc.CheckPassword(request.Password) {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Credenciais inválidas", "email ou senha incorretos"))
		return
	}

	if !acc.IsActive() {
		ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(http.StatusForbidden, "Conta inativa", "sua conta está desativada ou bloqueada"))
		return
	}

	token, err := c.jwtService.GenerateToken(acc)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao gerar token", err.Error()))
		return
	}

	// O registro do acesso não impede o login quando falha
	if err := c.accountRepo.RegisterLogin(ctx, acc.ID); err != nil {
		c.logger.Warn("erro ao registrar último acesso", "account_id", acc.ID, "error", err)
	}

	ctx.JSON(http.StatusOK, dto.AuthResponse{
		Account:     dto.NewAccountResponse(acc),
		AccessToken: token,
		ExpiresAt:   time.Now().Add(c.jwtService.Expiration()),
	})
}

// Me retorna os dados da conta autenticada
// @Summary Dados da conta autenticada
// @Description Retorna os dados da conta dona do token
// @Tags auth
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	accountID, _, _, _ := auth.GetCurrentAccount(ctx)
	if accountID == "" {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Conta não identificada", "token sem identificação da conta"))
		return
	}

	acc, err := c.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Conta não encontrada", "a conta do token não existe mais"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar conta", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAccountResponse(acc))
}

// RefreshToken renova um token JWT
// @Summary Renova um token JWT
// @Description Emite um novo token a partir de um token válido ou recém-expirado
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body dto.RefreshTokenRequest true "Token a ser renovado"
// @Success 200 {object} dto.RefreshTokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/refresh-token [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var request dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	newToken, err := c.jwtService.RefreshToken(request.Token)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, "Token inválido", "faça login novamente"))
		return
	}

	ctx.JSON(http.StatusOK, dto.RefreshTokenResponse{
		AccessToken: newToken,
		ExpiresAt:   time.Now().Add(c.jwtService.Expiration()),
	})
}
