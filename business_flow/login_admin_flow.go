package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/amirphl/operator-ranking/app/services"
	"github.com/amirphl/operator-ranking/models"
	"github.com/amirphl/operator-ranking/repository"
	"github.com/amirphl/operator-ranking/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Refresh(ctx context.Context, req *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error)
	Logout(ctx context.Context, accessToken string) error
	// EnsureBootstrapAdmin creates the configured admin when no admin with that username exists.
	EnsureBootstrapAdmin(ctx context.Context, username, passwordHash string) error
}

// AdminAuthFlowImpl provides admin credential verification and token issuance
type AdminAuthFlowImpl struct {
	adminRepo    repository.AdminRepository
	tokenService services.TokenService
}

func NewAdminAuthFlow(adminRepo repository.AdminRepository, tokenService services.TokenService) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		adminRepo:    adminRepo,
		tokenService: tokenService,
	}
}

func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	// Validate request
	if req == nil {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrAdminNotFound)
	}
	username := strings.TrimSpace(req.Username)
	if len(username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrIncorrectPassword)
	}
	if af.adminRepo == nil {
		return nil, NewBusinessError("STORE_NOT_AVAILABLE", "Admin store not configured", ErrStoreNotAvailable)
	}

	// Lookup admin
	admin, err := af.adminRepo.ByUsername(ctx, username)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admin", err)
	}
	if admin == nil {
		return nil, NewBusinessError("ADMIN_NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if !utils.IsTrue(admin.IsActive) {
		return nil, NewBusinessError("ADMIN_INACTIVE", "Admin account is inactive", ErrAdminInactive)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewBusinessError("ADMIN_INCORRECT_PASSWORD", "Incorrect password", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := af.tokenService.GenerateAdminTokens(admin.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	now := utils.UTCNow()
	if err := af.adminRepo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		log.Println("Failed to record admin last login:", err)
	} else {
		admin.LastLoginAt = &now
	}
	if metadata != nil {
		log.Printf("Admin %s logged in from %s", admin.Username, metadata.IPAddress)
	}

	resp := &dto.AdminLoginResponse{
		Admin:   ToAdminDTOModel(*admin),
		Session: ToAdminSessionDTO(accessToken, refreshToken, af.tokenService.AccessTokenTTL(), now),
	}
	return resp, nil
}

func (af *AdminAuthFlowImpl) Refresh(ctx context.Context, req *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error) {
	if req == nil || strings.TrimSpace(req.RefreshToken) == "" {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Refresh token is required", ErrInvalidToken)
	}

	accessToken, refreshToken, err := af.tokenService.RefreshAdminToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Failed to refresh token", fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}
	session := ToAdminSessionDTO(accessToken, refreshToken, af.tokenService.AccessTokenTTL(), utils.UTCNow())
	return &session, nil
}

func (af *AdminAuthFlowImpl) Logout(ctx context.Context, accessToken string) error {
	if err := af.tokenService.RevokeToken(accessToken); err != nil {
		return NewBusinessError("LOGOUT_FAILED", "Failed to revoke token", fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}
	if adminID, ok := utils.AdminIDFromContext(ctx); ok {
		log.Printf("Admin %d logged out", adminID)
	}
	return nil
}

func (af *AdminAuthFlowImpl) EnsureBootstrapAdmin(ctx context.Context, username, passwordHash string) error {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" || af.adminRepo == nil {
		return nil
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return fmt.Errorf("invalid bootstrap admin password hash: %w", err)
	}

	existing, err := af.adminRepo.ByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to lookup bootstrap admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		IsActive:     utils.ToPtr(true),
	}
	if err := af.adminRepo.Save(ctx, admin); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	log.Printf("Bootstrap admin %s created", username)
	return nil
}
