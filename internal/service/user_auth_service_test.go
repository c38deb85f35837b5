package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tohfa-market/internal/config"
	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.UserLoginLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "user-auth-test-secret"
	cfg.JWT.ExpireHours = 1
	userRepo := repository.NewUserRepository(db)
	logSvc := NewUserLoginLogService(repository.NewUserLoginLogRepository(db))
	return NewUserAuthService(cfg, userRepo, logSvc), db
}

func TestRegisterAssignsUserType(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	user, token, _, err := svc.Register(RegisterInput{
		Email:    "Buyer@Example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "buyer@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.UserType != constants.UserTypeCustomer {
		t.Fatalf("expected default customer type, got %q", user.UserType)
	}
	if user.DisplayName != "buyer" {
		t.Fatalf("expected nickname from email, got %q", user.DisplayName)
	}
	if token == "" {
		t.Fatal("expected token on register")
	}

	seller, _, _, err := svc.Register(RegisterInput{
		Email:    "maker@example.com",
		Password: "password123",
		UserType: "Artist",
	})
	if err != nil {
		t.Fatalf("seller register failed: %v", err)
	}
	if seller.UserType != constants.UserTypeArtist {
		t.Fatalf("expected artist type, got %q", seller.UserType)
	}

	_, _, _, err = svc.Register(RegisterInput{
		Email:    "nope@example.com",
		Password: "password123",
		UserType: "admin",
	})
	if !errors.Is(err, ErrInvalidUserType) {
		t.Fatalf("expected admin registration rejection, got: %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	if _, _, _, err := svc.Register(RegisterInput{Email: "dup@example.com", Password: "password123"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, _, _, err := svc.Register(RegisterInput{Email: "DUP@example.com", Password: "password123"})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected duplicate email rejection, got: %v", err)
	}

	_, _, _, err = svc.Register(RegisterInput{Email: "short@example.com", Password: "short"})
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected short password rejection, got: %v", err)
	}
}

func TestLoginVerifiesCredentialsAndStatus(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)

	registered, _, _, err := svc.Register(RegisterInput{Email: "login@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, token, _, err := svc.Login(context.Background(), LoginInput{
		Email: "Login@Example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != registered.ID || token == "" {
		t.Fatalf("unexpected login result: id=%d token=%q", user.ID, token)
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != registered.ID || claims.UserType != constants.UserTypeCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	_, _, _, err = svc.Login(context.Background(), LoginInput{Email: "login@example.com", Password: "wrongpassword"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected bad password rejection, got: %v", err)
	}

	if err := db.Model(&models.User{}).Where("id = ?", registered.ID).
		Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	_, _, _, err = svc.Login(context.Background(), LoginInput{Email: "login@example.com", Password: "password123"})
	if !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected disabled rejection, got: %v", err)
	}

	var logs int64
	if err := db.Model(&models.UserLoginLog{}).Count(&logs).Error; err != nil {
		t.Fatalf("count login logs failed: %v", err)
	}
	if logs != 3 {
		t.Fatalf("expected 3 login log rows, got %d", logs)
	}
}

func TestChangePasswordBumpsTokenVersion(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	user, _, _, err := svc.Register(RegisterInput{Email: "rotate@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "nottheoldone", "newpassword456"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected old password check, got: %v", err)
	}
	if err := svc.ChangePassword(user.ID, "password123", "newpassword456"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	updated, err := svc.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if updated.TokenVersion != user.TokenVersion+1 {
		t.Fatalf("token version not bumped: %d -> %d", user.TokenVersion, updated.TokenVersion)
	}
	if updated.TokenInvalidBefore == nil {
		t.Fatal("token invalid watermark not set")
	}

	if _, _, _, err := svc.Login(context.Background(), LoginInput{
		Email: "rotate@example.com", Password: "newpassword456",
	}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestUpdateProfileShippingCostsSellerOnly(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	buyer, _, _, err := svc.Register(RegisterInput{Email: "plainbuyer@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register buyer failed: %v", err)
	}
	seller, _, _, err := svc.Register(RegisterInput{
		Email: "shopowner@example.com", Password: "password123", UserType: constants.UserTypeStore,
	})
	if err != nil {
		t.Fatalf("register seller failed: %v", err)
	}

	costs := models.ShippingCostMap{
		"5": {Cost: models.NewMoneyFromDecimal(decimal.NewFromInt(30)), Available: true},
	}
	if _, err := svc.UpdateProfile(buyer.ID, UpdateProfileInput{ShippingCosts: &costs}); !errors.Is(err, ErrSellerRoleRequired) {
		t.Fatalf("expected seller-only rejection, got: %v", err)
	}

	updated, err := svc.UpdateProfile(seller.ID, UpdateProfileInput{ShippingCosts: &costs})
	if err != nil {
		t.Fatalf("seller shipping update failed: %v", err)
	}
	entry, ok := updated.ShippingCosts["5"]
	if !ok || !entry.Cost.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("shipping costs not saved: %+v", updated.ShippingCosts)
	}

	bad := models.ShippingCostMap{
		"99": {Cost: models.NewMoneyFromDecimal(decimal.NewFromInt(10)), Available: true},
	}
	if _, err := svc.UpdateProfile(seller.ID, UpdateProfileInput{ShippingCosts: &bad}); !errors.Is(err, ErrGovernorateInvalid) {
		t.Fatalf("expected governorate validation, got: %v", err)
	}

	if _, err := svc.UpdateProfile(seller.ID, UpdateProfileInput{}); !errors.Is(err, ErrProfileEmpty) {
		t.Fatalf("expected empty update rejection, got: %v", err)
	}
}
