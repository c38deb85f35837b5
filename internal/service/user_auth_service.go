package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/tohfa-market/internal/cache"
	"github.com/tohfa-market/internal/config"
	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserAuthService 用户认证服务
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	logSvc   *UserLoginLogService
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository, logSvc *UserLoginLogService) *UserAuthService {
	return &UserAuthService{
		cfg:      cfg,
		userRepo: userRepo,
		logSvc:   logSvc,
	}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	UserType     string `json:"user_type"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateUserJWT 生成用户 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	expireHours := s.cfg.JWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		UserType:     user.UserType,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	UserType    string
	Locale      string
}

// Register 用户注册
//
// user_type 在注册时确定：普通买家 customer，卖家为 artist 或 store。
func (s *UserAuthService) Register(input RegisterInput) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, "", time.Time{}, err
	}
	userType := strings.ToLower(strings.TrimSpace(input.UserType))
	if userType == "" {
		userType = constants.UserTypeCustomer
	}
	if !isRegisterableUserType(userType) {
		return nil, "", time.Time{}, ErrInvalidUserType
	}

	exist, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if exist != nil {
		return nil, "", time.Time{}, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = resolveNicknameFromEmail(normalized)
	}
	locale := strings.TrimSpace(input.Locale)
	if locale == "" {
		locale = "en"
	}
	user := &models.User{
		Email:        normalized,
		PasswordHash: string(hashedPassword),
		DisplayName:  displayName,
		UserType:     userType,
		Locale:       locale,
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	return user, token, expiresAt, nil
}

// LoginInput 登录输入
type LoginInput struct {
	Email     string
	Password  string
	ClientIP  string
	UserAgent string
	RequestID string
}

// Login 用户登录
//
// 同一邮箱在限流窗口内失败次数超限直接拒绝，不再触发密码比对。成功与
// 失败都会落登录日志。
func (s *UserAuthService) Login(ctx context.Context, input LoginInput) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		s.recordLogin(input, 0, constants.LoginLogFailReasonInvalidEmail)
		return nil, "", time.Time{}, err
	}
	if err := s.checkLoginRateLimit(ctx, normalized); err != nil {
		s.recordLogin(input, 0, constants.LoginLogFailReasonRateLimited)
		return nil, "", time.Time{}, err
	}

	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		s.recordLogin(input, 0, constants.LoginLogFailReasonInternalError)
		return nil, "", time.Time{}, err
	}
	if user == nil {
		s.recordLogin(input, 0, constants.LoginLogFailReasonInvalidCredentials)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if strings.ToLower(user.Status) != constants.UserStatusActive {
		s.recordLogin(input, user.ID, constants.LoginLogFailReasonUserDisabled)
		return nil, "", time.Time{}, ErrUserDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordLogin(input, user.ID, constants.LoginLogFailReasonInvalidCredentials)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		s.recordLogin(input, user.ID, constants.LoginLogFailReasonInternalError)
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	s.recordLogin(input, user.ID, "")
	return user, token, expiresAt, nil
}

// ChangePassword 登录态修改密码
//
// 修改成功后递增 token 版本并设置失效水位，已签发的旧 Token 全部作废。
func (s *UserAuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	if userID == 0 {
		return ErrNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidPassword
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	now := time.Now()
	user.UpdatedAt = now
	user.TokenVersion++
	user.TokenInvalidBefore = &now
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return nil
}

// UpdateProfileInput 资料更新输入（nil 字段不更新）
type UpdateProfileInput struct {
	DisplayName   *string
	Locale        *string
	Phone         *string
	Bio           *string
	ShippingCosts *models.ShippingCostMap
}

// UpdateProfile 更新用户资料
//
// 运费设置仅卖家可写，键必须是合法省份编号。
func (s *UserAuthService) UpdateProfile(userID uint, input UpdateProfileInput) (*models.User, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	updated := false
	if input.DisplayName != nil {
		if trimmed := strings.TrimSpace(*input.DisplayName); trimmed != "" {
			user.DisplayName = trimmed
			updated = true
		}
	}
	if input.Locale != nil {
		if trimmed := strings.TrimSpace(*input.Locale); trimmed != "" {
			user.Locale = trimmed
			updated = true
		}
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
		updated = true
	}
	if input.Bio != nil {
		user.Bio = strings.TrimSpace(*input.Bio)
		updated = true
	}
	if input.ShippingCosts != nil {
		if !user.IsSeller() {
			return nil, ErrSellerRoleRequired
		}
		normalized, err := normalizeShippingCosts(*input.ShippingCosts)
		if err != nil {
			return nil, err
		}
		user.ShippingCosts = normalized
		updated = true
	}

	if !updated {
		return nil, ErrProfileEmpty
	}

	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID 获取用户信息
func (s *UserAuthService) GetUserByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	return s.userRepo.GetByID(id)
}

// checkLoginRateLimit 登录失败限流检查
func (s *UserAuthService) checkLoginRateLimit(ctx context.Context, email string) error {
	if s.cfg == nil {
		return nil
	}
	limit := s.cfg.Security.LoginRateLimit
	if limit.MaxAttempts <= 0 || limit.WindowSeconds <= 0 {
		return nil
	}
	key := fmt.Sprintf("rate:login:%s", email)
	count, err := cache.IncrWithTTL(ctx, key, time.Duration(limit.WindowSeconds)*time.Second)
	if err != nil {
		logger.Warnw("login_rate_limit_check_failed", "email", email, "error", err.Error())
		return nil
	}
	if count > int64(limit.MaxAttempts) {
		return ErrTooManyLoginAttempts
	}
	return nil
}

func (s *UserAuthService) recordLogin(input LoginInput, userID uint, failReason string) {
	if s.logSvc == nil {
		return
	}
	status := constants.LoginLogStatusSuccess
	if failReason != "" {
		status = constants.LoginLogStatusFailed
	}
	_ = s.logSvc.Record(RecordUserLoginInput{
		UserID:      userID,
		Email:       input.Email,
		Status:      status,
		FailReason:  failReason,
		ClientIP:    input.ClientIP,
		UserAgent:   input.UserAgent,
		LoginSource: constants.LoginLogSourceWeb,
		RequestID:   input.RequestID,
	})
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// NormalizeEmail 统一邮箱格式
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}

func isRegisterableUserType(userType string) bool {
	switch userType {
	case constants.UserTypeCustomer, constants.UserTypeArtist, constants.UserTypeStore:
		return true
	default:
		return false
	}
}

// normalizeShippingCosts 校验并规范化卖家运费表
func normalizeShippingCosts(costs models.ShippingCostMap) (models.ShippingCostMap, error) {
	if len(costs) == 0 {
		return models.ShippingCostMap{}, nil
	}
	normalized := make(models.ShippingCostMap, len(costs))
	for rawID, entry := range costs {
		id, err := normalizeGovernorateID(rawID)
		if err != nil {
			return nil, err
		}
		if entry.Cost.Decimal.IsNegative() {
			return nil, ErrPriceInvalid
		}
		normalized[id] = entry
	}
	return normalized, nil
}

func resolveNicknameFromEmail(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) == 2 && strings.TrimSpace(parts[0]) != "" {
		return strings.TrimSpace(parts[0])
	}
	return email
}
