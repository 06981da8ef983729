package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/memory"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"
	"unicarpool/pkg/cache"
	apperrors "unicarpool/pkg/errors"
	"unicarpool/pkg/logger"
	"unicarpool/pkg/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingMailer struct {
	mu   sync.Mutex
	sent []*mailer.Message
}

func (m *capturingMailer) Send(_ context.Context, msg *mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (m *capturingMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	code := codePattern.FindString(m.sent[len(m.sent)-1].Body)
	require.NotEmpty(t, code)
	return code
}

func newAuthService(t *testing.T) (*authService, *capturingMailer) {
	t.Helper()
	mail := &capturingMailer{}
	svc := NewAuthService(memory.NewUserRepository(), cache.NewMemoryCache(), mail, AuthConfig{
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		OTPExpiry:         10 * time.Minute,
		MaxLoginAttempts:  3,
		LoginLockoutTime:  15 * time.Minute,
		SchoolEmailDomain: "dal.ca",
	}, logger.NewNop()).(*authService)
	return svc, mail
}

func registerRequest() *validators.RegisterRequest {
	return &validators.RegisterRequest{
		BannerID:     "b00123456",
		FullName:     "Sam Rivera",
		SchoolEmail:  "sam.rivera@dal.ca",
		PhoneNumber:  "902-555-0199",
		Password:     "carpool2026",
		SelectedRole: "rider",
	}
}

func TestRegisterVerifyLogin(t *testing.T) {
	ctx := context.Background()
	svc, mail := newAuthService(t)

	user, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.Equal(t, "B00123456", user.BannerID)
	assert.Equal(t, []models.Role{models.RoleRider}, user.Roles)
	assert.Equal(t, models.RoleRider, user.ActiveRole)
	assert.False(t, user.EmailVerified)
	assert.NotEqual(t, "carpool2026", user.PasswordHash)

	_, err = svc.Login(ctx, &validators.LoginRequest{BannerID: "B00123456", Password: "carpool2026"})
	requireCode(t, err, apperrors.CodeEmailNotVerified)

	wrongCode := "000000"
	if mail.lastCode(t) == wrongCode {
		wrongCode = "111111"
	}
	_, err = svc.VerifyEmail(ctx, &validators.VerificationRequest{BannerID: "B00123456", VerificationCode: wrongCode})
	requireCode(t, err, apperrors.CodeValidation)

	verified, err := svc.VerifyEmail(ctx, &validators.VerificationRequest{BannerID: "b00123456", VerificationCode: mail.lastCode(t)})
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	resp, err := svc.Login(ctx, &validators.LoginRequest{BannerID: "B00123456", Password: "carpool2026"})
	require.NoError(t, err)
	assert.Equal(t, utils.TokenTypeBearer, resp.TokenType)
	assert.EqualValues(t, 3600, resp.ExpiresIn)

	claims, err := utils.ValidateToken(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	_, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	again := registerRequest()
	again.SchoolEmail = "someone.else@dal.ca"
	_, err = svc.Register(ctx, again)
	requireCode(t, err, apperrors.CodeConflict)

	sameEmail := registerRequest()
	sameEmail.BannerID = "B00999999"
	_, err = svc.Register(ctx, sameEmail)
	requireCode(t, err, apperrors.CodeConflict)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	svc, mail := newAuthService(t)
	_, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	_, err = svc.VerifyEmail(ctx, &validators.VerificationRequest{BannerID: "B00123456", VerificationCode: mail.lastCode(t)})
	require.NoError(t, err)

	wrong := &validators.LoginRequest{BannerID: "B00123456", Password: "not-it-123"}
	_, err = svc.Login(ctx, wrong)
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.Login(ctx, wrong)
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.Login(ctx, wrong)
	requireCode(t, err, apperrors.CodeTooManyRequests)

	_, err = svc.Login(ctx, &validators.LoginRequest{BannerID: "B00123456", Password: "carpool2026"})
	requireCode(t, err, apperrors.CodeTooManyRequests)
}

func TestPasswordRecoveryAndChange(t *testing.T) {
	ctx := context.Background()
	svc, mail := newAuthService(t)
	user, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	_, err = svc.VerifyEmail(ctx, &validators.VerificationRequest{BannerID: "B00123456", VerificationCode: mail.lastCode(t)})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordRecovery(ctx, &validators.BannerIDRequest{BannerID: "B00123456"}))
	code := mail.lastCode(t)

	require.NoError(t, svc.RecoverPassword(ctx, &validators.RecoverPasswordRequest{
		BannerID:    "B00123456",
		Code:        code,
		NewPassword: "newride2027",
	}))
	err = svc.RecoverPassword(ctx, &validators.RecoverPasswordRequest{
		BannerID:    "B00123456",
		Code:        code,
		NewPassword: "another2028",
	})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = svc.Login(ctx, &validators.LoginRequest{BannerID: "B00123456", Password: "newride2027"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, &validators.ChangePasswordRequest{CurrentPassword: "wrong-one1", NewPassword: "final2029x"})
	requireCode(t, err, apperrors.CodeValidation)
	require.NoError(t, svc.ChangePassword(ctx, user.ID, &validators.ChangePasswordRequest{CurrentPassword: "newride2027", NewPassword: "final2029x"}))

	_, err = svc.Login(ctx, &validators.LoginRequest{BannerID: "B00123456", Password: "final2029x"})
	require.NoError(t, err)
}

func TestRecoveryForUnknownBannerIsSilent(t *testing.T) {
	svc, mail := newAuthService(t)

	err := svc.RequestPasswordRecovery(context.Background(), &validators.BannerIDRequest{BannerID: "B00000001"})
	require.NoError(t, err)
	assert.Empty(t, mail.sent)
}

func TestRecoveryCodeIsDiscardedAfterRepeatedWrongGuesses(t *testing.T) {
	ctx := context.Background()
	svc, mail := newAuthService(t)
	_, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	_, err = svc.VerifyEmail(ctx, &validators.VerificationRequest{BannerID: "B00123456", VerificationCode: mail.lastCode(t)})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordRecovery(ctx, &validators.BannerIDRequest{BannerID: "B00123456"}))
	code := mail.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	guess := func(c string) error {
		return svc.RecoverPassword(ctx, &validators.RecoverPasswordRequest{BannerID: "B00123456", Code: c, NewPassword: "takeover99"})
	}

	requireCode(t, guess(wrong), apperrors.CodeValidation)
	requireCode(t, guess(wrong), apperrors.CodeValidation)
	requireCode(t, guess(wrong), apperrors.CodeTooManyRequests)

	// the guessed-at code is gone, even the right one no longer works
	requireCode(t, guess(code), apperrors.CodeValidation)

	require.NoError(t, svc.RequestPasswordRecovery(ctx, &validators.BannerIDRequest{BannerID: "B00123456"}))
	fresh := mail.lastCode(t)
	wrongFresh := "000000"
	if fresh == wrongFresh {
		wrongFresh = "111111"
	}
	requireCode(t, guess(wrongFresh), apperrors.CodeValidation)
	require.NoError(t, guess(fresh))

	_, err = svc.Login(ctx, &validators.LoginRequest{BannerID: "B00123456", Password: "takeover99"})
	require.NoError(t, err)
}
