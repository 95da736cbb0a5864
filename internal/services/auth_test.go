package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/givebridge-backend/internal/apperr"
	"github.com/yungbote/givebridge-backend/internal/config"
	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/repos"
	"github.com/yungbote/givebridge-backend/internal/types"
)

func newAuthTestService(t *testing.T) AuthService {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&types.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecretKey: "test-secret", AccessTokenTTL: 3600},
	}
	return NewAuthService(log, cfg, repos.NewUserRepo(db, log))
}

func TestRegister_ThenLoginAndParseToken(t *testing.T) {
	svc := newAuthTestService(t)
	registered, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "Jane.Doe@Example.com",
		Password:  "supersecret",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.User.Email != "jane.doe@example.com" {
		t.Fatalf("email not normalized: %q", registered.User.Email)
	}
	if registered.User.Role != types.UserRoleEmployee {
		t.Fatalf("default role = %q, want employee", registered.User.Role)
	}
	if registered.User.Password == "supersecret" {
		t.Fatalf("password stored in plaintext")
	}
	if registered.AccessToken == "" {
		t.Fatalf("registration should issue a token")
	}

	logged, err := svc.Login(context.Background(), LoginInput{Email: "jane.doe@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := svc.ParseToken(logged.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != registered.User.ID {
		t.Fatalf("token subject = %s, want %s", claims.UserID, registered.User.ID)
	}
	if claims.Role != types.UserRoleEmployee {
		t.Fatalf("token role = %q", claims.Role)
	}
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	svc := newAuthTestService(t)
	input := RegisterInput{FirstName: "Jane", Email: "dup@example.com", Password: "supersecret"}
	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(context.Background(), input)
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRegister_ValidatesInput(t *testing.T) {
	svc := newAuthTestService(t)
	cases := []RegisterInput{
		{FirstName: "Jane", Email: "noat.example.com", Password: "supersecret"},
		{FirstName: "Jane", Email: "ok@example.com", Password: "short"},
		{FirstName: "", Email: "ok@example.com", Password: "supersecret"},
	}
	for i, input := range cases {
		if _, err := svc.Register(context.Background(), input); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}
}

func TestLogin_WrongPasswordUnauthorized(t *testing.T) {
	svc := newAuthTestService(t)
	if _, err := svc.Register(context.Background(), RegisterInput{FirstName: "Jane", Email: "jane@example.com", Password: "supersecret"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Login(context.Background(), LoginInput{Email: "jane@example.com", Password: "wrongpass"})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "supersecret"})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("unknown email: expected ErrUnauthorized, got %v", err)
	}
}

func TestParseToken_RejectsGarbage(t *testing.T) {
	svc := newAuthTestService(t)
	if _, err := svc.ParseToken("not.a.token"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
