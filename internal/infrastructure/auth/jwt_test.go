package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/auth"
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("super-secret", time.Minute)
	actor := domain.Actor{Subject: "ops-oncall", Role: domain.RoleOperator}

	token, err := manager.Generate(actor)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if claims.Actor() != actor {
		t.Fatalf("expected actor %+v, got %+v", actor, claims.Actor())
	}
}

func TestJWTManagerGenerateRejectsBadActor(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	for _, actor := range []domain.Actor{
		{Subject: "", Role: domain.RoleAdmin},
		{Subject: "svc", Role: domain.Role("root")},
	} {
		if _, err := manager.Generate(actor); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %+v, got %v", actor, err)
		}
	}
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	expiredClaims := auth.Claims{
		Role: domain.RoleViewer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "expired",
			Issuer:    "smsledger",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	}

	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}

	if _, err := manager.Verify(expiredToken); err != domain.ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	otherManager := auth.NewJWTManager("other-secret", time.Minute)
	if _, err := otherManager.Verify(expiredToken); err == nil || err == domain.ErrExpiredToken {
		t.Fatalf("expected invalid token error, got %v", err)
	}

	if _, err := manager.Verify("not-a-token"); err != domain.ErrInvalidToken {
		t.Fatalf("expected failure for malformed token, got %v", err)
	}

	foreign := expiredClaims
	foreign.Issuer = "someone-else"
	foreign.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
	foreignToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, foreign).SignedString([]byte("secret"))
	if _, err := manager.Verify(foreignToken); err != domain.ErrInvalidToken {
		t.Fatalf("expected foreign issuer to be rejected, got %v", err)
	}
}
