package security

import (
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, errGen := GenerateSessionToken("secret", 9, "u@example.com", "u", time.Hour)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}

	claims, errParse := ParseSessionToken("secret", token)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.UserID != 9 || claims.Email != "u@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, errGen := GenerateSessionToken("secret", 9, "u@example.com", "u", time.Hour)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}
	if _, errParse := ParseSessionToken("other", token); errParse == nil {
		t.Fatalf("expected parse failure with wrong secret")
	}
}

func TestSessionTokenExpired(t *testing.T) {
	token, errGen := GenerateSessionToken("secret", 9, "u@example.com", "u", -time.Minute)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}
	if _, errParse := ParseSessionToken("secret", token); errParse != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", errParse)
	}
}

func TestAnonTokenRoundTrip(t *testing.T) {
	token, errGen := GenerateAnonToken("secret")
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}

	claims, errParse := ParseAnonToken("secret", token)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.Type != "anon" || claims.ID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	other, errOther := GenerateAnonToken("secret")
	if errOther != nil {
		t.Fatalf("generate second: %v", errOther)
	}
	otherClaims, errParseOther := ParseAnonToken("secret", other)
	if errParseOther != nil {
		t.Fatalf("parse second: %v", errParseOther)
	}
	if otherClaims.ID == claims.ID {
		t.Fatalf("two mints must not share a token ID")
	}
}

func TestAnonTokenRejectsSessionToken(t *testing.T) {
	token, errGen := GenerateSessionToken("secret", 9, "u@example.com", "u", time.Hour)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}
	if _, errParse := ParseAnonToken("secret", token); errParse == nil {
		t.Fatalf("session tokens must not pass anon validation")
	}
}
