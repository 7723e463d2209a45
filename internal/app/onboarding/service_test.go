package onboarding

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"testing"
)

type fakeTableNames struct {
	updateErr error
	calls     []string
}

func (f *fakeTableNames) SetTableName(ctx context.Context, userID, username, displayName string) error {
	f.calls = append(f.calls, userID+":"+username+":"+displayName)
	return f.updateErr
}

func TestOnboardNewUser_SetsFriendlyName(t *testing.T) {
	accounts := &fakeTableNames{}
	service := NewService(accounts, rand.New(rand.NewSource(1)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if !regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{4}$`).MatchString(result.DisplayName) {
		t.Fatalf("unexpected display name %q", result.DisplayName)
	}
	want := "user-1:" + result.DisplayName + ":" + result.DisplayName
	if len(accounts.calls) != 1 || accounts.calls[0] != want {
		t.Fatalf("calls = %v, want [%s]", accounts.calls, want)
	}
}

func TestOnboardNewUser_PropagatesAccountFailure(t *testing.T) {
	boom := errors.New("boom")
	service := NewService(&fakeTableNames{updateErr: boom}, rand.New(rand.NewSource(1)))
	if _, err := service.OnboardNewUser(context.Background(), "user-1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestOnboardNewUser_RequiresPort(t *testing.T) {
	if _, err := NewService(nil, nil).OnboardNewUser(context.Background(), "u"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}
