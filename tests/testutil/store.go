package testutil

import (
	"context"
	"testing"

	"github.com/nhle/bod-watchlist/internal/model"
	"github.com/nhle/bod-watchlist/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Roster is the users created by SeedRoster, in insertion order.
type Roster struct {
	Secretary model.User
	Dewi      model.User
	Budi      model.User
	Rina      model.User
}

// All returns every roster member.
func (r Roster) All() []model.User {
	return []model.User{r.Secretary, r.Dewi, r.Budi, r.Rina}
}

// SeedRoster inserts one secretary and three unit leaders. passwordHash
// is stored for every user.
func SeedRoster(t *testing.T, s store.UserStore, passwordHash string) Roster {
	t.Helper()

	create := func(username, name string, role model.Role, division string) model.User {
		u, err := s.CreateUser(context.Background(), store.UserRecord{
			User: model.User{
				Username: username,
				Name:     name,
				Role:     role,
				Division: division,
			},
			PasswordHash: passwordHash,
		})
		if err != nil {
			t.Fatalf("seeding user %s: %v", username, err)
		}
		return u
	}

	return Roster{
		Secretary: create("sekper", "Sekretaris Perusahaan", model.RoleSecretary, "Corporate Secretary"),
		Dewi:      create("dewi", "Dewi Lestari", model.RoleUnit, "Keuangan"),
		Budi:      create("budi", "Budi Santoso", model.RoleUnit, "Operasional"),
		Rina:      create("rina", "Rina Wijaya", model.RoleUnit, "SDM"),
	}
}
