package repository

import (
	"context"
	"errors"
	"testing"

	"freezer-inventory/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSettingRepository_GetMissing(t *testing.T) {
	resetTables(t)
	repo := NewSettingRepository(testGorm)

	_, err := repo.Get(context.Background(), domain.SystemScope(), domain.SettingNoAuthMode)
	if !errors.Is(err, ErrSettingNotFound) {
		t.Fatalf("expected ErrSettingNotFound, got %v", err)
	}
}

func TestSettingRepository_ScopesAreIsolated(t *testing.T) {
	resetTables(t)
	repo := NewSettingRepository(testGorm)
	ctx := context.Background()

	alice := domain.UserScope(uuid.New())
	bob := domain.UserScope(uuid.New())

	if err := repo.Upsert(ctx, alice, map[string]string{domain.SettingTrackHistory: "false"}); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}
	if err := repo.Upsert(ctx, domain.SystemScope(), map[string]string{domain.SettingTrackHistory: "true"}); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	got, err := repo.Get(ctx, alice, domain.SettingTrackHistory)
	if err != nil || got.Value != "false" {
		t.Errorf("expected alice's value false, got %v, %v", got, err)
	}

	system, err := repo.Get(ctx, domain.SystemScope(), domain.SettingTrackHistory)
	if err != nil || system.Value != "true" || system.UserID != nil {
		t.Errorf("unexpected system setting %+v, %v", system, err)
	}

	if _, err := repo.Get(ctx, bob, domain.SettingTrackHistory); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("expected bob to have no stored value, got %v", err)
	}
}

func TestSettingRepository_ListOrdersByName(t *testing.T) {
	resetTables(t)
	repo := NewSettingRepository(testGorm)
	ctx := context.Background()
	scope := domain.UserScope(uuid.New())

	err := repo.Upsert(ctx, scope, map[string]string{
		domain.SettingUseDesktopInterface: "true",
		domain.SettingEnableImageFetching: "false",
	})
	if err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	settings, err := repo.List(ctx, scope)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(settings) != 2 || settings[0].Name != domain.SettingEnableImageFetching {
		t.Errorf("unexpected settings: %+v", settings)
	}
}

// Feature: freezer-inventory, Property: at most one value per scope and name
func TestProperty_UpsertKeepsOneValuePerScopeAndName(t *testing.T) {
	repo := NewSettingRepository(testGorm)

	properties := gopter.NewProperties(nil)

	properties.Property("repeated writes leave a single row holding the last value", prop.ForAll(
		func(values []string, system bool) bool {
			resetTables(t)
			ctx := context.Background()

			scope := domain.UserScope(uuid.New())
			if system {
				scope = domain.SystemScope()
			}

			for _, v := range values {
				if err := repo.Upsert(ctx, scope, map[string]string{"custom": v}); err != nil {
					t.Logf("FAIL: upsert failed: %v", err)
					return false
				}
			}

			var count int
			if err := testDB.QueryRow("SELECT COUNT(*) FROM settings WHERE setting_name = 'custom'").Scan(&count); err != nil {
				t.Logf("FAIL: count failed: %v", err)
				return false
			}

			got, err := repo.Get(ctx, scope, "custom")
			if err != nil {
				t.Logf("FAIL: get failed: %v", err)
				return false
			}
			return count == 1 && got.Value == values[len(values)-1]
		},
		gen.SliceOfN(3, gen.RegexMatch(`^[a-z0-9]{1,10}$`)),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
