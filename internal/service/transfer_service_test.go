package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"freezer-inventory/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func newTransferFixture() (*transferService, *mockItemRepository, *mockCategoryRepository) {
	categories := newMockCategoryRepository()
	items := newMockItemRepository(categories)
	svc := NewTransferService(items, categories, NewCodeGenerator(), 180, 5, zap.NewNop()).(*transferService)
	svc.now = fixedClock(testNow)
	return svc, items, categories
}

func TestTransferService_ImportCreatesUnknownCategories(t *testing.T) {
	svc, items, categories := newTransferFixture()
	ctx := context.Background()
	categories.seed("Fish", intPtr(180), true)

	result, err := svc.Import(ctx, userCaller, []ItemRecord{
		{Code: "FSH001", Name: "Salmon", Category: "Fish"},
		{Code: "VEN001", Name: "Venison", Category: "Game"},
		{Code: "VEN002", Name: "Elk", Category: "Game"},
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Imported != 3 || result.Skipped != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	game, err := categories.FindByName(ctx, "Game")
	if err != nil {
		t.Fatalf("expected Game category to be created: %v", err)
	}
	if game.DefaultExpirationDays == nil || *game.DefaultExpirationDays != 180 || game.IsSystem {
		t.Errorf("unexpected auto-created category: %+v", game)
	}
	if len(categories.categories) != 2 {
		t.Errorf("expected exactly one new category, have %d", len(categories.categories))
	}

	elk, _ := items.FindByCode(ctx, "VEN002")
	if elk == nil || elk.CategoryID == nil || *elk.CategoryID != game.ID {
		t.Errorf("expected Elk in Game, got %+v", elk)
	}
}

func TestTransferService_ImportRegeneratesCollidingCodes(t *testing.T) {
	svc, items, _ := newTransferFixture()
	ctx := context.Background()

	result, err := svc.Import(ctx, userCaller, []ItemRecord{
		{Code: "ABC123", Name: "Peas"},
		{Code: "ABC123", Name: "Corn"},
		{Name: "Beans"},
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Imported != 3 {
		t.Fatalf("expected 3 imported, got %+v", result)
	}

	corn, err := items.List(ctx, domain.ItemFilter{Search: "Corn"})
	if err != nil || len(corn) != 1 {
		t.Fatalf("expected Corn to be stored: %v", err)
	}
	if corn[0].Code == "ABC123" || !validCodeFormat(corn[0].Code) {
		t.Errorf("expected regenerated code, got %q", corn[0].Code)
	}
}

func TestTransferService_ImportIsBestEffort(t *testing.T) {
	svc, _, _ := newTransferFixture()

	records := []ItemRecord{{Name: "Good"}}
	for i := 0; i < 12; i++ {
		records = append(records, ItemRecord{Name: ""})
	}
	records = append(records,
		ItemRecord{Name: "Bad UPC", ProductCode: "12345"},
		ItemRecord{Name: "Bad status", Status: "eaten"},
		ItemRecord{Name: "Also good"},
	)

	result, err := svc.Import(context.Background(), userCaller, records)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("expected 2 imported, got %d", result.Imported)
	}
	if result.Skipped != 14 {
		t.Errorf("expected 14 skipped, got %d", result.Skipped)
	}
	if len(result.Errors) != MaxImportErrors {
		t.Errorf("expected errors capped at %d, got %d", MaxImportErrors, len(result.Errors))
	}
	if !strings.HasPrefix(result.Errors[0], "row 2: ") {
		t.Errorf("expected row-numbered message, got %q", result.Errors[0])
	}
}

func TestTransferService_ImportKeepsRemovedDateInvariant(t *testing.T) {
	svc, items, _ := newTransferFixture()
	ctx := context.Background()

	_, err := svc.Import(ctx, userCaller, []ItemRecord{
		{Code: "EAT001", Name: "Eaten", Status: "consumed", RemovedDate: "2024-02-02"},
		{Code: "EAT002", Name: "Eaten later", Status: "thrown_out"},
		{Code: "KEP001", Name: "Kept", Status: "in_freezer", RemovedDate: "2024-02-02"},
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	eaten, _ := items.FindByCode(ctx, "EAT001")
	if eaten.RemovedDate == nil || !eaten.RemovedDate.Equal(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected stored removed date, got %v", eaten.RemovedDate)
	}
	later, _ := items.FindByCode(ctx, "EAT002")
	if later.RemovedDate == nil || !later.RemovedDate.Equal(testNow) {
		t.Errorf("expected removed date to default to now, got %v", later.RemovedDate)
	}
	kept, _ := items.FindByCode(ctx, "KEP001")
	if kept.RemovedDate != nil {
		t.Errorf("in-freezer items must not carry a removed date, got %v", kept.RemovedDate)
	}
}

func TestTransferService_ExportFiltersByStatus(t *testing.T) {
	svc, _, _ := newTransferFixture()
	ctx := context.Background()

	if _, err := svc.Import(ctx, userCaller, []ItemRecord{
		{Name: "Newer", AddedDate: "2024-02-01"},
		{Name: "Older", AddedDate: "2024-01-01"},
		{Name: "Gone", AddedDate: "2024-01-15", Status: "consumed"},
	}); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	all, err := svc.Export(ctx, userCaller, "")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Older" || all[2].Name != "Newer" {
		t.Errorf("expected all items oldest first, got %+v", all)
	}

	inFreezer, err := svc.Export(ctx, userCaller, "in_freezer")
	if err != nil || len(inFreezer) != 2 {
		t.Errorf("expected 2 in-freezer records, got %d, %v", len(inFreezer), err)
	}

	if _, err := svc.Export(ctx, userCaller, "eaten"); err != ErrInvalidStatus {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func genRecord() gopter.Gen {
	return gopter.CombineGens(
		gen.RegexMatch(`^[A-Za-z][A-Za-z ]{0,20}$`),
		gen.OneConstOf("", "Fish", "Beef", "Snacks"),
		gen.OneConstOf("", "Costco", "Garden"),
		gen.OneConstOf("in_freezer", "consumed", "thrown_out"),
		gen.IntRange(0, 1000),
		gen.Bool(),
		gen.RegexMatch(`^\d{12}$`),
	).Map(func(values []interface{}) ItemRecord {
		added := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(values[4].(int)) * time.Hour)
		record := ItemRecord{
			Name:       values[0].(string),
			Category:   values[1].(string),
			Source:     values[2].(string),
			Status:     values[3].(string),
			WeightUnit: "lb",
			AddedDate:  added.Format(time.RFC3339Nano),
		}
		if values[5].(bool) {
			weight := float64(values[4].(int)) / 10
			record.Weight = &weight
			record.ProductCode = values[6].(string)
			record.ExpirationDate = added.AddDate(0, 0, 90).Format(time.RFC3339Nano)
			record.Notes = "note " + values[0].(string)
		}
		if record.Status != "in_freezer" {
			record.RemovedDate = added.Add(48 * time.Hour).Format(time.RFC3339Nano)
		}
		return record
	})
}

func sameRecord(a, b ItemRecord) bool {
	if (a.Weight == nil) != (b.Weight == nil) || (a.Weight != nil && *a.Weight != *b.Weight) {
		return false
	}
	a.Weight, b.Weight = nil, nil
	a.Code, b.Code = "", ""
	return a == b
}

// Feature: freezer-inventory, Property: export then import into an empty store reproduces the items
func TestProperty_ExportImportRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("round trip preserves count and field values", prop.ForAll(
		func(records []ItemRecord) bool {
			ctx := context.Background()
			source, _, _ := newTransferFixture()

			for i := range records {
				records[i].Code = fmt.Sprintf("RT%04d", i)
			}
			if result, err := source.Import(ctx, adminCaller, records); err != nil || result.Imported != len(records) {
				t.Logf("FAIL: seeding import: %+v %v", result, err)
				return false
			}

			exported, err := source.Export(ctx, adminCaller, domain.StatusFilterAll)
			if err != nil {
				return false
			}

			target, _, _ := newTransferFixture()
			result, err := target.Import(ctx, adminCaller, exported)
			if err != nil || result.Imported != len(exported) {
				t.Logf("FAIL: round trip import: %+v %v", result, err)
				return false
			}

			reexported, err := target.Export(ctx, adminCaller, domain.StatusFilterAll)
			if err != nil || len(reexported) != len(exported) {
				return false
			}

			byCode := map[string]ItemRecord{}
			for _, r := range reexported {
				byCode[r.Code] = r
			}
			for _, r := range exported {
				other, ok := byCode[r.Code]
				if !ok || !sameRecord(r, other) {
					t.Logf("FAIL: %+v != %+v", r, other)
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, genRecord()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
