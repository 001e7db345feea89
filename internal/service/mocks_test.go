package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"freezer-inventory/internal/domain"
	"freezer-inventory/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing

type mockItemRepository struct {
	items      map[uuid.UUID]*domain.Item
	order      []uuid.UUID
	categories *mockCategoryRepository
	lastFilter domain.ItemFilter
}

func newMockItemRepository(categories *mockCategoryRepository) *mockItemRepository {
	repo := &mockItemRepository{
		items:      make(map[uuid.UUID]*domain.Item),
		categories: categories,
	}
	if categories != nil {
		categories.items = repo
	}
	return repo
}

func copyItem(item *domain.Item) *domain.Item {
	c := *item
	return &c
}

func (m *mockItemRepository) withCategoryName(item *domain.Item) *domain.Item {
	c := copyItem(item)
	c.CategoryName = nil
	if c.CategoryID != nil && m.categories != nil {
		if category, ok := m.categories.categories[*c.CategoryID]; ok {
			name := category.Name
			c.CategoryName = &name
		}
	}
	return c
}

func (m *mockItemRepository) Create(ctx context.Context, item *domain.Item) error {
	for _, existing := range m.items {
		if existing.Code == item.Code {
			return repository.ErrItemCodeAlreadyExists
		}
	}
	m.items[item.ID] = copyItem(item)
	m.order = append(m.order, item.ID)
	return nil
}

func (m *mockItemRepository) Update(ctx context.Context, item *domain.Item) error {
	if _, ok := m.items[item.ID]; !ok {
		return repository.ErrItemNotFound
	}
	m.items[item.ID] = copyItem(item)
	return nil
}

func (m *mockItemRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ItemStatus, removedDate *time.Time, updatedAt time.Time) (*domain.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	item.Status = status
	item.RemovedDate = removedDate
	item.UpdatedAt = updatedAt
	return m.withCategoryName(item), nil
}

func (m *mockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return repository.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return m.withCategoryName(item), nil
}

func (m *mockItemRepository) FindByCode(ctx context.Context, code string) (*domain.Item, error) {
	for _, item := range m.items {
		if item.Code == code {
			return m.withCategoryName(item), nil
		}
	}
	return nil, repository.ErrItemNotFound
}

func (m *mockItemRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := m.FindByCode(ctx, code)
	return err == nil, nil
}

func containsFold(s *string, term string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), strings.ToLower(term))
}

func (m *mockItemRepository) List(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, error) {
	m.lastFilter = filter

	items := []*domain.Item{}
	for _, id := range m.order {
		item, ok := m.items[id]
		if !ok {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if term := strings.TrimSpace(filter.Search); term != "" {
			name := item.Name
			if !containsFold(&name, term) && !containsFold(item.Source, term) && !containsFold(item.Notes, term) {
				continue
			}
		}
		if filter.CategoryID != nil && (item.CategoryID == nil || *item.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.AddedFrom != nil && item.AddedDate.Before(*filter.AddedFrom) {
			continue
		}
		if filter.AddedTo != nil && item.AddedDate.After(*filter.AddedTo) {
			continue
		}
		if filter.RequireExpiring && item.ExpirationDate == nil {
			continue
		}
		if filter.ExpiringBefore != nil && (item.ExpirationDate == nil || item.ExpirationDate.After(*filter.ExpiringBefore)) {
			continue
		}
		items = append(items, m.withCategoryName(item))
	}

	less := func(a, b *domain.Item) (bool, bool) {
		switch filter.SortBy {
		case domain.SortByName:
			return a.Name < b.Name, a.Name == b.Name
		case domain.SortByExpirationDate:
			if a.ExpirationDate == nil || b.ExpirationDate == nil {
				return false, a.ExpirationDate == nil && b.ExpirationDate == nil
			}
			return a.ExpirationDate.Before(*b.ExpirationDate), a.ExpirationDate.Equal(*b.ExpirationDate)
		default:
			return a.AddedDate.Before(b.AddedDate), a.AddedDate.Equal(b.AddedDate)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if filter.SortBy == domain.SortByExpirationDate && (a.ExpirationDate == nil) != (b.ExpirationDate == nil) {
			return b.ExpirationDate == nil
		}
		lt, eq := less(a, b)
		if eq {
			return false
		}
		if filter.SortOrder == domain.SortOrderAsc {
			return lt
		}
		return !lt
	})

	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (m *mockItemRepository) DeleteByStatuses(ctx context.Context, statuses []domain.ItemStatus) (int64, error) {
	var deleted int64
	for id, item := range m.items {
		for _, s := range statuses {
			if item.Status == s {
				delete(m.items, id)
				deleted++
				break
			}
		}
	}
	return deleted, nil
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
	items      *mockItemRepository
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

// seed stores a category directly, bypassing service rules
func (m *mockCategoryRepository) seed(name string, days *int, system bool) *domain.Category {
	category := &domain.Category{
		ID:                    uuid.New(),
		Name:                  name,
		DefaultExpirationDays: days,
		IsSystem:              system,
	}
	m.categories[category.ID] = category
	return category
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, existing := range m.categories {
		if existing.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	c := *category
	m.categories[category.ID] = &c
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	for id, existing := range m.categories {
		if id != category.ID && existing.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	c := *category
	m.categories[category.ID] = &c
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, c := range m.categories {
		copied := *c
		categories = append(categories, &copied)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	c := *category
	return &c, nil
}

func (m *mockCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	for _, category := range m.categories {
		if category.Name == name {
			c := *category
			return &c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) CountItems(ctx context.Context, id uuid.UUID) (int, error) {
	if m.items == nil {
		return 0, nil
	}
	count := 0
	for _, item := range m.items.items {
		if item.CategoryID != nil && *item.CategoryID == id {
			count++
		}
	}
	return count, nil
}

type mockSettingRepository struct {
	values map[string]map[string]string
}

func newMockSettingRepository() *mockSettingRepository {
	return &mockSettingRepository{values: make(map[string]map[string]string)}
}

func (m *mockSettingRepository) Get(ctx context.Context, scope domain.SettingScope, name string) (*domain.Setting, error) {
	value, ok := m.values[scope.String()][name]
	if !ok {
		return nil, repository.ErrSettingNotFound
	}
	setting := &domain.Setting{Name: name, Value: value}
	if userID, ok := scope.UserID(); ok {
		setting.UserID = &userID
	}
	return setting, nil
}

func (m *mockSettingRepository) List(ctx context.Context, scope domain.SettingScope) ([]*domain.Setting, error) {
	settings := []*domain.Setting{}
	for name := range m.values[scope.String()] {
		setting, _ := m.Get(ctx, scope, name)
		settings = append(settings, setting)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Name < settings[j].Name })
	return settings, nil
}

func (m *mockSettingRepository) Upsert(ctx context.Context, scope domain.SettingScope, values map[string]string) error {
	key := scope.String()
	if m.values[key] == nil {
		m.values[key] = make(map[string]string)
	}
	for name, value := range values {
		m.values[key][name] = value
	}
	return nil
}

// sequenceCodeGenerator replays fixed codes, then fails over to random ones
type sequenceCodeGenerator struct {
	codes []string
	calls int
}

func (g *sequenceCodeGenerator) Generate() (string, error) {
	g.calls++
	if len(g.codes) == 0 {
		return NewCodeGenerator().Generate()
	}
	code := g.codes[0]
	g.codes = g.codes[1:]
	return code, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func timestampPtr(t time.Time) *domain.Timestamp {
	ts := domain.Timestamp(t)
	return &ts
}

var (
	adminCaller = domain.Caller{UserID: uuid.New(), Role: domain.RoleAdmin}
	userCaller  = domain.Caller{UserID: uuid.New(), Role: domain.RoleUser}
)
