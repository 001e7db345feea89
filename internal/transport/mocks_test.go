package transport

import (
	"context"
	"net/http"

	"freezer-inventory/internal/domain"
	"freezer-inventory/internal/middleware"
	"freezer-inventory/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type mockCategoryService struct {
	categories map[uuid.UUID]*domain.Category
	err        error
	lastCreate service.CreateCategoryInput
	lastUpdate service.UpdateCategoryInput
}

func newMockCategoryService() *mockCategoryService {
	return &mockCategoryService{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryService) Create(ctx context.Context, caller domain.Caller, input service.CreateCategoryInput) (*domain.Category, error) {
	m.lastCreate = input
	if m.err != nil {
		return nil, m.err
	}
	category := &domain.Category{ID: uuid.New(), Name: input.Name, DefaultExpirationDays: input.DefaultExpirationDays.Value}
	m.categories[category.ID] = category
	return category, nil
}

func (m *mockCategoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	category, ok := m.categories[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return category, nil
}

func (m *mockCategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	list := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		list = append(list, c)
	}
	return list, nil
}

func (m *mockCategoryService) Update(ctx context.Context, caller domain.Caller, id uuid.UUID, input service.UpdateCategoryInput) (*domain.Category, error) {
	m.lastUpdate = input
	if m.err != nil {
		return nil, m.err
	}
	category, ok := m.categories[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	if input.Name.Value != nil {
		category.Name = *input.Name.Value
	}
	return category, nil
}

func (m *mockCategoryService) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	delete(m.categories, id)
	return nil
}

type mockItemService struct {
	items       map[uuid.UUID]*domain.Item
	err         error
	lastQuery   domain.ItemQuery
	lastDays    *int
	lastLimit   *int
	lastStatus  string
	lastCreate  service.CreateItemInput
	purgedCount int64
}

func newMockItemService() *mockItemService {
	return &mockItemService{items: make(map[uuid.UUID]*domain.Item)}
}

func (m *mockItemService) add(item *domain.Item) *domain.Item {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	m.items[item.ID] = item
	return item
}

func (m *mockItemService) Create(ctx context.Context, caller domain.Caller, input service.CreateItemInput) (*domain.Item, error) {
	m.lastCreate = input
	if m.err != nil {
		return nil, m.err
	}
	return m.add(&domain.Item{Code: "ABC123", Name: input.Name, Status: domain.StatusInFreezer}), nil
}

func (m *mockItemService) Get(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return item, nil
}

func (m *mockItemService) GetByCode(ctx context.Context, code string) (*domain.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, item := range m.items {
		if item.Code == code {
			return item, nil
		}
	}
	return nil, service.ErrNotFound
}

func (m *mockItemService) Update(ctx context.Context, caller domain.Caller, id uuid.UUID, input service.UpdateItemInput) (*domain.Item, error) {
	item, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name.Value != nil {
		item.Name = *input.Name.Value
	}
	return item, nil
}

func (m *mockItemService) SetStatus(ctx context.Context, caller domain.Caller, id uuid.UUID, status string) (*domain.Item, error) {
	m.lastStatus = status
	item, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.ItemStatus(status).IsValid() {
		return nil, service.ErrInvalidStatus
	}
	item.Status = domain.ItemStatus(status)
	return item, nil
}

func (m *mockItemService) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if !caller.IsAdmin() {
		return service.ErrForbidden
	}
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	delete(m.items, id)
	return nil
}

func (m *mockItemService) List(ctx context.Context, caller domain.Caller, query domain.ItemQuery) ([]*domain.Item, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	list := []*domain.Item{}
	for _, item := range m.items {
		list = append(list, item)
	}
	return list, nil
}

func (m *mockItemService) ExpiringSoon(ctx context.Context, days *int) ([]*domain.Item, error) {
	m.lastDays = days
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.Item{}, nil
}

func (m *mockItemService) Oldest(ctx context.Context, limit *int) ([]*domain.Item, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.Item{}, nil
}

func (m *mockItemService) PurgeHistory(ctx context.Context, caller domain.Caller) (int64, error) {
	if !caller.IsAdmin() {
		return 0, service.ErrForbidden
	}
	return m.purgedCount, nil
}

type mockSettingService struct {
	stored    map[string]map[string]string
	lastScope domain.SettingScope
	lastSet   map[string]any
}

func newMockSettingService() *mockSettingService {
	return &mockSettingService{stored: make(map[string]map[string]string)}
}

func (m *mockSettingService) authorize(caller domain.Caller, scope domain.SettingScope) error {
	if caller.IsAdmin() {
		return nil
	}
	if id, ok := scope.UserID(); ok && id == caller.UserID {
		return nil
	}
	return service.ErrForbidden
}

func (m *mockSettingService) Get(ctx context.Context, caller domain.Caller, scope domain.SettingScope, name string) (string, error) {
	all, err := m.GetAll(ctx, caller, scope)
	if err != nil {
		return "", err
	}
	return all[name], nil
}

func (m *mockSettingService) GetAll(ctx context.Context, caller domain.Caller, scope domain.SettingScope) (map[string]string, error) {
	m.lastScope = scope
	if err := m.authorize(caller, scope); err != nil {
		return nil, err
	}
	result := map[string]string{}
	for k, v := range domain.DefaultSettings {
		result[k] = v
	}
	for k, v := range m.stored[scope.String()] {
		result[k] = v
	}
	return result, nil
}

func (m *mockSettingService) Set(ctx context.Context, caller domain.Caller, scope domain.SettingScope, name, value string) error {
	_, err := m.SetMany(ctx, caller, scope, map[string]any{name: value})
	return err
}

func (m *mockSettingService) SetMany(ctx context.Context, caller domain.Caller, scope domain.SettingScope, values map[string]any) (map[string]string, error) {
	m.lastScope = scope
	m.lastSet = values
	if err := m.authorize(caller, scope); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, &service.ValidationError{Field: "settings", Message: "no settings provided"}
	}
	if m.stored[scope.String()] == nil {
		m.stored[scope.String()] = map[string]string{}
	}
	written := map[string]string{}
	for k, v := range values {
		written[k] = toString(v)
		m.stored[scope.String()][k] = written[k]
	}
	return written, nil
}

func (m *mockSettingService) TrackHistory(ctx context.Context, userID uuid.UUID) (bool, error) {
	return true, nil
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case interface{ String() string }:
		return s.String()
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

type mockTransferService struct {
	records      []service.ItemRecord
	lastStatus   string
	lastImported []service.ItemRecord
}

func (m *mockTransferService) Export(ctx context.Context, caller domain.Caller, status string) ([]service.ItemRecord, error) {
	m.lastStatus = status
	if status != "" && status != domain.StatusFilterAll && !domain.ItemStatus(status).IsValid() {
		return nil, service.ErrInvalidStatus
	}
	return m.records, nil
}

func (m *mockTransferService) Import(ctx context.Context, caller domain.Caller, records []service.ItemRecord) (*service.ImportResult, error) {
	m.lastImported = records
	return &service.ImportResult{Imported: len(records), Errors: []string{}}, nil
}

var (
	adminCaller = domain.Caller{UserID: uuid.MustParse("00000000-0000-0000-0000-0000000000a1"), Role: domain.RoleAdmin}
	userCaller  = domain.Caller{UserID: uuid.MustParse("00000000-0000-0000-0000-0000000000b2"), Role: domain.RoleUser}
)

// newTestRouter stands in for the JWT middleware by injecting caller directly
func newTestRouter(caller *domain.Caller, register func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	if caller != nil {
		c := *caller
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithCaller(req.Context(), c)))
			})
		})
	}
	register(r)
	return r
}
