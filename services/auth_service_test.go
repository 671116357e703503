package services

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"famstore/config"
	"famstore/models"
	"famstore/utils"

	"gorm.io/gorm"
)

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	usersByID    map[string]models.User
	usersByEmail map[string]models.User
	countByEmail map[string]int64
	getByIDErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		usersByID:    map[string]models.User{},
		usersByEmail: map[string]models.User{},
		countByEmail: map[string]int64{},
	}
}

func (r *fakeUserRepo) add(user models.User) {
	r.usersByID[user.ID] = user
	r.usersByEmail[user.Email] = user
}

func (r *fakeUserRepo) CountByEmail(_ context.Context, email string) (int64, error) {
	if c, ok := r.countByEmail[email]; ok {
		return c, nil
	}
	if _, ok := r.usersByEmail[email]; ok {
		return 1, nil
	}
	return 0, nil
}

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, user *models.User) error {
	r.add(*user)
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (models.User, error) {
	user, ok := r.usersByEmail[email]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ *gorm.DB, userID string) (models.User, error) {
	if r.getByIDErr != nil {
		return models.User{}, r.getByIDErr
	}
	user, ok := r.usersByID[userID]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

type fakeItemRepo struct {
	items     map[string]models.Item
	createErr error
	updateErr error
	deleteErr error
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: map[string]models.Item{}}
}

func (r *fakeItemRepo) Create(_ context.Context, _ *gorm.DB, item *models.Item) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.items[item.ID] = *item
	return nil
}

func (r *fakeItemRepo) GetByIDAndOwner(_ context.Context, _ *gorm.DB, itemID string, ownerID string) (models.Item, error) {
	item, ok := r.items[itemID]
	if !ok || item.OwnerID != ownerID {
		return models.Item{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

// ListByParent applies the same ordering as the MySQL repository
// (kind DESC, name ASC), byte-wise rather than collated.
func (r *fakeItemRepo) ListByParent(_ context.Context, _ *gorm.DB, ownerID string, parentID string) ([]models.Item, error) {
	out := make([]models.Item, 0)
	for _, item := range r.items {
		if item.OwnerID != ownerID || item.ParentID == nil || *item.ParentID != parentID {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind > out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *fakeItemRepo) CountByParentAndName(_ context.Context, _ *gorm.DB, ownerID string, parentID string, name string, excludeID string) (int64, error) {
	var count int64
	for _, item := range r.items {
		if item.OwnerID != ownerID || item.ID == excludeID || item.Name != name {
			continue
		}
		if item.ParentID != nil && *item.ParentID == parentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeItemRepo) UpdateByIDAndOwner(_ context.Context, _ *gorm.DB, itemID string, ownerID string, updates map[string]interface{}) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	item, ok := r.items[itemID]
	if !ok || item.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		item.Name = name
	}
	if ts, ok := updates["updated_at"].(time.Time); ok {
		item.UpdatedAt = ts
	}
	r.items[itemID] = item
	return nil
}

func (r *fakeItemRepo) DeleteByIDsAndOwner(_ context.Context, _ *gorm.DB, ownerID string, itemIDs []string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for _, id := range itemIDs {
		if item, ok := r.items[id]; ok && item.OwnerID == ownerID {
			delete(r.items, id)
		}
	}
	return nil
}

func TestAuthServiceRegisterCreatesRootFolder(t *testing.T) {
	config.AppConfig = &config.Config{}

	users := newFakeUserRepo()
	items := newFakeItemRepo()
	svc := NewAuthService(fakeTxManager{}, users, items)

	out, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if out.ID == "" || out.RootFolderID == "" {
		t.Fatalf("expected ids to be assigned, got %+v", out)
	}

	root, ok := items.items[out.RootFolderID]
	if !ok {
		t.Fatalf("expected root folder row to exist")
	}
	if root.OwnerID != out.ID || root.Kind != models.ItemKindFolder || root.Name != "Home" {
		t.Fatalf("unexpected root folder: %+v", root)
	}
	if root.ParentID != nil {
		t.Fatalf("root folder must have no parent")
	}

	stored := users.usersByID[out.ID]
	if stored.Password == "secret123" || stored.Password == "" {
		t.Fatalf("password must be stored hashed")
	}
	if stored.RootFolderID != root.ID {
		t.Fatalf("user root pointer %q does not match root folder %q", stored.RootFolderID, root.ID)
	}
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	config.AppConfig = &config.Config{}

	users := newFakeUserRepo()
	users.countByEmail["taken@example.com"] = 1
	svc := NewAuthService(fakeTxManager{}, users, newFakeItemRepo())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "taken@example.com",
		Username: "bob",
		Password: "secret123",
	})
	if err == nil {
		t.Fatalf("expected conflict error")
	}
	appErr, ok := err.(*AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.HTTPCode != 409 {
		t.Fatalf("expected HTTP 409, got %d", appErr.HTTPCode)
	}
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	config.AppConfig = &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireHours: 1}}

	users := newFakeUserRepo()
	hash, err := utils.HashPassword("correct-password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	users.add(models.User{
		ID:           "user-1",
		Email:        "bob@example.com",
		Username:     "bob",
		Password:     hash,
		RootFolderID: "root-1",
		IsActive:     true,
		CreatedAt:    time.Now(),
	})

	svc := NewAuthService(fakeTxManager{}, users, newFakeItemRepo())
	_, err = svc.Login(context.Background(), LoginInput{Email: "bob@example.com", Password: "wrong"})
	if err == nil {
		t.Fatalf("expected unauthorized error")
	}
	appErr, ok := err.(*AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.HTTPCode != 401 {
		t.Fatalf("expected HTTP 401, got %d", appErr.HTTPCode)
	}
}

func TestAuthServiceLoginAndProfile(t *testing.T) {
	config.AppConfig = &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireHours: 1}}

	users := newFakeUserRepo()
	items := newFakeItemRepo()
	svc := NewAuthService(fakeTxManager{}, users, items)

	reg, err := svc.Register(context.Background(), RegisterInput{
		Email:    "carol@example.com",
		Username: "carol",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	out, err := svc.Login(context.Background(), LoginInput{Email: "carol@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if out.Token == "" {
		t.Fatalf("expected a token")
	}
	claims, err := utils.ParseToken(out.Token)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.UserID != reg.ID {
		t.Fatalf("token subject %q, want %q", claims.UserID, reg.ID)
	}

	profile, err := svc.GetProfile(context.Background(), reg.ID)
	if err != nil {
		t.Fatalf("profile returned error: %v", err)
	}
	if profile.Email != "carol@example.com" || !strings.EqualFold(profile.Username, "carol") {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.RootFolderID != reg.RootFolderID {
		t.Fatalf("profile root %q, want %q", profile.RootFolderID, reg.RootFolderID)
	}
}
