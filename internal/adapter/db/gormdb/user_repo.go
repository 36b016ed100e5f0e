package gormdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"user-reputation-service/internal/domain/role"
	"user-reputation-service/internal/domain/user"
	pkgerrors "user-reputation-service/pkg/errors"
)

// UserRepo implements the user store on top of GORM. It works unchanged on every
// dialect DialectFor knows about.
type UserRepo struct {
	db      *gorm.DB
	dialect Dialect
	log     *zap.Logger
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(db *gorm.DB, dialect Dialect, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, dialect: dialect, log: log}
}

// Create inserts a new user. A taken email yields ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := toUserSchema(u)
	model.ID = 0
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Debug("email already registered", zap.String("email", u.Email))
			return 0, pkgerrors.ErrEmailTaken
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return 0, pkgerrors.NewStorageError("create user", err)
	}

	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	r.log.Info("user created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// ReplaceByEmail removes any account using u.Email, along with its ratings, and inserts u.
func (r *UserRepo) ReplaceByEmail(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := toUserSchema(u)
	model.ID = 0
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []int64
		if err := tx.Model(&UserSchema{}).Where("email = ?", u.Email).Pluck("id", &existing).Error; err != nil {
			return err
		}
		for _, id := range existing {
			if err := deleteUserTx(tx, id); err != nil {
				return err
			}
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		r.log.Error("failed to replace user in db", zap.Error(err), zap.String("email", u.Email))
		return 0, pkgerrors.NewStorageError("replace user", err)
	}

	u.ID = model.ID
	r.log.Info("user replaced in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// GetByID retrieves a user by id. A missing row yields a NotFoundError.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, userNotFound(id)
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, pkgerrors.NewStorageError("get user", err)
	}

	return r.decode(model)
}

// GetByEmail retrieves a user by email. It returns nil, nil when nobody uses the address.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, pkgerrors.NewStorageError("get user by email", err)
	}

	return r.decode(model)
}

// Update writes every mutable field of u. CreatedAt is never touched.
// Callers load the user first; a missing row is not reported.
func (r *UserRepo) Update(ctx context.Context, u *user.User) error {
	if u == nil {
		return errors.New("user cannot be nil")
	}
	return r.update(r.db.WithContext(ctx), u)
}

// UpdateWithLock loads the user inside a transaction, holding a row lock where the
// dialect supports one, lets fn mutate it and persists the result. Nothing is written
// when fn fails.
func (r *UserRepo) UpdateWithLock(ctx context.Context, id int64, fn func(u *user.User) error) (*user.User, error) {
	var updated *user.User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if r.dialect.Name() != DialectSQLite {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var model UserSchema
		if err := q.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return userNotFound(id)
			}
			return pkgerrors.NewStorageError("lock user", err)
		}

		u, err := r.decode(model)
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
		if err := r.update(tx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("user updated in db", zap.Int64("id", id))
	return updated, nil
}

// RecordLogin stamps the last successful authentication.
func (r *UserRepo) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&UserSchema{}).Where("id = ?", id).Update("last_login_at", at.UTC()).Error
	if err != nil {
		r.log.Error("failed to record login", zap.Error(err), zap.Int64("id", id))
		return pkgerrors.NewStorageError("record login", err)
	}
	return nil
}

// Delete removes a user and every rating the user gave or received.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid user id")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteUserTx(tx, id)
	})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return err
		}
		r.log.Error("failed to delete user in db", zap.Error(err), zap.Int64("id", id))
		return pkgerrors.NewStorageError("delete user", err)
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// List returns one page of users matching f together with the total match count.
// A zero f.Limit returns every match.
func (r *UserRepo) List(ctx context.Context, f user.ListFilter) ([]user.User, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		r.log.Error("failed to count users", zap.Error(err), zap.String("search", f.Search))
		return nil, 0, pkgerrors.NewStorageError("count users", err)
	}

	q := r.filtered(ctx, f)
	switch f.OrderBy {
	case user.OrderNameAsc:
		q = q.Order("name ASC").Order("id ASC")
	default:
		q = q.Order("created_at DESC").Order("id DESC")
	}
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset(int((page - 1) * f.Limit)).Limit(int(f.Limit))
	}

	var models []UserSchema
	if err := q.Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err), zap.String("search", f.Search),
			zap.Int64("page", f.Page), zap.Int64("limit", f.Limit))
		return nil, 0, pkgerrors.NewStorageError("list users", err)
	}

	users := make([]user.User, 0, len(models))
	for _, m := range models {
		u, err := r.decode(m)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}

	return users, total, nil
}

// Counts summarises the users table for the general statistics.
func (r *UserRepo) Counts(ctx context.Context) (user.Counts, error) {
	var c user.Counts
	db := r.db.WithContext(ctx).Model(&UserSchema{})

	if err := db.Session(&gorm.Session{}).Count(&c.Total).Error; err != nil {
		return c, pkgerrors.NewStorageError("count users", err)
	}
	if err := db.Session(&gorm.Session{}).Where("is_blocked = ?", false).Count(&c.Active).Error; err != nil {
		return c, pkgerrors.NewStorageError("count active users", err)
	}
	if err := db.Session(&gorm.Session{}).Where("is_blocked = ?", true).Count(&c.Blocked).Error; err != nil {
		return c, pkgerrors.NewStorageError("count blocked users", err)
	}
	err := db.Session(&gorm.Session{}).
		Where("roles LIKE ? OR roles LIKE ?", role.Pattern(role.Admin), role.Pattern(role.SuperAdmin)).
		Count(&c.Admins).Error
	if err != nil {
		return c, pkgerrors.NewStorageError("count admins", err)
	}

	return c, nil
}

// filtered builds the WHERE part shared by the count and the page query.
func (r *UserRepo) filtered(ctx context.Context, f user.ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&UserSchema{})

	if f.ExcludeID != 0 {
		q = q.Where("id <> ?", f.ExcludeID)
	}
	if len(f.ExcludeIDs) > 0 {
		q = q.Where("id NOT IN ?", f.ExcludeIDs)
	}

	switch f.Scope {
	case user.ScopePureClients:
		q = q.Where("roles IN ?", storedForms(role.NewSet(role.Client)))
	case user.ScopeNonAdmins:
		q = q.Where("roles NOT LIKE ? AND roles NOT LIKE ?", role.Pattern(role.Admin), role.Pattern(role.SuperAdmin))
	}

	if !f.Exact.IsEmpty() {
		q = q.Where("roles IN ?", storedForms(f.Exact))
	}

	if f.Role != nil {
		if *f.Role == role.Client {
			q = q.Where("(roles LIKE ? OR roles IN ?)", role.Pattern(role.Client), []string{"[]", ""})
		} else {
			q = q.Where("roles LIKE ?", role.Pattern(*f.Role))
		}
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		arg := r.dialect.ContainsArg(search)
		q = q.Where("("+r.dialect.ContainsFold("email")+" OR "+r.dialect.ContainsFold("name")+")", arg, arg)
	}

	return q
}

func (r *UserRepo) update(db *gorm.DB, u *user.User) error {
	res := db.Model(&UserSchema{}).Where("id = ?", u.ID).Updates(map[string]any{
		"email":         u.Email,
		"name":          u.Name,
		"phone_number":  u.PhoneNumber,
		"password":      u.PasswordHash,
		"roles":         u.Roles.Canonical(),
		"is_blocked":    u.IsBlocked,
		"is_verified":   u.IsVerified,
		"last_login_at": u.LastLoginAt,
		"image":         u.Image,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return pkgerrors.ErrEmailTaken
		}
		r.log.Error("failed to update user in db", zap.Error(res.Error), zap.Int64("id", u.ID))
		return pkgerrors.NewStorageError("update user", res.Error)
	}
	return nil
}

func (r *UserRepo) decode(m UserSchema) (*user.User, error) {
	u, err := m.toDomain()
	if err != nil {
		r.log.Error("corrupt role set in db", zap.Error(err), zap.Int64("id", m.ID))
		return nil, pkgerrors.NewStorageError("decode user", err)
	}
	return u, nil
}

// deleteUserTx removes the ratings on both ends before the user row, so the result
// is the same whether or not the backend enforces the foreign keys.
func deleteUserTx(tx *gorm.DB, id int64) error {
	if err := tx.Where("rater_id = ? OR ratee_id = ?", id, id).Delete(&RatingSchema{}).Error; err != nil {
		return err
	}
	res := tx.Delete(&UserSchema{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return userNotFound(id)
	}
	return nil
}

// storedForms lists every stored value that reads back as s.
func storedForms(s role.Set) []string {
	forms := []string{s.Canonical()}
	if s.IsPureClient() {
		forms = append(forms, "[]", "")
	}
	return forms
}

func userNotFound(id int64) error {
	return pkgerrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
}
