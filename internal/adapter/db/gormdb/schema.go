package gormdb

import (
	"time"

	"gorm.io/gorm"

	"user-reputation-service/internal/domain/rating"
	"user-reputation-service/internal/domain/role"
	"user-reputation-service/internal/domain/user"
)

// UserSchema represents the database schema for the users table.
// Roles holds the canonical JSON array produced by role.Set.Canonical.
type UserSchema struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Email       string     `gorm:"size:180;not null;uniqueIndex"`
	Name        string     `gorm:"size:100;not null"`
	PhoneNumber string     `gorm:"size:20;not null"`
	Password    string     `gorm:"size:255;not null"`
	Roles       string     `gorm:"size:64;not null;index"`
	IsBlocked   bool       `gorm:"not null;default:false;index"`
	IsVerified  bool       `gorm:"not null;default:false"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	LastLoginAt *time.Time `gorm:"index"`
	Image       *string    `gorm:"size:255"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// RatingSchema represents the database schema for the ratings table.
// The composite unique index is what makes "one rating per pair" hold under concurrency.
type RatingSchema struct {
	ID        int64      `gorm:"primaryKey;autoIncrement"`
	RaterID   int64      `gorm:"not null;uniqueIndex:idx_ratings_rater_ratee,priority:1"`
	RateeID   int64      `gorm:"not null;uniqueIndex:idx_ratings_rater_ratee,priority:2;index"`
	Stars     int        `gorm:"not null;check:chk_ratings_stars,stars >= 1 AND stars <= 5"`
	Comment   *string    `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"not null;index"`
	Rater     UserSchema `gorm:"foreignKey:RaterID;constraint:OnDelete:CASCADE"`
	Ratee     UserSchema `gorm:"foreignKey:RateeID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the RatingSchema model.
func (RatingSchema) TableName() string {
	return "ratings"
}

// Migrate creates or updates every table owned by this package.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{}, &RatingSchema{})
}

func toUserSchema(u *user.User) UserSchema {
	return UserSchema{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Password:    u.PasswordHash,
		Roles:       u.Roles.Canonical(),
		IsBlocked:   u.IsBlocked,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
		Image:       u.Image,
	}
}

func (m UserSchema) toDomain() (*user.User, error) {
	roles, err := role.ParseCanonical(m.Roles)
	if err != nil {
		return nil, err
	}
	return &user.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PhoneNumber:  m.PhoneNumber,
		PasswordHash: m.Password,
		Roles:        roles,
		IsBlocked:    m.IsBlocked,
		IsVerified:   m.IsVerified,
		CreatedAt:    m.CreatedAt,
		LastLoginAt:  m.LastLoginAt,
		Image:        m.Image,
	}, nil
}

func (m RatingSchema) toDomain() rating.Rating {
	r := rating.Rating{
		ID:        m.ID,
		RaterID:   m.RaterID,
		RateeID:   m.RateeID,
		RaterName: m.Rater.Name,
		RateeName: m.Ratee.Name,
		Stars:     m.Stars,
		CreatedAt: m.CreatedAt,
	}
	if m.Comment != nil {
		r.Comment = *m.Comment
	}
	return r
}
