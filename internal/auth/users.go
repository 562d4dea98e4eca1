package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"riy-server/internal/models"
	"riy-server/internal/waste"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already in use")
	ErrPhoneTaken         = errors.New("phone number already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// ProfileInput fields left empty are not changed.
type ProfileInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Users manages accounts. Points and items recycled are never written here;
// they belong to the ledger.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", invalid("email %q is not valid", email)
	}
	return email, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (u *Users) taken(ctx context.Context, column, value string, exceptID uint) (bool, error) {
	var n int64
	err := u.db.WithContext(ctx).Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (u *Users) checkUnique(ctx context.Context, email, phone string, exceptID uint) error {
	if email != "" {
		taken, err := u.taken(ctx, "email", email, exceptID)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
	}
	if phone != "" {
		taken, err := u.taken(ctx, "phone", phone, exceptID)
		if err != nil {
			return err
		}
		if taken {
			return ErrPhoneTaken
		}
	}
	return nil
}

// uniqueViolation maps a unique index error from a write that lost a race
// with a concurrent one onto ErrEmailTaken or ErrPhoneTaken.
func (u *Users) uniqueViolation(ctx context.Context, err error, email, phone string, exceptID uint) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if cerr := u.checkUnique(ctx, email, phone, exceptID); cerr != nil {
		return cerr
	}
	if email != "" {
		return ErrEmailTaken
	}
	return ErrPhoneTaken
}

// Register creates a user with zero points and zero items recycled.
func (u *Users) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(in.Phone)
	if email == "" && phone == "" {
		return nil, invalid("email or phone is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalid("password must be at least %d characters", MinPasswordLength)
	}
	if err := u.checkUnique(ctx, email, phone, 0); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Name:         name,
		Email:        optional(email),
		Phone:        optional(phone),
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := u.db.WithContext(ctx).Omit("points", "items_recycled").Create(user).Error; err != nil {
		return nil, u.uniqueViolation(ctx, err, email, phone, 0)
	}
	return user, nil
}

// Authenticate finds the user by email or phone and checks the password.
func (u *Users) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, invalid("email or phone and password are required")
	}

	var user models.User
	err := u.db.WithContext(ctx).
		Where("email = ? OR phone = ?", strings.ToLower(identifier), identifier).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (u *Users) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, waste.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *Users) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	user, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(in.Name); name != "" {
		updates["name"] = name
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if email != "" && (user.Email == nil || *user.Email != email) {
		updates["email"] = email
	} else {
		email = ""
	}
	phone := strings.TrimSpace(in.Phone)
	if phone != "" && (user.Phone == nil || *user.Phone != phone) {
		updates["phone"] = phone
	} else {
		phone = ""
	}
	if in.Password != "" {
		if len(in.Password) < MinPasswordLength {
			return nil, invalid("password must be at least %d characters", MinPasswordLength)
		}
		hash, err := HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updates["password_hash"] = hash
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := u.checkUnique(ctx, email, phone, id); err != nil {
		return nil, err
	}

	if err := u.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, u.uniqueViolation(ctx, err, email, phone, id)
	}
	return u.Get(ctx, id)
}

// List returns every user, newest first.
func (u *Users) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := u.db.WithContext(ctx).Order("id DESC").Find(&users).Error
	return users, err
}

// PromoteAdmin gives the admin role to the user registered with email. It
// reports false when no such user exists yet.
func (u *Users) PromoteAdmin(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}
	res := u.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Update("role", models.RoleAdmin)
	return res.RowsAffected > 0, res.Error
}
