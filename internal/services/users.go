package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/auth"
	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

type UserService struct {
	users UserRepository
	now   func() time.Time
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

// NormalizeMobile strips separators and keeps a leading plus.
func NormalizeMobile(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", invalid(CodeInvalidMobile, "mobile")
		}
	}
	mobile := b.String()
	digits := strings.TrimPrefix(mobile, "+")
	if len(digits) < 8 || len(digits) > 15 {
		return "", invalid(CodeInvalidMobile, "mobile")
	}
	return mobile, nil
}

// normalizeEmail keeps the bare address. An empty value clears the email.
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", invalid(CodeInvalidEmail, "email")
	}
	return addr.Address, nil
}

// Register creates a donor account.
func (s *UserService) Register(ctx context.Context, fullName, mobile, password string) (*models.User, error) {
	return s.create(ctx, fullName, mobile, password, models.RoleUser)
}

// Provision creates an account with any role, for admins setting up staff.
func (s *UserService) Provision(ctx context.Context, fullName, mobile, password string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, invalid(CodeInvalidRole, "role")
	}
	return s.create(ctx, fullName, mobile, password, role)
}

func (s *UserService) create(ctx context.Context, fullName, mobile, password string, role models.Role) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, invalid(CodeMissingField, "fullname")
	}
	mobile, err := NormalizeMobile(mobile)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, invalid(CodeWeakPassword, "password")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		FullName:  fullName,
		Mobile:    mobile,
		HPassword: hash,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, invalid(CodeMobileTaken, "mobile")
		}
		log.Printf("Failed to create user: %v", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("User created: id=%s role=%s", user.ID.Hex(), user.Role)
	return user, nil
}

// Login checks the mobile and password pair.
func (s *UserService) Login(ctx context.Context, mobile, password string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	mobile, err := NormalizeMobile(mobile)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(password, user.HPassword); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Profile retrieves a user by their ID
func (s *UserService) Profile(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.users.GetByID(ctx, id)
}

// UpdateProfile edits self-service fields. Totals, points and role are not
// reachable from here.
func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, invalid(CodeMissingField, "fullname")
		}
		upd.FullName = &name
	}
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &email
	}
	if upd.IBAN != nil {
		iban := strings.ToUpper(strings.ReplaceAll(*upd.IBAN, " ", ""))
		upd.IBAN = &iban
	}
	user, err := s.users.UpdateProfile(ctx, id, upd)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("Failed to update profile %s: %v", id.Hex(), err)
		}
		return nil, err
	}
	return user, nil
}

// PublicDonors lists opted-in donors by total, 20 by default.
func (s *UserService) PublicDonors(ctx context.Context, limit int) ([]models.PublicDonor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.users.ListPublicDonors(ctx, limit)
}
