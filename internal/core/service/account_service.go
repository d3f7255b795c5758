package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/task-api/internal/api/metrics"
	"github.com/taskhub/task-api/internal/core/domain"
	"github.com/taskhub/task-api/internal/core/ports"
)

// DefaultBcryptCost is used when the configured cost is out of bcrypt's range.
const DefaultBcryptCost = 8

// Fields accepted by UpdateProfile.
var profileFields = []string{"name", "email", "password", "age"}

var photoExtensions = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}}

// AccountOptions holds the tunables of AccountService.
type AccountOptions struct {
	BcryptCost    int
	MaxPhotoBytes int
}

// AccountService implements registration, login, session management and
// profile maintenance.
type AccountService struct {
	users   ports.UserRepository
	tasks   ports.TaskRepository
	tokens  ports.TokenService
	avatars ports.AvatarProcessor
	limiter ports.LoginLimiter  // optional
	sweeper ports.OrphanSweeper // optional
	opts    AccountOptions
	logger  zerolog.Logger
	now     func() time.Time
}

func NewAccountService(
	users ports.UserRepository,
	tasks ports.TaskRepository,
	tokens ports.TokenService,
	avatars ports.AvatarProcessor,
	opts AccountOptions,
	logger zerolog.Logger,
) *AccountService {
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		opts.BcryptCost = DefaultBcryptCost
	}
	if opts.MaxPhotoBytes <= 0 {
		opts.MaxPhotoBytes = 1_000_000
	}
	return &AccountService{
		users:   users,
		tasks:   tasks,
		tokens:  tokens,
		avatars: avatars,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// WithLoginLimiter enables failed-login throttling.
func (s *AccountService) WithLoginLimiter(l ports.LoginLimiter) *AccountService {
	s.limiter = l
	return s
}

// WithOrphanSweeper enables the asynchronous re-sweep after account deletion.
func (s *AccountService) WithOrphanSweeper(sw ports.OrphanSweeper) *AccountService {
	s.sweeper = sw
	return s
}

// Register validates and stores a new user, then opens its first session.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, string, error) {
	name, err := domain.NormalizeName(in.Name)
	if err != nil {
		return nil, "", err
	}
	email, err := domain.NormalizeEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	password, err := domain.NormalizePassword(in.Password)
	if err != nil {
		return nil, "", err
	}
	if err := domain.ValidateAge(in.Age); err != nil {
		return nil, "", err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Age:          in.Age,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to issue token after registration")
		return nil, "", err
	}
	user.Tokens = append(user.Tokens, token)

	metrics.UsersRegisteredTotal.Inc()
	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return user, token, nil
}

// Login checks credentials and opens a new session. Unknown email and wrong
// password produce the same domain.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return nil, "", domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, email)
		if err != nil {
			s.logger.Warn().Err(err).Msg("login throttle check failed, continuing")
		} else if !ok {
			metrics.LoginsTotal.WithLabelValues("throttled").Inc()
			return nil, "", domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", err
		}
		s.loginFailed(ctx, email)
		return nil, "", domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(password))) != nil {
		s.loginFailed(ctx, email)
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	user.Tokens = append(user.Tokens, token)

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return user, token, nil
}

func (s *AccountService) loginFailed(ctx context.Context, email string) {
	metrics.LoginsTotal.WithLabelValues("failed").Inc()
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record login failure")
	}
}

// Logout revokes the token the request was authenticated with.
func (s *AccountService) Logout(ctx context.Context, user *domain.User, token string) error {
	if err := s.tokens.Revoke(ctx, user.ID, token); err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("one").Inc()
	return nil
}

// LogoutAll revokes every session of the user.
func (s *AccountService) LogoutAll(ctx context.Context, user *domain.User) error {
	if err := s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("all").Inc()
	return nil
}

// UpdateProfile applies an allow-listed partial update. A single key outside
// the allow-list rejects the whole request before anything is decoded.
func (s *AccountService) UpdateProfile(ctx context.Context, user *domain.User, fields ports.Fields) (*domain.User, error) {
	if bad := fields.Disallowed(profileFields...); len(bad) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidField, strings.Join(bad, ", "))
	}

	update, err := s.decodeProfile(fields)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return user, nil
	}
	return s.users.Update(ctx, user.ID, update)
}

func (s *AccountService) decodeProfile(fields ports.Fields) (domain.UserUpdate, error) {
	var update domain.UserUpdate

	if raw, ok := fields["name"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return update, &domain.ValidationError{Field: "name", Reason: "must be a string"}
		}
		name, err := domain.NormalizeName(name)
		if err != nil {
			return update, err
		}
		update.Name = &name
	}

	if raw, ok := fields["email"]; ok {
		var email string
		if err := json.Unmarshal(raw, &email); err != nil {
			return update, &domain.ValidationError{Field: "email", Reason: "must be a string"}
		}
		email, err := domain.NormalizeEmail(email)
		if err != nil {
			return update, err
		}
		update.Email = &email
	}

	if raw, ok := fields["password"]; ok {
		var password string
		if err := json.Unmarshal(raw, &password); err != nil {
			return update, &domain.ValidationError{Field: "password", Reason: "must be a string"}
		}
		password, err := domain.NormalizePassword(password)
		if err != nil {
			return update, err
		}
		hash, err := s.hash(password)
		if err != nil {
			return update, err
		}
		update.PasswordHash = &hash
	}

	if raw, ok := fields["age"]; ok {
		var age *int
		if err := json.Unmarshal(raw, &age); err != nil {
			return update, &domain.ValidationError{Field: "age", Reason: "must be an integer"}
		}
		if age == nil {
			update.ClearAge = true
		} else {
			if err := domain.ValidateAge(age); err != nil {
				return update, err
			}
			update.Age = age
		}
	}

	return update, nil
}

// DeleteAccount removes the user's tasks and then the user. If the tasks
// cannot be removed the user is kept and domain.ErrCascadeIncomplete is
// returned so the client can retry without leaving orphans behind.
func (s *AccountService) DeleteAccount(ctx context.Context, user *domain.User) error {
	removed, err := s.tasks.DeleteByOwner(ctx, user.ID)
	if err != nil {
		metrics.AccountDeletionsTotal.WithLabelValues("cascade_failed").Inc()
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to delete account tasks")
		return fmt.Errorf("%w: %w", domain.ErrCascadeIncomplete, err)
	}
	metrics.TasksDeletedTotal.WithLabelValues("cascade").Add(float64(removed))

	if err := s.users.Delete(ctx, user.ID); err != nil {
		metrics.AccountDeletionsTotal.WithLabelValues("user_failed").Inc()
		s.logger.Error().Err(err).Str("user_id", user.ID).Int64("tasks_removed", removed).Msg("failed to delete user")
		return err
	}

	// Requests that were in flight between the two steps may still have
	// created tasks for this owner.
	if s.sweeper != nil {
		s.sweeper.Enqueue(user.ID)
	}

	metrics.AccountDeletionsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Str("user_id", user.ID).Int64("tasks_removed", removed).Msg("account deleted")
	return nil
}

// SetPhoto validates, resizes and stores a new avatar.
func (s *AccountService) SetPhoto(ctx context.Context, user *domain.User, upload ports.PhotoUpload) (*domain.User, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if _, ok := photoExtensions[ext]; !ok {
		return nil, &domain.ValidationError{Field: "avatar", Reason: "file extension should be one of: jpg, jpeg, png"}
	}
	if len(upload.Data) == 0 {
		return nil, &domain.ValidationError{Field: "avatar", Reason: "file is empty"}
	}
	if len(upload.Data) > s.opts.MaxPhotoBytes {
		return nil, &domain.ValidationError{Field: "avatar", Reason: fmt.Sprintf("file must not exceed %d bytes", s.opts.MaxPhotoBytes)}
	}

	photo, err := s.avatars.Process(upload.Data)
	if err != nil {
		return nil, err
	}
	return s.users.SetPhoto(ctx, user.ID, photo)
}

// Photo returns the stored avatar of any user.
func (s *AccountService) Photo(ctx context.Context, userID string) ([]byte, error) {
	if err := domain.ValidateID(userID); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrPhotoNotFound
		}
		return nil, err
	}
	if len(user.Photo) == 0 {
		return nil, domain.ErrPhotoNotFound
	}
	return user.Photo, nil
}

// DeletePhoto removes the user's avatar.
func (s *AccountService) DeletePhoto(ctx context.Context, user *domain.User) (*domain.User, error) {
	return s.users.SetPhoto(ctx, user.ID, nil)
}

func (s *AccountService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
