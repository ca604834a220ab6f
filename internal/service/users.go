package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
	"github.com/wolfeidau/tracker/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CreateUserInput holds the fields of a new user. OrgID defaults to the
// actor's organization and must be nil for super admins.
type CreateUserInput struct {
	OrgID    *uuid.UUID
	Email    string
	Name     string
	Password string
	Role     models.Role
}

// UpdateUserInput holds optional user changes. The organization of a user
// cannot be changed.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *models.Role
	Active   *bool
	Password *string
}

func userOrg(u *models.User) uuid.UUID {
	if u.OrgID == nil {
		return uuid.Nil
	}
	return *u.OrgID
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", apperr.New(apperr.KindValidationFailed, "a valid email address is required")
	}
	return email, nil
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := auth.HashPassword(password, cost)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return "", apperr.Wrap(apperr.KindValidationFailed, err, "%s", err.Error())
	}
	return hash, err
}

// CreateUser creates a user. Only super admins may create super admins.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	actor, err := precheck(ctx, auth.ActUserCreate, auth.ResourceUser)
	if err != nil {
		return nil, err
	}

	if !in.Role.Valid() {
		return nil, apperr.New(apperr.KindValidationFailed, "invalid role %q", in.Role)
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}

	var orgID *uuid.UUID
	if in.Role == models.RoleSuperAdmin {
		if !actor.IsSuperAdmin() {
			return nil, apperr.New(apperr.KindPermissionDenied, "only a super admin can create a super admin")
		}
		if in.OrgID != nil {
			return nil, apperr.New(apperr.KindValidationFailed, "super admin users do not belong to an organization")
		}
	} else {
		id, err := targetOrg(actor, in.OrgID)
		if err != nil {
			return nil, err
		}
		if err := auth.Require(ctx, auth.ActUserCreate, auth.On(auth.ResourceOrganization, id)); err != nil {
			return nil, err
		}
		orgID = &id
	}

	// hashed outside the transaction, which may be retried
	hash, err := hashPassword(in.Password, s.cfg.PasswordCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		UserID:       newID(),
		OrgID:        orgID,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.write(ctx, "CreateUser", func(ctx context.Context, tx store.Tx) error {
		if orgID != nil {
			if _, err := tx.Organizations().Get(ctx, *orgID); err != nil {
				return err
			}
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", user.UserID.String()).
		Str("role", string(user.Role)).
		Msg("Created user")

	return user, nil
}

// GetUser returns a user. Users outside the actor's organization are
// reported as not found.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if _, err := precheck(ctx, auth.ActUserRead, auth.ResourceUser); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.read(ctx, "GetUser", func(ctx context.Context, tx store.Tx) error {
		var err error
		user, err = tx.Users().Get(ctx, userID)
		if err != nil {
			return err
		}
		return auth.Require(ctx, auth.ActUserRead, auth.On(auth.ResourceUser, userOrg(user)))
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsers returns the users visible to the actor.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	actor, err := precheck(ctx, auth.ActUserList, auth.ResourceUser)
	if err != nil {
		return nil, err
	}

	var users []*models.User
	err = s.read(ctx, "ListUsers", func(ctx context.Context, tx store.Tx) error {
		var err error
		users, err = tx.Users().List(ctx, auth.ScopeFilter(actor))
		return err
	})
	if err != nil {
		return nil, err
	}

	return auth.FilterInScope(actor, users, userOrg), nil
}

// UpdateUser changes a user's profile, role, password or active flag.
// Roles cannot be changed to or from super admin.
func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, in UpdateUserInput) (*models.User, error) {
	if _, err := precheck(ctx, auth.ActUserUpdate, auth.ResourceUser); err != nil {
		return nil, err
	}

	var (
		name, email, hash string
		err               error
	)
	if in.Name != nil {
		if name, err = required("name", *in.Name); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if email, err = normalizeEmail(*in.Email); err != nil {
			return nil, err
		}
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, apperr.New(apperr.KindValidationFailed, "invalid role %q", *in.Role)
	}
	if in.Password != nil {
		if hash, err = hashPassword(*in.Password, s.cfg.PasswordCost); err != nil {
			return nil, err
		}
	}

	var user *models.User
	err = s.write(ctx, "UpdateUser", func(ctx context.Context, tx store.Tx) error {
		var err error
		user, err = tx.Users().Get(ctx, userID)
		if err != nil {
			return err
		}
		if err := auth.Require(ctx, auth.ActUserUpdate, auth.On(auth.ResourceUser, userOrg(user))); err != nil {
			return err
		}

		if in.Role != nil && *in.Role != user.Role {
			if *in.Role == models.RoleSuperAdmin || user.IsSuperAdmin() {
				return apperr.New(apperr.KindValidationFailed, "super admin users have no organization, the role cannot be changed to or from super admin")
			}
			user.Role = *in.Role
		}
		if in.Name != nil {
			user.Name = name
		}
		if in.Email != nil {
			user.Email = email
		}
		if in.Active != nil {
			user.Active = *in.Active
		}
		if in.Password != nil {
			user.PasswordHash = hash
		}

		return tx.Users().Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteUser removes a user and unassigns every ticket assigned to them.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	actor, err := precheck(ctx, auth.ActUserDelete, auth.ResourceUser)
	if err != nil {
		return err
	}

	if actor.UserID == userID {
		return apperr.New(apperr.KindValidationFailed, "users cannot delete themselves")
	}

	return s.write(ctx, "DeleteUser", func(ctx context.Context, tx store.Tx) error {
		user, err := tx.Users().Get(ctx, userID)
		if err != nil {
			return err
		}
		if err := auth.Require(ctx, auth.ActUserDelete, auth.On(auth.ResourceUser, userOrg(user))); err != nil {
			return err
		}

		if err := tx.Tickets().ClearAssignee(ctx, userID); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, userID)
	})
}

// Authenticate checks an email and password and returns the matching user.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		user      *models.User
		orgActive = true
	)
	err := s.read(ctx, "Authenticate", func(ctx context.Context, tx store.Tx) error {
		var err error
		user, err = tx.Users().GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user.OrgID != nil {
			org, err := tx.Organizations().Get(ctx, *user.OrgID)
			if err != nil {
				return err
			}
			orgActive = org.Active
		}
		return nil
	})

	result := "success"
	defer func() {
		telemetry.GetMetrics().LoginAttemptsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("result", result)))
	}()

	if err != nil {
		if apperr.KindOf(err) != apperr.KindNotFound {
			result = "error"
			return nil, err
		}
		s.checkPassword(s.dummyHash, password)
		result = "invalid"
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}

	hash := user.PasswordHash
	if hash == "" {
		hash = s.dummyHash
	}
	if !s.checkPassword(hash, password) || user.PasswordHash == "" {
		result = "invalid"
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}

	if !auth.ActorFromUser(user, orgActive).Active {
		result = "inactive"
		return nil, apperr.New(apperr.KindAccountInactive, "account inactive")
	}

	return user, nil
}

// ResolveActor loads the current state of userID as an actor.
func (s *Service) ResolveActor(ctx context.Context, userID uuid.UUID) (*auth.Actor, error) {
	var actor *auth.Actor
	err := s.read(ctx, "ResolveActor", func(ctx context.Context, tx store.Tx) error {
		user, err := tx.Users().Get(ctx, userID)
		if err != nil {
			return err
		}

		orgActive := true
		if user.OrgID != nil {
			org, err := tx.Organizations().Get(ctx, *user.OrgID)
			if err != nil {
				return err
			}
			orgActive = org.Active
		}

		actor = auth.ActorFromUser(user, orgActive)
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Wrap(apperr.KindUnauthenticated, err, "unknown user")
		}
		return nil, err
	}

	return actor, nil
}
