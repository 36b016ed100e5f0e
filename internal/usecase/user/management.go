package user

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"user-reputation-service/internal/domain/role"
	domain "user-reputation-service/internal/domain/user"
	pkgerrors "user-reputation-service/pkg/errors"
)

// CreateUser creates an account on behalf of an administrator. The requested roles
// must all be assignable by the requester. Admin-created accounts are verified.
func (uc *Usecase) CreateUser(ctx context.Context, requester *domain.User, in CreateUserRequest) (*User, error) {
	if err := requireRequester(requester); err != nil {
		return nil, err
	}
	uc.log.Info("creating user", zap.Int64("requester_id", requester.ID), zap.String("email", in.Email))

	if err := uc.checkStruct(in); err != nil {
		return nil, err
	}
	if err := uc.checkName(in.Name); err != nil {
		return nil, err
	}
	roles, err := parseRoles(in.Roles)
	if err != nil {
		return nil, err
	}
	if err := role.Authorize(requester.Roles, role.ActionCreate, roles); err != nil {
		return nil, uc.deny(requester, role.ActionCreate, err)
	}

	hash, err := uc.hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		Roles:        roles,
		IsVerified:   true,
	}
	if _, err := uc.repo.Create(ctx, u); err != nil {
		uc.log.Error("failed to create user", zap.String("email", u.Email), zap.Error(err))
		return nil, err
	}

	uc.observer.RolesAssigned(roles)
	out := ToDTO(u)
	return &out, nil
}

// UpdateUser edits another account. The target row is locked for the duration of
// the permission check and the write, so a concurrent role change cannot slip in between.
func (uc *Usecase) UpdateUser(ctx context.Context, requester *domain.User, in UpdateUserRequest) (*User, error) {
	if err := requireRequester(requester); err != nil {
		return nil, err
	}
	uc.log.Info("updating user", zap.Int64("requester_id", requester.ID), zap.Int64("id", in.ID))

	if err := uc.checkStruct(in); err != nil {
		return nil, err
	}
	if in.Name != nil {
		if err := uc.checkName(*in.Name); err != nil {
			return nil, err
		}
	}

	var newRoles role.Set
	if in.Roles != nil {
		parsed, err := parseRoles(in.Roles)
		if err != nil {
			return nil, err
		}
		newRoles = parsed
	}

	var hash string
	if in.Password != nil {
		h, err := uc.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	rolesChanged := false
	updated, err := uc.repo.UpdateWithLock(ctx, in.ID, func(target *domain.User) error {
		if err := role.Authorize(requester.Roles, role.ActionUpdate, target.Roles); err != nil {
			return uc.deny(requester, role.ActionUpdate, err)
		}
		if in.Roles != nil && newRoles != target.EffectiveRoles() {
			if err := role.AuthorizeAssign(requester.Roles, newRoles); err != nil {
				return uc.deny(requester, role.ActionUpdate, err)
			}
			target.Roles = newRoles
			rolesChanged = true
		}

		if in.Email != nil {
			target.Email = strings.ToLower(strings.TrimSpace(*in.Email))
		}
		applyProfile(target, in.Name, in.PhoneNumber, in.Image, hash)
		return nil
	})
	if err != nil {
		if !pkgerrors.IsPermissionDenied(err) {
			uc.log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		}
		return nil, err
	}

	if rolesChanged {
		uc.log.Info("roles changed", zap.Int64("id", in.ID), zap.String("roles", updated.Roles.String()))
		uc.observer.RolesAssigned(updated.Roles)
	}
	out := ToDTO(updated)
	return &out, nil
}

// UpdateProfile lets any authenticated user edit their own name, phone, avatar and password.
func (uc *Usecase) UpdateProfile(ctx context.Context, requester *domain.User, in UpdateProfileRequest) (*User, error) {
	if err := requireRequester(requester); err != nil {
		return nil, err
	}
	if err := uc.checkStruct(in); err != nil {
		return nil, err
	}
	if in.Name != nil {
		if err := uc.checkName(*in.Name); err != nil {
			return nil, err
		}
	}

	var hash string
	if in.Password != nil {
		h, err := uc.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	updated, err := uc.repo.UpdateWithLock(ctx, requester.ID, func(self *domain.User) error {
		applyProfile(self, in.Name, in.PhoneNumber, in.Image, hash)
		return nil
	})
	if err != nil {
		uc.log.Error("failed to update profile", zap.Int64("id", requester.ID), zap.Error(err))
		return nil, err
	}

	out := ToDTO(updated)
	return &out, nil
}

// DeleteUser removes an account and its ratings once the confirmation token matches.
func (uc *Usecase) DeleteUser(ctx context.Context, requester *domain.User, in DeleteUserRequest) error {
	if err := requireRequester(requester); err != nil {
		return err
	}
	uc.log.Info("deleting user", zap.Int64("requester_id", requester.ID), zap.Int64("id", in.ID))

	if err := uc.checkStruct(in); err != nil {
		return err
	}
	if in.ID == requester.ID {
		return uc.deny(requester, role.ActionDelete, pkgerrors.NewPermissionDeniedError("you cannot delete your own account"))
	}

	target, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		return err
	}
	if err := role.Authorize(requester.Roles, role.ActionDelete, target.Roles); err != nil {
		return uc.deny(requester, role.ActionDelete, err)
	}
	if in.ConfirmationToken != DeleteConfirmationToken(in.ID) {
		return pkgerrors.NewValidationError("ConfirmationToken", "confirmation token does not match")
	}

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		uc.log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return err
	}
	return nil
}

// SetBlocked blocks or unblocks an account. Blocked users cannot log in and are
// never counted as active.
func (uc *Usecase) SetBlocked(ctx context.Context, requester *domain.User, in BlockUserRequest) (*User, error) {
	if err := requireRequester(requester); err != nil {
		return nil, err
	}
	if err := uc.checkStruct(in); err != nil {
		return nil, err
	}
	if in.ID == requester.ID {
		return nil, uc.deny(requester, role.ActionBlock, pkgerrors.NewPermissionDeniedError("you cannot block your own account"))
	}

	updated, err := uc.repo.UpdateWithLock(ctx, in.ID, func(target *domain.User) error {
		if err := role.Authorize(requester.Roles, role.ActionBlock, target.Roles); err != nil {
			return uc.deny(requester, role.ActionBlock, err)
		}
		target.IsBlocked = in.Blocked
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info("block state changed", zap.Int64("id", in.ID), zap.Bool("blocked", in.Blocked))
	out := ToDTO(updated)
	return &out, nil
}

// GetUser returns an account the requester may see: their own, or one they manage.
func (uc *Usecase) GetUser(ctx context.Context, requester *domain.User, in GetUserRequest) (*User, error) {
	if err := requireRequester(requester); err != nil {
		return nil, err
	}
	if in.ID <= 0 {
		return nil, pkgerrors.NewValidationError("ID", "invalid user id")
	}

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if u.ID != requester.ID {
		if err := role.Authorize(requester.Roles, role.ActionView, u.Roles); err != nil {
			return nil, uc.deny(requester, role.ActionView, err)
		}
	}

	out := ToDTO(u)
	return &out, nil
}

func applyProfile(u *domain.User, name, phone, image *string, passwordHash string) {
	if name != nil {
		u.Name = strings.TrimSpace(*name)
	}
	if phone != nil {
		u.PhoneNumber = *phone
	}
	if image != nil {
		if *image == "" {
			u.Image = nil
		} else {
			img := *image
			u.Image = &img
		}
	}
	if passwordHash != "" {
		u.PasswordHash = passwordHash
	}
}
