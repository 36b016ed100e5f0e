package user

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"user-reputation-service/internal/domain/role"
	domain "user-reputation-service/internal/domain/user"
	pkgerrors "user-reputation-service/pkg/errors"
	"user-reputation-service/pkg/security"
)

// ListVisibleUsers returns the accounts the requester may list, never including the
// requester. A SUPER_ADMIN sees everyone else, an ADMIN sees only pure clients and a
// CLIENT may not list accounts at all.
func (uc *Usecase) ListVisibleUsers(ctx context.Context, requester *domain.User, in ListUsersRequest) (*ListUsersResponse, error) {
	if err := requireRequester(requester); err != nil {
		return nil, err
	}
	if err := role.Authorize(requester.Roles, role.ActionList, 0); err != nil {
		return nil, uc.deny(requester, role.ActionList, err)
	}

	f, err := uc.baseFilter(requester, in.Search, in.Page, in.Limit)
	if err != nil {
		return nil, err
	}
	if requester.Level() < role.LevelSuperAdmin {
		f.Scope = domain.ScopePureClients
	}

	if tag := strings.TrimSpace(in.Role); tag != "" {
		r, err := role.Parse(tag)
		if err != nil {
			return nil, pkgerrors.NewValidationError("Role", err.Error())
		}
		f.Role = &r
	}
	if tag := strings.TrimSpace(in.RestrictToRole); tag != "" {
		r, err := role.Parse(tag)
		if err != nil {
			return nil, pkgerrors.NewValidationError("RestrictToRole", err.Error())
		}
		f.Exact = role.NewSet(r)
	}
	if strings.EqualFold(in.OrderBy, "name") {
		f.OrderBy = domain.OrderNameAsc
	}

	uc.log.Debug("listing visible users",
		zap.Int64("requester_id", requester.ID),
		zap.Int("scope", int(f.Scope)),
		zap.String("search", f.Search),
		zap.Int64("page", f.Page),
		zap.Int64("limit", f.Limit))

	return uc.list(ctx, f)
}

// FindRateableUsers returns the users the requester may rate: pure clients other than
// the requester, or with ExcludeAdmins every user holding neither ADMIN nor SUPER_ADMIN.
// With OnlyUnrated, users the requester already rated are dropped as well.
func (uc *Usecase) FindRateableUsers(ctx context.Context, requester *domain.User, in RateableUsersRequest) (*ListUsersResponse, error) {
	if err := requireRequester(requester); err != nil {
		return nil, err
	}

	f, err := uc.baseFilter(requester, in.Search, in.Page, in.Limit)
	if err != nil {
		return nil, err
	}
	f.Scope = domain.ScopePureClients
	if in.ExcludeAdmins {
		f.Scope = domain.ScopeNonAdmins
	}
	f.OrderBy = domain.OrderNameAsc

	if in.OnlyUnrated {
		rated, err := uc.RatedUserIDs(ctx, requester)
		if err != nil {
			return nil, err
		}
		f.ExcludeIDs = rated
	}

	return uc.list(ctx, f)
}

// RatedUserIDs returns the ids of every user the requester has already rated.
func (uc *Usecase) RatedUserIDs(ctx context.Context, requester *domain.User) ([]int64, error) {
	if err := requireRequester(requester); err != nil {
		return nil, err
	}
	ids, err := uc.rated.RatedIDs(ctx, requester.ID)
	if err != nil {
		uc.log.Error("failed to load rated users", zap.Int64("requester_id", requester.ID), zap.Error(err))
		return nil, err
	}
	return ids, nil
}

func (uc *Usecase) baseFilter(requester *domain.User, search string, page, limit int64) (domain.ListFilter, error) {
	query, err := security.ValidateSearchQuery(search)
	if err != nil {
		uc.log.Warn("invalid search query", zap.String("query", search), zap.Error(err))
		return domain.ListFilter{}, pkgerrors.NewValidationError("Search", "invalid search query: "+err.Error())
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = uc.opts.DefaultPageSize
	}
	if limit > uc.opts.MaxPageSize {
		limit = uc.opts.MaxPageSize
	}

	return domain.ListFilter{
		ExcludeID: requester.ID,
		Search:    query,
		Page:      page,
		Limit:     limit,
	}, nil
}

func (uc *Usecase) list(ctx context.Context, f domain.ListFilter) (*ListUsersResponse, error) {
	found, total, err := uc.repo.List(ctx, f)
	if err != nil {
		uc.log.Error("failed to list users", zap.String("search", f.Search), zap.Error(err))
		return nil, err
	}

	users := make([]User, len(found))
	for i := range found {
		users[i] = ToDTO(&found[i])
	}

	return &ListUsersResponse{
		Users:      users,
		Pagination: domain.NewPagination(total, f.Page, f.Limit),
	}, nil
}
