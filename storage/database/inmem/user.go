package inmemdb

import (
	"cmp"
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if strings.EqualFold(usr.Email, email) && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	err := repo.db.write(exec, func() error {
		for _, u := range repo.db.users {
			if strings.EqualFold(u.Email, usr.Email) {
				return user.ErrEmailExists
			}
		}
		usr.ID = uuid.New().String()
		repo.db.users[usr.ID] = usr
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if filter != nil {
			if filter.Search != "" && !containsFold(usr.Name, filter.Search) && !containsFold(usr.Email, filter.Search) {
				continue
			}
			if len(filter.Roles) > 0 && !hasRole(usr, filter.Roles) {
				continue
			}
			if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
				continue
			}
		}
		users = append(users, usr)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	orderBy(users, ordering, func(field string, a, b user.User) (int, bool) {
		switch field {
		case "name":
			return strings.Compare(a.Name, b.Name), true
		case "email":
			return strings.Compare(a.Email, b.Email), true
		case "role":
			return strings.Compare(a.Role, b.Role), true
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt), true
		case "last_login":
			return cmp.Compare(a.LastLogin.UnixNano(), b.LastLogin.UnixNano()), true
		}
		return 0, false
	})
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.db.users {
			if strings.EqualFold(usr.Email, filter.Email) {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	err := repo.db.write(exec, func() error {
		if _, ok := repo.db.users[usr.ID]; !ok {
			return user.ErrNotFound
		}
		repo.db.users[usr.ID] = usr
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	var cnt int
	err := repo.db.write(exec, func() error {
		for _, id := range ids {
			if _, ok := repo.db.users[id]; !ok {
				continue
			}
			delete(repo.db.users, id)
			cnt++

			for tid, t := range repo.db.teams {
				if t.UserID == id {
					repo.db.deleteTeam(tid)
				} else if t.GuideID == id {
					t.GuideID = ""
					repo.db.teams[tid] = t
				}
			}
		}
		return nil
	})
	return cnt, err
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}

func hasRole(usr user.User, roles []string) bool {
	for _, r := range roles {
		if usr.Role == r {
			return true
		}
	}
	return false
}
