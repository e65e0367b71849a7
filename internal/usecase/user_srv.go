package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/pkg/apperror"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error)

	// Admin endpoints
	GetAllUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *request.AdminUpdateUserRequest) (*response.UserResponse, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

var (
	errUserNotFound = apperror.NotFound("User not found")
	errEmailTaken   = apperror.Conflict("Email already exists")
)

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, apperror.Internal("Failed to get profile", err)
	}
	if user == nil {
		return nil, errUserNotFound
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		us.log.Warn("Update profile validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	return us.update(ctx, userID, req.Name, req.Email, req.Password, nil)
}

func (us *userService) GetAllUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	users, err := us.userRepo.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		us.log.Error("Failed to get all users",
			zap.Error(err),
			zap.Int("page", req.CurrentPage()),
			zap.Int("limit", req.Limit()),
		)
		return nil, apperror.Internal("Failed to get users", err)
	}

	total, err := us.userRepo.CountAll(ctx)
	if err != nil {
		us.log.Error("Failed to count users", zap.Error(err))
		return nil, apperror.Internal("Failed to count users", err)
	}

	userResponses := make([]response.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = response.UserToResponse(user)
	}

	us.log.Debug("Users retrieved",
		zap.Int("count", len(users)),
		zap.Int64("total", total),
		zap.Int("total_pages", utils.CalculateTotalPages(total, req.Limit())),
	)

	return response.NewPaginatedResponse(userResponses, req.CurrentPage(), req.Limit(), total), nil
}

func (us *userService) UpdateUser(ctx context.Context, userID uuid.UUID, req *request.AdminUpdateUserRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		us.log.Warn("Update user validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	return us.update(ctx, userID, req.Name, req.Email, req.Password, req.Role)
}

func (us *userService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := us.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errUserNotFound
		}
		us.log.Error("Failed to delete user", zap.Error(err), zap.String("user_id", userID.String()))
		return apperror.Internal("Failed to delete user", err)
	}

	us.log.Info("User deleted", zap.String("user_id", userID.String()))
	return nil
}

func (us *userService) update(ctx context.Context, userID uuid.UUID, name, email, password, role *string) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("Failed to get user", err)
	}
	if user == nil {
		return nil, errUserNotFound
	}

	if name != nil {
		user.Name = *name
	}
	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		if normalized != user.Email {
			existing, err := us.userRepo.FindByEmail(ctx, normalized)
			if err != nil {
				return nil, apperror.Internal("Failed to check email", err)
			}
			if existing != nil && existing.ID != user.ID {
				return nil, errEmailTaken
			}
		}
		user.Email = normalized
	}
	if password != nil {
		hashed, err := utils.HashPassword(*password)
		if err != nil {
			us.log.Error("Failed to hash password", zap.Error(err))
			return nil, apperror.Internal("Failed to process password", err)
		}
		user.PasswordHash = hashed
	}
	if role != nil {
		user.Role = entity.UserRole(*role)
	}
	user.UpdatedAt = time.Now()

	if err := us.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, errEmailTaken
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, errUserNotFound
		default:
			us.log.Error("Failed to update user", zap.Error(err), zap.String("user_id", userID.String()))
			return nil, apperror.Internal("Failed to update user", err)
		}
	}

	us.log.Info("User updated", zap.String("user_id", userID.String()))

	resp := response.UserToResponse(user)
	return &resp, nil
}
