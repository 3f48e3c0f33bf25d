package service

import (
	"context"

	"github.com/tooffoundation/site-backend/internal/domain"
	"github.com/tooffoundation/site-backend/internal/repository"
)

type AuthServiceInterface interface {
	SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error)
	SignIn(ctx context.Context, email, password, ip string) (*AuthResult, error)
	SignOut(ctx context.Context, userID uint)
}

type PasswordResetServiceInterface interface {
	Request(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (VerifyResult, error)
	IncrementAttempts(ctx context.Context, email string) error
	Commit(ctx context.Context, email, code, newPassword string) (CommitResult, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, email string) (*domain.User, error)
}

type UserServiceInterface interface {
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	ListPaged(ctx context.Context, q repository.UserListQuery) (repository.PageResult[domain.User], error)
	SetRole(ctx context.Context, actor *domain.User, userID uint, role string) (*domain.User, error)
}

type BlogServiceInterface interface {
	Create(ctx context.Context, author *domain.User, in CreateBlogInput) (*domain.Blog, error)
	Update(ctx context.Context, id uint, in UpdateBlogInput) (*domain.Blog, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*domain.Blog, error)
	GetBySlug(ctx context.Context, blogSlug string) (*domain.BlogView, error)
	ListPublished(ctx context.Context, page repository.PageRequest, tag string) (repository.PageResult[domain.BlogView], error)
	ListAll(ctx context.Context, q repository.BlogListQuery) (repository.PageResult[domain.BlogView], error)
}

type EventServiceInterface interface {
	Create(ctx context.Context, organizer *domain.User, in CreateEventInput) (*domain.Event, error)
	Update(ctx context.Context, id uint, in UpdateEventInput) (*domain.Event, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*domain.Event, error)
	GetBySlug(ctx context.Context, eventSlug string) (*domain.Event, error)
	ListPublic(ctx context.Context, page repository.PageRequest, status string) (repository.PageResult[domain.Event], error)
	ListAll(ctx context.Context, q repository.EventListQuery) (repository.PageResult[domain.Event], error)
	Register(ctx context.Context, eventSlug string, in RegisterInput) (*domain.EventRegistration, error)
	ListRegistrations(ctx context.Context, eventID uint, page repository.PageRequest) (repository.PageResult[domain.EventRegistration], error)
}

type GalleryServiceInterface interface {
	Create(ctx context.Context, creator *domain.User, in CreateGalleryInput) (*domain.GalleryCollection, error)
	Update(ctx context.Context, id uint, in UpdateGalleryInput) (*domain.GalleryCollection, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*domain.GalleryCollection, error)
	List(ctx context.Context, q repository.GalleryListQuery) (repository.PageResult[domain.GalleryCollection], error)
}

var (
	_ AuthServiceInterface          = (*AuthService)(nil)
	_ PasswordResetServiceInterface = (*PasswordResetService)(nil)
	_ Authorizer                    = (*AuthorizationGate)(nil)
	_ UserServiceInterface          = (*UserService)(nil)
	_ BlogServiceInterface          = (*BlogService)(nil)
	_ EventServiceInterface         = (*EventService)(nil)
	_ GalleryServiceInterface       = (*GalleryService)(nil)
)
