package graph

import (
	"context"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/mahmoudev/blog-service/internal/middleware"
	"github.com/mahmoudev/blog-service/internal/models"
	"github.com/mahmoudev/blog-service/internal/service"
)

// Resolver is the root of all queries and mutations. Authentication happens
// per operation from the bearer token carried in the request context, the
// same way the original REST middleware resolves it.
type Resolver struct {
	Auth  *service.AuthService
	Posts *service.PostService
}

func (r *Resolver) authenticate(ctx context.Context) (*models.User, error) {
	return r.Auth.Authenticate(middleware.TokenFromContext(ctx))
}

// Mutations

func (r *Resolver) Signup(args struct{ Name, Email, Password string }) (*userResolver, error) {
	user, err := r.Auth.Signup(args.Name, args.Email, args.Password)
	if err != nil {
		return nil, err
	}
	return &userResolver{root: r, user: user}, nil
}

func (r *Resolver) Login(args struct{ Email, Password string }) (*loginResolver, error) {
	token, user, err := r.Auth.Login(args.Email, args.Password)
	if err != nil {
		return nil, err
	}
	return &loginResolver{token: token, userID: user.ID}, nil
}

func (r *Resolver) EditStatus(ctx context.Context, args struct{ Status string }) (string, error) {
	user, err := r.authenticate(ctx)
	if err != nil {
		return "", err
	}
	return r.Auth.EditStatus(user.ID, args.Status)
}

func (r *Resolver) CreatePost(ctx context.Context, args struct{ Title, Content, ImagePath string }) (*postResolver, error) {
	user, err := r.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	post, err := r.Posts.Create(user, args.Title, args.Content, args.ImagePath)
	if err != nil {
		return nil, err
	}
	return &postResolver{post: post}, nil
}

func (r *Resolver) EditPost(ctx context.Context, args struct {
	ID        graphql.ID
	Title     string
	Content   string
	ImagePath *string
}) (*postResolver, error) {
	user, err := r.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	staged := ""
	if args.ImagePath != nil {
		staged = *args.ImagePath
	}
	post, err := r.Posts.Edit(user, string(args.ID), args.Title, args.Content, staged)
	if err != nil {
		return nil, err
	}
	return &postResolver{post: post}, nil
}

func (r *Resolver) DeletePost(ctx context.Context, args struct{ ID graphql.ID }) (*postResolver, error) {
	user, err := r.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	post, err := r.Posts.Delete(user, string(args.ID))
	if err != nil {
		return nil, err
	}
	return &postResolver{post: post}, nil
}

// Queries

func (r *Resolver) GetStatus(ctx context.Context) (string, error) {
	user, err := r.authenticate(ctx)
	if err != nil {
		return "", err
	}
	return user.Status, nil
}

func (r *Resolver) GetAllPosts(ctx context.Context) ([]*postResolver, error) {
	if _, err := r.authenticate(ctx); err != nil {
		return nil, err
	}
	posts, err := r.Posts.ListAll()
	if err != nil {
		return nil, err
	}
	return wrapPosts(posts), nil
}

func (r *Resolver) GetOnePost(ctx context.Context, args struct{ ID graphql.ID }) (*postResolver, error) {
	if _, err := r.authenticate(ctx); err != nil {
		return nil, err
	}
	post, err := r.Posts.Get(string(args.ID))
	if err != nil {
		return nil, err
	}
	return &postResolver{post: post}, nil
}

func (r *Resolver) GetPagePosts(ctx context.Context, args struct {
	Page  *int32
	Limit int32
}) (*pagePostsResolver, error) {
	if _, err := r.authenticate(ctx); err != nil {
		return nil, err
	}
	page := 1
	if args.Page != nil {
		page = int(*args.Page)
	}
	posts, total, err := r.Posts.List(page, int(args.Limit))
	if err != nil {
		return nil, err
	}
	return &pagePostsResolver{posts: wrapPosts(posts), total: int32(total)}, nil
}

// Type resolvers

type loginResolver struct {
	token  string
	userID string
}

func (l *loginResolver) Token() string      { return l.token }
func (l *loginResolver) UserID() graphql.ID { return graphql.ID(l.userID) }

type pagePostsResolver struct {
	posts []*postResolver
	total int32
}

func (p *pagePostsResolver) Posts() []*postResolver { return p.posts }
func (p *pagePostsResolver) TotalPosts() int32      { return p.total }

type userResolver struct {
	root *Resolver
	user *models.User
}

func (u *userResolver) ID() graphql.ID { return graphql.ID(u.user.ID) }
func (u *userResolver) Name() string   { return u.user.Name }
func (u *userResolver) Email() string  { return u.user.Email }
func (u *userResolver) Status() string { return u.user.Status }

func (u *userResolver) Posts() ([]*postResolver, error) {
	posts, err := u.root.Posts.ListByCreator(u.user.ID)
	if err != nil {
		return nil, err
	}
	return wrapPosts(posts), nil
}

type creatorResolver struct {
	creator models.Creator
}

func (c *creatorResolver) ID() graphql.ID { return graphql.ID(c.creator.ID) }
func (c *creatorResolver) Name() string   { return c.creator.Name }

type postResolver struct {
	post *models.Post
}

func (p *postResolver) ID() graphql.ID            { return graphql.ID(p.post.ID) }
func (p *postResolver) Title() string             { return p.post.Title }
func (p *postResolver) Content() string           { return p.post.Content }
func (p *postResolver) ImageURL() string          { return p.post.ImageURL }
func (p *postResolver) Creator() *creatorResolver { return &creatorResolver{creator: p.post.Creator} }
func (p *postResolver) CreatedAt() string         { return p.post.CreatedAt.Format(time.RFC3339) }
func (p *postResolver) UpdatedAt() string         { return p.post.UpdatedAt.Format(time.RFC3339) }

func wrapPosts(posts []models.Post) []*postResolver {
	out := make([]*postResolver, len(posts))
	for i := range posts {
		out[i] = &postResolver{post: &posts[i]}
	}
	return out
}
