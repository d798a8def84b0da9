package graph

import (
	"errors"
	"log/slog"
	"time"

	"github.com/graphql-go/graphql"

	apperrors "github.com/platefull/platefull/pkg/errors"
	"github.com/platefull/platefull/pkg/pagination"

	"github.com/platefull/platefull/internal/auth"
	"github.com/platefull/platefull/internal/domain"
	"github.com/platefull/platefull/internal/guard"
	"github.com/platefull/platefull/internal/service"
)

// SchemaConfig carries the collaborators the resolvers need.
type SchemaConfig struct {
	Users       *service.UserService
	Restaurants *service.RestaurantService
	Environment string
	Logger      *slog.Logger
}

type schemaBuilder struct {
	cfg SchemaConfig

	roleEnum       *graphql.Enum
	userType       *graphql.Object
	restaurantType *graphql.Object
}

// NewSchema builds the executable GraphQL schema.
func NewSchema(cfg SchemaConfig) (graphql.Schema, error) {
	b := &schemaBuilder{cfg: cfg}
	b.buildTypes()

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    b.queryType(),
		Mutation: b.mutationType(),
	})
}

func (b *schemaBuilder) buildTypes() {
	b.roleEnum = graphql.NewEnum(graphql.EnumConfig{
		Name: "UserRole",
		Values: graphql.EnumValueConfigMap{
			"CLIENT":   &graphql.EnumValueConfig{Value: domain.RoleClient},
			"OWNER":    &graphql.EnumValueConfig{Value: domain.RoleOwner},
			"DELIVERY": &graphql.EnumValueConfig{Value: domain.RoleDelivery},
		},
	})

	b.userType = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.ID),
				Resolve: userField(func(u *domain.User) (any, error) { return u.ID, nil }),
			},
			"email": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.String),
				Resolve: userField(func(u *domain.User) (any, error) { return u.Email, nil }),
			},
			"role": &graphql.Field{
				Type:    graphql.NewNonNull(b.roleEnum),
				Resolve: userField(func(u *domain.User) (any, error) { return u.Role, nil }),
			},
			"verified": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Resolve: userField(func(u *domain.User) (any, error) { return u.Verified, nil }),
			},
			"createdAt": &graphql.Field{
				Type:    graphql.String,
				Resolve: userField(func(u *domain.User) (any, error) { return u.CreatedAt.Format(time.RFC3339), nil }),
			},
		},
	})

	b.restaurantType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Restaurant",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.ID),
				Resolve: restaurantField(func(r *domain.Restaurant) (any, error) { return r.ID, nil }),
			},
			"ownerId": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.ID),
				Resolve: restaurantField(func(r *domain.Restaurant) (any, error) { return r.OwnerID, nil }),
			},
			"name": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.String),
				Resolve: restaurantField(func(r *domain.Restaurant) (any, error) { return r.Name, nil }),
			},
			"slug": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.String),
				Resolve: restaurantField(func(r *domain.Restaurant) (any, error) { return r.Slug, nil }),
			},
			"address": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.String),
				Resolve: restaurantField(func(r *domain.Restaurant) (any, error) { return r.Address, nil }),
			},
			"coverImage": &graphql.Field{
				Type:    graphql.String,
				Resolve: restaurantField(func(r *domain.Restaurant) (any, error) { return r.CoverImage, nil }),
			},
		},
	})
}

func (b *schemaBuilder) queryType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type:    graphql.NewNonNull(b.userType),
				Resolve: guarded(guard.Authenticated(), b.resolveMe),
			},
			"user": &graphql.Field{
				Type: b.userResponseType("UserProfileResponse"),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: guarded(guard.Authenticated(), b.resolveUser),
			},
			"users": &graphql.Field{
				Type: b.usersResponseType(),
				Args: paginationArgs(),
				Resolve: guarded(guard.All(
					guard.Authenticated(),
					guard.Environments(b.cfg.Environment, "development", "staging"),
				), b.resolveUsers),
			},
			"restaurant": &graphql.Field{
				Type: b.restaurantResponseType("RestaurantResponse"),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: b.resolveRestaurant,
			},
			"restaurants": &graphql.Field{
				Type:    b.restaurantsResponseType(),
				Args:    paginationArgs(),
				Resolve: b.resolveRestaurants,
			},
			"myRestaurants": &graphql.Field{
				Type:    b.myRestaurantsResponseType(),
				Resolve: guarded(guard.All(guard.Authenticated(), guard.Owner()), b.resolveMyRestaurants),
			},
		},
	})
}

func (b *schemaBuilder) mutationType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createAccount": &graphql.Field{
				Type: mutationResponseType("CreateAccountResponse"),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"role":     &graphql.ArgumentConfig{Type: b.roleEnum},
				},
				Resolve: b.resolveCreateAccount,
			},
			"login": &graphql.Field{
				Type: loginResponseType(),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: b.resolveLogin,
			},
			"verifyEmail": &graphql.Field{
				Type: mutationResponseType("VerifyEmailResponse"),
				Args: graphql.FieldConfigArgument{
					"code": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: b.resolveVerifyEmail,
			},
			"editProfile": &graphql.Field{
				Type: mutationResponseType("EditProfileResponse"),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.String},
					"password": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: guarded(guard.Authenticated(), b.resolveEditProfile),
			},
			"createRestaurant": &graphql.Field{
				Type: b.restaurantResponseType("CreateRestaurantResponse"),
				Args: graphql.FieldConfigArgument{
					"name":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"address":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"coverImage": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: guarded(guard.All(guard.Authenticated(), guard.Owner()), b.resolveCreateRestaurant),
			},
			"editRestaurant": &graphql.Field{
				Type: mutationResponseType("EditRestaurantResponse"),
				Args: graphql.FieldConfigArgument{
					"id":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"name":       &graphql.ArgumentConfig{Type: graphql.String},
					"address":    &graphql.ArgumentConfig{Type: graphql.String},
					"coverImage": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: guarded(guard.All(guard.Authenticated(), guard.Owner()), b.resolveEditRestaurant),
			},
			"deleteRestaurant": &graphql.Field{
				Type: mutationResponseType("DeleteRestaurantResponse"),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: guarded(guard.All(guard.Authenticated(), guard.Owner()), b.resolveDeleteRestaurant),
			},
		},
	})
}

// --- Resolvers ---

func (b *schemaBuilder) resolveMe(p graphql.ResolveParams) (any, error) {
	return auth.UserFromContext(p.Context), nil
}

func (b *schemaBuilder) resolveUser(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(string)
	user, err := b.cfg.Users.GetProfile(p.Context, id)
	if err != nil {
		return b.fail(p, err)
	}
	return map[string]any{"ok": true, "user": user}, nil
}

func (b *schemaBuilder) resolveUsers(p graphql.ResolveParams) (any, error) {
	result, err := b.cfg.Users.ListUsers(p.Context, paginationFromArgs(p))
	if err != nil {
		return b.fail(p, err)
	}
	return map[string]any{
		"ok":         true,
		"totalCount": result.TotalCount,
		"totalPages": result.TotalPages,
		"users":      result.Data,
	}, nil
}

func (b *schemaBuilder) resolveRestaurant(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(string)
	restaurant, err := b.cfg.Restaurants.Get(p.Context, id)
	if err != nil {
		return b.fail(p, err)
	}
	return map[string]any{"ok": true, "restaurant": restaurant}, nil
}

func (b *schemaBuilder) resolveRestaurants(p graphql.ResolveParams) (any, error) {
	result, err := b.cfg.Restaurants.List(p.Context, paginationFromArgs(p))
	if err != nil {
		return b.fail(p, err)
	}
	return map[string]any{
		"ok":          true,
		"totalCount":  result.TotalCount,
		"totalPages":  result.TotalPages,
		"restaurants": result.Data,
	}, nil
}

func (b *schemaBuilder) resolveMyRestaurants(p graphql.ResolveParams) (any, error) {
	user := auth.UserFromContext(p.Context)
	restaurants, err := b.cfg.Restaurants.ListByOwner(p.Context, user.ID)
	if err != nil {
		return b.fail(p, err)
	}
	return map[string]any{"ok": true, "restaurants": restaurants}, nil
}

func (b *schemaBuilder) resolveCreateAccount(p graphql.ResolveParams) (any, error) {
	input := service.RegisterInput{}
	input.Email, _ = p.Args["email"].(string)
	input.Password, _ = p.Args["password"].(string)
	input.Role, _ = p.Args["role"].(string)

	if _, err := b.cfg.Users.Register(p.Context, input); err != nil {
		return b.fail(p, err)
	}
	return map[string]any{"ok": true}, nil
}

func (b *schemaBuilder) resolveLogin(p graphql.ResolveParams) (any, error) {
	input := service.LoginInput{Key: ClientIPFromContext(p.Context)}
	input.Email, _ = p.Args["email"].(string)
	input.Password, _ = p.Args["password"].(string)

	token, err := b.cfg.Users.Login(p.Context, input)
	if err != nil {
		return b.fail(p, err)
	}
	return map[string]any{"ok": true, "token": token}, nil
}

func (b *schemaBuilder) resolveVerifyEmail(p graphql.ResolveParams) (any, error) {
	code, _ := p.Args["code"].(string)
	if _, err := b.cfg.Users.VerifyEmail(p.Context, code); err != nil {
		return b.fail(p, err)
	}
	return map[string]any{"ok": true}, nil
}

func (b *schemaBuilder) resolveEditProfile(p graphql.ResolveParams) (any, error) {
	user := auth.UserFromContext(p.Context)

	input := service.UpdateProfileInput{}
	if email, ok := p.Args["email"].(string); ok {
		input.Email = &email
	}
	if password, ok := p.Args["password"].(string); ok {
		input.Password = &password
	}

	if _, err := b.cfg.Users.UpdateProfile(p.Context, user.ID, input); err != nil {
		return b.fail(p, err)
	}
	return map[string]any{"ok": true}, nil
}

func (b *schemaBuilder) resolveCreateRestaurant(p graphql.ResolveParams) (any, error) {
	user := auth.UserFromContext(p.Context)

	input := service.CreateRestaurantInput{}
	input.Name, _ = p.Args["name"].(string)
	input.Address, _ = p.Args["address"].(string)
	input.CoverImage, _ = p.Args["coverImage"].(string)

	restaurant, err := b.cfg.Restaurants.Create(p.Context, user.ID, input)
	if err != nil {
		return b.fail(p, err)
	}
	return map[string]any{"ok": true, "restaurant": restaurant}, nil
}

func (b *schemaBuilder) resolveEditRestaurant(p graphql.ResolveParams) (any, error) {
	user := auth.UserFromContext(p.Context)
	id, _ := p.Args["id"].(string)

	input := service.UpdateRestaurantInput{}
	if name, ok := p.Args["name"].(string); ok {
		input.Name = &name
	}
	if address, ok := p.Args["address"].(string); ok {
		input.Address = &address
	}
	if coverImage, ok := p.Args["coverImage"].(string); ok {
		input.CoverImage = &coverImage
	}

	if _, err := b.cfg.Restaurants.Update(p.Context, user.ID, id, input); err != nil {
		return b.fail(p, err)
	}
	return map[string]any{"ok": true}, nil
}

func (b *schemaBuilder) resolveDeleteRestaurant(p graphql.ResolveParams) (any, error) {
	user := auth.UserFromContext(p.Context)
	id, _ := p.Args["id"].(string)

	if err := b.cfg.Restaurants.Delete(p.Context, user.ID, id); err != nil {
		return b.fail(p, err)
	}
	return map[string]any{"ok": true}, nil
}

// fail converts a domain error into an {ok:false, error} payload. Errors
// without a client-safe classification propagate to the errors array and
// are logged server-side.
func (b *schemaBuilder) fail(p graphql.ResolveParams, err error) (any, error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status < 500 {
		return map[string]any{"ok": false, "error": appErr.Message}, nil
	}

	b.cfg.Logger.ErrorContext(p.Context, "resolver failed",
		slog.String("field", p.Info.FieldName),
		slog.String("error", err.Error()),
	)
	return nil, errors.New("internal server error")
}

// --- Response types ---

func mutationResponseType(name string) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:   name,
		Fields: responseFields(nil),
	})
}

func loginResponseType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "LoginResponse",
		Fields: responseFields(graphql.Fields{
			"token": &graphql.Field{Type: graphql.String},
		}),
	})
}

func (b *schemaBuilder) userResponseType(name string) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: responseFields(graphql.Fields{
			"user": &graphql.Field{Type: b.userType},
		}),
	})
}

func (b *schemaBuilder) usersResponseType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "UsersResponse",
		Fields: responseFields(graphql.Fields{
			"totalCount": &graphql.Field{Type: graphql.Int},
			"totalPages": &graphql.Field{Type: graphql.Int},
			"users":      &graphql.Field{Type: graphql.NewList(b.userType)},
		}),
	})
}

func (b *schemaBuilder) restaurantResponseType(name string) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: responseFields(graphql.Fields{
			"restaurant": &graphql.Field{Type: b.restaurantType},
		}),
	})
}

func (b *schemaBuilder) restaurantsResponseType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "RestaurantsResponse",
		Fields: responseFields(graphql.Fields{
			"totalCount":  &graphql.Field{Type: graphql.Int},
			"totalPages":  &graphql.Field{Type: graphql.Int},
			"restaurants": &graphql.Field{Type: graphql.NewList(b.restaurantType)},
		}),
	})
}

func (b *schemaBuilder) myRestaurantsResponseType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "MyRestaurantsResponse",
		Fields: responseFields(graphql.Fields{
			"restaurants": &graphql.Field{Type: graphql.NewList(b.restaurantType)},
		}),
	})
}

// responseFields returns the shared ok/error envelope plus any extras.
func responseFields(extra graphql.Fields) graphql.Fields {
	fields := graphql.Fields{
		"ok":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"error": &graphql.Field{Type: graphql.String},
	}
	for name, f := range extra {
		fields[name] = f
	}
	return fields
}

// --- Helpers ---

// guarded wraps a resolver with an authorization guard. A guard failure
// surfaces in the errors array and the resolver never runs.
func guarded(g guard.Guard, resolve graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if err := g.Check(p.Context); err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return nil, errors.New(appErr.Message)
			}
			return nil, err
		}
		return resolve(p)
	}
}

func paginationArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"page":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
		"perPage": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
	}
}

func paginationFromArgs(p graphql.ResolveParams) pagination.Params {
	params := pagination.DefaultParams()
	if page, ok := p.Args["page"].(int); ok && page > 0 {
		params.Page = page
	}
	if perPage, ok := p.Args["perPage"].(int); ok && perPage > 0 && perPage <= 100 {
		params.PerPage = perPage
	}
	params.Offset = (params.Page - 1) * params.PerPage
	return params
}

func userField(fn func(*domain.User) (any, error)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		switch u := p.Source.(type) {
		case *domain.User:
			return fn(u)
		case domain.User:
			return fn(&u)
		default:
			return nil, nil
		}
	}
}

func restaurantField(fn func(*domain.Restaurant) (any, error)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		switch r := p.Source.(type) {
		case *domain.Restaurant:
			return fn(r)
		case domain.Restaurant:
			return fn(&r)
		default:
			return nil, nil
		}
	}
}
