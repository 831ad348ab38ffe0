package auth

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type AuthControllerRoutes struct {
	Signup  string
	Signin  string
	Signout string
	Me      string
}

type AuthController struct {
	Debug        bool
	UseHashid    bool
	Logger       Logger
	Repo         RepositoryManager
	Hasher       *PasswordHasher
	Auther       *Auther
	Config       Config
	ActivitySink ActivitySink
	Routes       *AuthControllerRoutes
	ErrorHandler router.ErrorHandler
	register     *RegisterAccountHandler
}

type AuthControllerOption func(*AuthController) *AuthController

// RegisterAuthRoutes mounts signup, signin, signout and me on app and
// returns the controller serving them.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	protected := ProtectedRoute(
		controller.Config,
		controller.Auther.Validator(),
		UnauthorizedHandler(controller.Logger),
	)

	app.Post(controller.Routes.Signup, controller.Signup).SetName("signup.post")
	app.Post(controller.Routes.Signin, controller.Signin).SetName("signin.post")
	app.Post(controller.Routes.Signout, controller.Signout, protected).SetName("signout.post")
	app.Get(controller.Routes.Me, controller.Me, protected).SetName("me.get")

	return controller
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Config: Options{},
		Routes: &AuthControllerRoutes{
			Signup:  "/signup",
			Signin:  "/signin",
			Signout: "/signout",
			Me:      "/me",
		},
	}
	c.ErrorHandler = c.defaultErrHandler

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	if c.Hasher == nil {
		c.Hasher = NewPasswordHasher(0, 0)
	}

	c.register = NewRegisterAccountHandler(c.Repo, c.Hasher, c.Logger).
		WithActivitySink(c.ActivitySink)

	return c
}

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerConfig sets the config used for protected routes
func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if cfg != nil {
			c.Config = cfg
		}
		return c
	}
}

// WithControllerDeps sets the collaborators the handlers need
func WithControllerDeps(repo RepositoryManager, hasher *PasswordHasher, auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		c.Hasher = hasher
		c.Auther = auther
		return c
	}
}

// Signup handles POST /signup
func (a *AuthController) Signup(c router.Context) error {
	payload := new(SignupRequest)
	if err := c.Bind(payload); err != nil {
		return a.ErrorHandler(c, withCause(ErrInvalidBody, err))
	}

	if a.Debug {
		a.Logger.Debug("signup payload", "payload", print.MaybePrettyJSON(payload.Redacted()))
	}

	account, err := a.register.Register(c.Context(), RegisterAccountMessage{
		Username:  payload.Username,
		Fullname:  payload.Fullname,
		Email:     payload.Email,
		Password:  payload.Password,
		UseHashid: a.UseHashid,
	})
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    account,
	})
}

// Signin handles POST /signin
func (a *AuthController) Signin(c router.Context) error {
	payload := new(SigninRequest)
	if err := c.Bind(payload); err != nil {
		return a.ErrorHandler(c, withCause(ErrInvalidBody, err))
	}

	if a.Debug {
		a.Logger.Debug("signin payload", "payload", print.MaybePrettyJSON(payload.Redacted()))
	}

	res, err := a.Auther.Login(c.Context(), payload)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Signin successful",
		"user":    res.Account,
		"token":   res.Token,
	})
}

// Signout handles POST /signout, revoking the caller's token
func (a *AuthController) Signout(c router.Context) error {
	claims, ok := GetRouterClaims(c, a.Config.GetContextKey())
	if !ok {
		return a.ErrorHandler(c, ErrUnableToFindSession)
	}

	if err := a.Auther.Logout(c.Context(), claims); err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Signout successful",
	})
}

// Me handles GET /me
func (a *AuthController) Me(c router.Context) error {
	claims, ok := GetRouterClaims(c, a.Config.GetContextKey())
	if !ok {
		return a.ErrorHandler(c, ErrUnableToFindSession)
	}

	account, err := a.Auther.CurrentAccount(c.Context(), claims)
	if err != nil {
		if goerrors.Is(err, ErrAccountNotFound) {
			return a.ErrorHandler(c, withCause(ErrUnauthorized, err))
		}
		return a.ErrorHandler(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user": account,
	})
}

func (a *AuthController) defaultErrHandler(c router.Context, err error) error {
	return WriteError(c, a.Logger, err)
}

// WriteError renders err as {"error": message} with the status of its
// category. Internal errors are logged and reported without detail.
func WriteError(c router.Context, logger Logger, err error) error {
	if logger == nil {
		logger = defLogger{}
	}

	richErr := AsError(err)

	switch richErr.Category {
	case goerrors.CategoryInternal:
		logger.Error("request failed",
			"error", err,
			"method", c.Method(),
			"path", c.Path(),
		)
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error": "Internal server error",
		})
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		message := ErrUnauthorized.Message
		if goerrors.Is(richErr, ErrInvalidCredentials) {
			message = ErrInvalidCredentials.Message
		}
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"error": message,
		})
	}

	body := map[string]any{"error": richErr.Message}
	if details := richErr.ValidationMap(); len(details) > 0 {
		body["details"] = details
	}

	return c.JSON(richErr.Code, body)
}
