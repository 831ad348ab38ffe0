package auth

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterAccountMessage is the signup command
type RegisterAccountMessage struct {
	Username  string `json:"username"`
	Fullname  string `json:"fullname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

func (e RegisterAccountMessage) request() SignupRequest {
	return SignupRequest{
		Username: e.Username,
		Fullname: e.Fullname,
		Email:    e.Email,
		Password: e.Password,
	}.Normalize()
}

// Validate runs the signup rules against the message
func (e RegisterAccountMessage) Validate() error {
	req := e.request()
	if req.HasMissingFields() {
		return ErrMissingFields
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}
	return nil
}

// RegisterAccountHandler creates accounts
type RegisterAccountHandler struct {
	repo    RepositoryManager
	hasher  *PasswordHasher
	logger  Logger
	sink    ActivitySink
	timeout time.Duration
}

// NewRegisterAccountHandler returns a handler for RegisterAccountMessage
func NewRegisterAccountHandler(repo RepositoryManager, hasher *PasswordHasher, logger Logger) *RegisterAccountHandler {
	if hasher == nil {
		hasher = NewPasswordHasher(0, 0)
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &RegisterAccountHandler{
		repo:    repo,
		hasher:  hasher,
		logger:  logger,
		sink:    noopActivitySink{},
		timeout: 10 * time.Second,
	}
}

// WithActivitySink records an event for every created account
func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

var _ command.Commander[RegisterAccountMessage] = (*RegisterAccountHandler)(nil)

// Execute runs the command, discarding the created account
func (h *RegisterAccountHandler) Execute(ctx context.Context, msg RegisterAccountMessage) error {
	_, err := h.Register(ctx, msg)
	return err
}

// Register validates the message and stores a new account. The returned
// account carries no usable secret once serialised.
func (h *RegisterAccountHandler) Register(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, internalError(ctx.Err(), "context cancelled during account registration")
	default:
		return h.execute(ctx, msg)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	req := msg.request()

	exists, err := h.repo.Accounts().ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAccountConflict
	}

	// hashing is slow, keep it out of the transaction
	digest, err := h.hasher.Hash(ctx, req.Password)
	if err != nil {
		if errors.Is(err, ErrNoEmptyString) {
			return nil, ErrMissingFields
		}
		return nil, err
	}

	account := &Account{
		Username:     req.Username,
		Fullname:     req.Fullname,
		Email:        req.Email,
		PasswordHash: digest,
	}

	if msg.UseHashid {
		if id, err := hashid.NewUUID(req.Email); err == nil {
			account.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := h.repo.Accounts().CreateTx(ctx, tx, account)
		if err != nil {
			return err
		}
		account = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, internalError(err, "account registration transaction failed")
	}

	h.logger.Info("account registered", "account_id", account.ID.String(), "username", account.Username)

	recordActivity(ctx, h.sink, h.logger, ActivityEvent{
		EventType: ActivityEventAccountRegistered,
		Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID: account.ID.String(),
		Metadata:  map[string]any{"username": account.Username},
	})

	return account, nil
}
