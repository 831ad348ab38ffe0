package auth

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// SigninRequest payload
type SigninRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

var _ LoginPayload = SigninRequest{}

// GetIdentifier returns the identifier
func (r SigninRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r SigninRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r SigninRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required.Error("identifier is required"),
		),
		validation.Field(
			&r.Password,
			validation.Required.Error("Password is required"),
		),
	)
}

// SignupRequest is the signup paylaod
type SignupRequest struct {
	Username string `form:"username" json:"username"`
	Fullname string `form:"fullname" json:"fullname"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Normalize trims surrounding whitespace from the identity fields. The
// password is kept verbatim.
func (r SignupRequest) Normalize() SignupRequest {
	r.Username = strings.TrimSpace(r.Username)
	r.Fullname = strings.TrimSpace(r.Fullname)
	r.Email = strings.TrimSpace(r.Email)
	return r
}

// HasMissingFields reports whether any field is empty
func (r SignupRequest) HasMissingFields() bool {
	return r.Username == "" || r.Fullname == "" || r.Email == "" || r.Password == ""
}

// usernames must never be mistaken for an email at signin
var usernamePattern = regexp.MustCompile(`^[^@]+$`)

// Validate will validate the payload. Lengths count characters, except the
// password byte limit imposed by bcrypt.
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required.Error("Username is required"),
			validation.RuneLength(3, 0).Error("Username must be at least 3 characters"),
			validation.RuneLength(0, 64).Error("Username must be at most 64 characters"),
			validation.Match(usernamePattern).Error("Username must not contain @"),
		),
		validation.Field(&r.Fullname,
			validation.Required.Error("Full name is required"),
			validation.RuneLength(0, 200).Error("Full name must be at most 200 characters"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Invalid email address"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
			validation.RuneLength(6, 0).Error("Password must be at least 6 characters"),
			validation.By(maxBytes(MaxPasswordLength, "Password must be at most 72 bytes")),
			validation.By(noSurroundingSpace("Password must not start or end with whitespace")),
		),
	)
}

// String never includes the password so payloads are safe to log
func (r SignupRequest) String() string {
	return "SignupRequest{username=" + r.Username + " email=" + r.Email + "}"
}

// Redacted returns a copy safe to dump in debug output
func (r SignupRequest) Redacted() SignupRequest {
	if r.Password != "" {
		r.Password = "[REDACTED]"
	}
	return r
}

// Redacted returns a copy safe to dump in debug output
func (r SigninRequest) Redacted() SigninRequest {
	if r.Password != "" {
		r.Password = "[REDACTED]"
	}
	return r
}

func maxBytes(limit int, message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if len(s) > limit {
			return errors.New(message)
		}
		return nil
	}
}

// signin trims the password, so a padded one could never be used
func noSurroundingSpace(message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != strings.TrimSpace(s) {
			return errors.New(message)
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr == nil {
				continue
			}
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

// validationError converts an ozzo error into ErrValidation with details
func validationError(err error) *goerrors.Error {
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return internalError(err, "validation rule failed")
	}
	return withValidation(ErrValidation, FormatValidationErrorToMap(err), err)
}
