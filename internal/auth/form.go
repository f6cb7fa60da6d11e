package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"dlux/internal/common"
	"dlux/internal/config"
	"dlux/internal/types"

	"github.com/sirupsen/logrus"
)

// Authenticator checks credentials against an identity backend. Rejected
// credentials are reported as *Error; any other error is a fault.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password, controller string) (*types.User, error)
}

// Session is the part of the session store the login form touches.
type Session interface {
	Flush(ctx context.Context) error
	TestCookieWorked(ctx context.Context) bool
}

// CredentialForm is a bindable form that yields credentials once valid.
type CredentialForm interface {
	Fields() []Field
	Validate(ctx context.Context, data url.Values) (bool, error)
	Clean(ctx context.Context) (Credentials, error)
}

type Widget string

const (
	TextInput     Widget = "text"
	PasswordInput Widget = "password"
	SelectInput   Widget = "select"
	HiddenInput   Widget = "hidden"
)

const (
	FieldUsername   = "username"
	FieldPassword   = "password"
	FieldController = "controller"
)

type Field struct {
	Name     string
	Label    string
	Widget   Widget
	Required bool
	Choices  []config.ControllerChoice
	Initial  string
	// Value is the submitted value to render back. Password fields never
	// carry one.
	Value  string
	Errors []string
}

func (f Field) IsHidden() bool {
	return f.Widget == HiddenInput
}

// Current is the value a renderer should show: the submitted one, else the initial.
func (f Field) Current() string {
	if f.Value != "" {
		return f.Value
	}
	return f.Initial
}

// Credentials is the cleaned form data. Its string forms never include the password.
type Credentials struct {
	Username   string
	Password   string
	Controller string
}

func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username:%q Controller:%q}", c.Username, c.Controller)
}

func (c Credentials) GoString() string {
	return c.String()
}

type Option func(*LoginForm)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *LoginForm) {
		f.logger = logger
	}
}

// LoginForm collects username, password and controller and authenticates
// them on Clean.
type LoginForm struct {
	authenticator Authenticator
	session       Session
	logger        logrus.FieldLogger

	fields  []*Field
	choices []config.ControllerChoice
	cleaned Credentials
	errors  []string
	user    *types.User
}

var _ CredentialForm = (*LoginForm)(nil)

func NewLoginForm(cfg config.Login, authenticator Authenticator, session Session, opts ...Option) *LoginForm {
	f := &LoginForm{
		authenticator: authenticator,
		session:       session,
		logger:        logrus.StandardLogger(),
		choices:       cfg.ControllerChoices(),
	}
	for _, opt := range opts {
		opt(f)
	}

	controller := &Field{
		Name:    FieldController,
		Label:   "Controller",
		Widget:  SelectInput,
		Choices: f.choices,
	}
	if len(f.choices) == 1 {
		controller.Initial = f.choices[0].Value
		controller.Widget = HiddenInput
	}

	// Multidomain support would add a domain field here; the order is the
	// same either way.
	f.fields = []*Field{
		{Name: FieldUsername, Label: "User Name", Widget: TextInput, Required: true},
		{Name: FieldPassword, Label: "Password", Widget: PasswordInput, Required: true},
		controller,
	}
	return f
}

// Fields returns copies of the fields in render order.
func (f *LoginForm) Fields() []Field {
	out := make([]Field, 0, len(f.fields))
	for _, field := range f.fields {
		c := *field
		c.Choices = append([]config.ControllerChoice(nil), field.Choices...)
		c.Errors = append([]string(nil), field.Errors...)
		out = append(out, c)
	}
	return out
}

func (f *LoginForm) field(name string) *Field {
	for _, field := range f.fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

// NonFieldErrors returns form-level errors such as a rejected login.
func (f *LoginForm) NonFieldErrors() []string {
	return append([]string(nil), f.errors...)
}

// User returns the authenticated user after a successful Validate.
func (f *LoginForm) User() *types.User {
	return f.user
}

func (f *LoginForm) hasFieldErrors() bool {
	for _, field := range f.fields {
		if len(field.Errors) > 0 {
			return true
		}
	}
	return false
}

// Validate binds data, runs the field validators and then Clean. It reports
// false when user-visible errors were attached; err is set only for faults.
func (f *LoginForm) Validate(ctx context.Context, data url.Values) (bool, error) {
	f.bind(data)

	if _, err := f.Clean(ctx); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return false, err
		}
		if verr.Field == "" {
			f.errors = append(f.errors, verr.Message)
		} else if field := f.field(verr.Field); field != nil {
			field.Errors = append(field.Errors, verr.Message)
		}
	}
	return !f.hasFieldErrors() && len(f.errors) == 0, nil
}

func (f *LoginForm) bind(data url.Values) {
	f.cleaned = Credentials{}
	f.errors = nil
	f.user = nil
	for _, field := range f.fields {
		field.Errors = nil
		field.Value = ""
	}

	username := f.field(FieldUsername)
	username.Value = strings.TrimSpace(data.Get(FieldUsername))
	if username.Value == "" {
		username.Errors = append(username.Errors, msgRequired)
	}
	f.cleaned.Username = username.Value

	password := f.field(FieldPassword)
	f.cleaned.Password = data.Get(FieldPassword)
	if f.cleaned.Password == "" {
		password.Errors = append(password.Errors, msgRequired)
	}

	controller := f.field(FieldController)
	value := strings.TrimSpace(data.Get(FieldController))
	switch {
	case value == "" && len(f.choices) == 1:
		value = f.choices[0].Value
	case value == "":
		controller.Errors = append(controller.Errors, msgRequired)
	case !f.isChoice(value):
		controller.Errors = append(controller.Errors, fmt.Sprintf(msgInvalidChoice, value))
		value = ""
	}
	controller.Value = value
	f.cleaned.Controller = value
}

func (f *LoginForm) isChoice(value string) bool {
	for _, c := range f.choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// Clean authenticates the bound credentials. Missing credentials or field
// errors skip authentication and return the cleaned data unchanged. A
// rejected login flushes the session and becomes a *ValidationError carrying
// the backend's message.
//
// The password must not reach any log entry or error produced here.
func (f *LoginForm) Clean(ctx context.Context) (Credentials, error) {
	username := f.cleaned.Username
	password := f.cleaned.Password
	controller := f.cleaned.Controller

	if username == "" || password == "" || f.hasFieldErrors() {
		return f.cleaned, nil
	}

	fields := logrus.Fields{
		"username":   username,
		"controller": controller,
		"client_ip":  common.GetClientIp(ctx),
	}

	user, err := f.authenticator.Authenticate(ctx, username, password, controller)
	if err != nil {
		var authErr *Error
		if !errors.As(err, &authErr) {
			return f.cleaned, fmt.Errorf("authenticate %q: %w", username, err)
		}
		if f.session != nil {
			if ferr := f.session.Flush(ctx); ferr != nil {
				fields["flush_error"] = ferr.Error()
			}
		}
		f.logger.WithFields(fields).Warnf("Login failed for user %q.", username)
		return f.cleaned, &ValidationError{Message: authErr.Message}
	}

	f.user = user
	f.logger.WithFields(fields).Infof("Login successful for user %q.", username)

	if err := f.checkTestCookie(ctx); err != nil {
		return f.cleaned, err
	}
	return f.cleaned, nil
}

func (f *LoginForm) checkTestCookie(ctx context.Context) error {
	if f.session == nil || f.session.TestCookieWorked(ctx) {
		return nil
	}
	return &ValidationError{Message: MsgNoCookies}
}
