package action

import (
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
)

const (
	KindLoginStart   Kind = "LOGIN_START"
	KindLoginSuccess Kind = "LOGIN_SUCCESS"
	KindLoginError   Kind = "LOGIN_ERROR"

	KindSignupStart   Kind = "SIGNUP_START"
	KindSignupSuccess Kind = "SIGNUP_SUCCESS"
	KindSignupError   Kind = "SIGNUP_ERROR"

	KindLogout      Kind = "LOGOUT"
	KindToggleTheme Kind = "TOGGLE_THEME"
)

type LoginStart struct{}

// LoginSuccess carries the signed-in user including the bearer token. It is
// also dispatched at start-up when a persisted session is found.
type LoginSuccess struct {
	User model.User `json:"user"`
}

type LoginError struct {
	Fault *errmodel.Error `json:"fault"`
}

type SignupStart struct{}

type SignupSuccess struct {
	User model.User `json:"user"`
}

type SignupError struct {
	Fault *errmodel.Error `json:"fault"`
}

type Logout struct{}

type ToggleTheme struct{}

func LoginBegin() Action                        { return LoginStart{} }
func LoginDone(u model.User) Action             { return LoginSuccess{User: u} }
func LoginFailed(fault *errmodel.Error) Action  { return LoginError{Fault: fault} }
func SignupBegin() Action                       { return SignupStart{} }
func SignupDone(u model.User) Action            { return SignupSuccess{User: u} }
func SignupFailed(fault *errmodel.Error) Action { return SignupError{Fault: fault} }
func SignOut() Action                           { return Logout{} }
func Toggle() Action                            { return ToggleTheme{} }

func (LoginStart) Kind() Kind    { return KindLoginStart }
func (LoginSuccess) Kind() Kind  { return KindLoginSuccess }
func (LoginError) Kind() Kind    { return KindLoginError }
func (SignupStart) Kind() Kind   { return KindSignupStart }
func (SignupSuccess) Kind() Kind { return KindSignupSuccess }
func (SignupError) Kind() Kind   { return KindSignupError }
func (Logout) Kind() Kind        { return KindLogout }
func (ToggleTheme) Kind() Kind   { return KindToggleTheme }

func init() {
	Register[LoginStart](KindLoginStart)
	Register[LoginSuccess](KindLoginSuccess)
	Register[LoginError](KindLoginError)
	Register[SignupStart](KindSignupStart)
	Register[SignupSuccess](KindSignupSuccess)
	Register[SignupError](KindSignupError)
	Register[Logout](KindLogout)
	Register[ToggleTheme](KindToggleTheme)
}
