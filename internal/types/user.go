package types

import "time"

// User is the authenticated principal kept in the session. Token is the
// controller bearer token when the controller backend issued one.
type User struct {
	Name       string
	Controller string
	Token      string
	LoggedInAt time.Time
}

func NewUser(name, controller, token string) *User {
	return &User{
		Name:       name,
		Controller: controller,
		Token:      token,
		LoggedInAt: time.Now(),
	}
}
