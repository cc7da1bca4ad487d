package sample

import "fmt"

// Version is the application version.
const Version = "1.0.0"

const (
	// StatusOK indicates success.
	StatusOK = 200
	// StatusError indicates failure.
	StatusError = 500
)

var defaultName = "guest"

// Base is a base struct.
type Base struct {
	ID int
}

// User is a complex struct.
type User struct {
	Base
	Name, Nickname string `json:"name"`
	Age            int    `json:"age"`
	Address        struct {
		City string
	}
}

// Greeter is an interface.
type Greeter interface {
	fmt.Stringer
	Greet(prefix string) string
}

// NewUser builds a user.
func NewUser(name string) *User {
	return &User{Name: name}
}

// Greet greets.
//
// Deprecated: use String.
func (u *User) Greet(prefix string) string {
	return prefix + u.displayName()
}

func (u *User) displayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

func (u *User) String() string {
	return fmt.Sprintf("%d:%s", u.ID, defaultName)
}
