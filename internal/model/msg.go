package model

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// LoggedInMsg is sent when a login succeeds.
type LoggedInMsg struct {
	User User
}

// LoggedOutMsg is sent after the user signs out.
type LoggedOutMsg struct{}

// NavigateMsg asks the root model to open a route.
type NavigateMsg struct {
	Route string
}
