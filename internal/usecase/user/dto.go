package user

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	Name  string `validate:"notblank"`
	Email string `validate:"notblank,contains=@"`
}

// UpdateUserRequest represents the request payload for updating an existing user.
// ID selects the record; it is never changed.
type UpdateUserRequest struct {
	ID    int64  `validate:"-"`
	Name  string `validate:"notblank"`
	Email string `validate:"notblank,contains=@"`
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID    int64
	Name  string
	Email string
}
