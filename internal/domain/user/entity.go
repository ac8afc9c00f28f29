package user

// User represents a user entity in the system.
type User struct {
	ID    int64  // ID is assigned by the store on creation and never changes
	Name  string // Name is the display name of the user
	Email string // Email is the contact address of the user
}

// Seed returns the records a fresh store starts with.
func Seed() []User {
	return []User{
		{ID: 1, Name: "One", Email: "First@email.com"},
		{ID: 2, Name: "Two", Email: "Second@email.com"},
	}
}

// NextID returns the id for a new record given the highest id the store has
// ever assigned. A fresh empty store (max == 0) yields 1.
func NextID(max int64) int64 {
	if max < 0 {
		max = 0
	}
	return max + 1
}
