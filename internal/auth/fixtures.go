package auth

import "github.com/pavelanni/examdash/internal/model"

const (
	// DefaultSuperAdminUsername and DefaultSuperAdminPassword form the built-in
	// super admin pair used when no other pair is configured.
	DefaultSuperAdminUsername = "superadmin"
	DefaultSuperAdminPassword = "Super@123"
)

func seedUsers() []model.User {
	return []model.User{
		{
			ID:          "admin-1",
			Username:    "admin",
			Email:       "admin@exam.com",
			DisplayName: "Admin User",
			FirstName:   "Admin",
			LastName:    "User",
			Role:        model.UserRoleAdmin,
		},
		{
			ID:          "admin-2",
			Username:    "admin2",
			Email:       "admin2@exam.com",
			DisplayName: "Second Admin",
			FirstName:   "Second",
			LastName:    "Admin",
			Role:        model.UserRoleAdmin,
		},
		{
			ID:          "student-1",
			Username:    "john",
			Email:       "john@student.com",
			DisplayName: "John Doe",
			FirstName:   "John",
			LastName:    "Doe",
			Nickname:    "JD",
			Role:        model.UserRoleStudent,
		},
		{
			ID:          "student-2",
			Username:    "jane",
			Email:       "jane@student.com",
			DisplayName: "Jane Smith",
			FirstName:   "Jane",
			LastName:    "Smith",
			Role:        model.UserRoleStudent,
		},
		{
			ID:          "student-3",
			Username:    "bob",
			Email:       "bob@student.com",
			DisplayName: "Bob Wilson",
			FirstName:   "Bob",
			LastName:    "Wilson",
			Role:        model.UserRoleStudent,
		},
	}
}

// seedPasswords are plaintext; they are hashed before being stored.
func seedPasswords() map[string]string {
	return map[string]string{
		"admin":  "Admin@123",
		"admin2": "Admin@123",
		"john":   "Student@123",
		"jane":   "Student@123",
		"bob":    "Student@123",
	}
}
