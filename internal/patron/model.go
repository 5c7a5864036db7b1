package patron

import (
	"database/sql"
	"time"
)

// UserTypes enumerates the patron categories the library recognizes.
var UserTypes = []string{"student", "faculty", "staff", "public"}

func ValidUserType(t string) bool {
	for _, ut := range UserTypes {
		if t == ut {
			return true
		}
	}
	return false
}

// User is one row of the users table. Patrons are never deleted; is_active
// works as a soft-delete flag so lending history stays intact.
type User struct {
	UserID     int64
	Name       string
	Email      string
	UserType   string
	Department sql.NullString
	IsActive   bool
	CreatedAt  time.Time
}
