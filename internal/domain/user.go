package domain

type User struct {
	ID       string `db:"id"`
	Email    string `db:"email"`
	Name     string `db:"name"`
	PhotoURL string `db:"photo_url"`
	Hash     string `db:"password_hash"`
	Role     string `db:"role"`
}

// Complete reports whether the profile carries everything checkout needs.
func (u *User) Complete() bool {
	return u != nil && u.ID != "" && u.Email != "" && u.Name != ""
}
