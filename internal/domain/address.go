package domain

type Address struct {
	ID            string `db:"id"`
	UserID        string `db:"user_id"`
	FullName      string `db:"full_name"`
	Phone         string `db:"phone"`
	Province      string `db:"province"`
	City          string `db:"city"`
	District      string `db:"district"`
	StreetAddress string `db:"street_address"`
	Details       string `db:"details"`
	PostalCode    string `db:"postal_code"`
	IsDefault     bool   `db:"is_default"`
}
