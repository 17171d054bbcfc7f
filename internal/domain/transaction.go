package domain

// Payment status as reported by the gateway bridge.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Delivery progress for physical fulfilment, driven from the admin screens.
const (
	DeliveryPackaging = "packaging"
	DeliveryShipped   = "shipped"
	DeliveryDelivered = "delivered"
)

type Transaction struct {
	ID                   string `db:"id"`
	OrderID              string `db:"order_id"`
	ProjectID            string `db:"project_id"`
	UserID               string `db:"user_id"`
	Amount               int64  `db:"amount"`
	ProjectTitle         string `db:"project_title"`
	LicenseType          string `db:"license_type"`
	DeliveryMethod       string `db:"delivery_method"` // download | delivery
	ImageURL             string `db:"image_url"`
	DownloadURL          string `db:"download_url"`
	UserEmail            string `db:"user_email"`
	UserName             string `db:"user_name"`
	UserPhotoURL         string `db:"user_photo_url"`
	Status               string `db:"status"`
	DeliveryStatus       string `db:"delivery_status"`
	GatewayTransactionID string `db:"gateway_transaction_id"`
	PaymentDetailsJSON   string `db:"payment_details_json"`
	DeliveryAddressJSON  string `db:"delivery_address_json"`
	CreatedAt            string `db:"created_at"`
	UpdatedAt            string `db:"updated_at"`
}
