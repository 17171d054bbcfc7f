package repos

import (
	"errors"

	"devstore/internal/domain"

	"github.com/jmoiron/sqlx"
)

var ErrOutOfStock = errors.New("license variant out of stock")

type TransactionRepo struct{ db *sqlx.DB }

func NewTransactionRepo(db *sqlx.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const txCols = `
  id, order_id, project_id, user_id, amount, project_title, license_type,
  delivery_method, COALESCE(image_url,'') AS image_url,
  COALESCE(download_url,'') AS download_url,
  user_email, user_name, COALESCE(user_photo_url,'') AS user_photo_url,
  status, COALESCE(delivery_status,'') AS delivery_status,
  COALESCE(gateway_transaction_id,'') AS gateway_transaction_id,
  COALESCE(payment_details_json,'') AS payment_details_json,
  COALESCE(delivery_address_json,'') AS delivery_address_json,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *TransactionRepo) Create(t domain.Transaction) error {
	_, err := r.db.Exec(`
	  INSERT INTO transactions
	    (id, order_id, project_id, user_id, amount, project_title, license_type,
	     delivery_method, image_url, download_url, user_email, user_name,
	     user_photo_url, status, delivery_status, delivery_address_json, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, t.ID, t.OrderID, t.ProjectID, t.UserID, t.Amount, t.ProjectTitle, t.LicenseType,
		t.DeliveryMethod, t.ImageURL, t.DownloadURL, t.UserEmail, t.UserName,
		t.UserPhotoURL, t.Status, t.DeliveryStatus, t.DeliveryAddressJSON)
	return err
}

func (r *TransactionRepo) Get(id string) (domain.Transaction, error) {
	var t domain.Transaction
	err := r.db.Get(&t, `SELECT `+txCols+` FROM transactions WHERE id = ?`, id)
	return t, err
}

func (r *TransactionRepo) GetByOrderID(orderID string) (domain.Transaction, error) {
	var t domain.Transaction
	err := r.db.Get(&t, `SELECT `+txCols+` FROM transactions WHERE order_id = ?`, orderID)
	return t, err
}

// UpdateStatus records the gateway outcome against the original order.
func (r *TransactionRepo) UpdateStatus(orderID, status, gatewayTxID, detailsJSON string) error {
	res, err := r.db.Exec(`
	  UPDATE transactions
	  SET status = ?, gateway_transaction_id = ?, payment_details_json = ?,
	      updated_at = CURRENT_TIMESTAMP
	  WHERE order_id = ?
	`, status, gatewayTxID, detailsJSON, orderID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errors.New("unknown order id")
	}
	return nil
}

func (r *TransactionRepo) UpdateDeliveryStatus(id, deliveryStatus string) error {
	_, err := r.db.Exec(`
	  UPDATE transactions SET delivery_status = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?
	`, deliveryStatus, id)
	return err
}

func (r *TransactionRepo) ListByUser(userID string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := r.db.Select(&out, `
	  SELECT `+txCols+` FROM transactions
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC
	`, userID)
	return out, err
}

// ListByStatus feeds the admin dashboards; empty status means all.
func (r *TransactionRepo) ListByStatus(status string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Transaction
	if status == "" {
		err := r.db.Select(&out, `
		  SELECT `+txCols+` FROM transactions
		  ORDER BY datetime(created_at) DESC LIMIT ?
		`, limit)
		return out, err
	}
	err := r.db.Select(&out, `
	  SELECT `+txCols+` FROM transactions
	  WHERE status = ?
	  ORDER BY datetime(created_at) DESC LIMIT ?
	`, status, limit)
	return out, err
}

// ListShipped lists successful physical deliveries for the shipped dashboard.
func (r *TransactionRepo) ListShipped(limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Transaction
	err := r.db.Select(&out, `
	  SELECT `+txCols+` FROM transactions
	  WHERE delivery_method = 'delivery' AND status = 'success'
	  ORDER BY datetime(created_at) DESC LIMIT ?
	`, limit)
	return out, err
}
