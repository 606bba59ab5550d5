package domain

type Product struct {
	ID          string  `db:"id"`
	Title       string  `db:"title"`
	Description string  `db:"description"`
	Price       float64 `db:"price"`
	Active      bool    `db:"active"`
	StockQty    int     `db:"stock_qty"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

// Variant is a sellable variation of a product (size, colour) with its own
// stock pool. A reservation with an empty variant id draws from the product's
// base pool instead.
type Variant struct {
	ID        string `db:"id"`
	ProductID string `db:"product_id"`
	Name      string `db:"name"`
	StockQty  int    `db:"stock_qty"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

type Availability struct {
	Status    string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Available int    `json:"available"`
	Stock     int    `json:"stock,omitempty"`
}

type Order struct {
	ID            string `db:"id" json:"id"`
	ReservationID string `db:"reservation_id" json:"reservation_id"`
	ProductID     string `db:"product_id" json:"product_id"`
	VariantID     string `db:"variant_id" json:"variant_id,omitempty"`
	Quantity      int    `db:"quantity" json:"quantity"`
	UserID        string `db:"user_id" json:"user_id,omitempty"`
	SessionID     string `db:"session_id" json:"-"`
	CustomerName  string `db:"customer_name" json:"customer_name"`
	CustomerEmail string `db:"customer_email" json:"customer_email"`
	Status        string `db:"status" json:"status"` // PLACED | FAILED
	CreatedAt     string `db:"created_at" json:"created_at"`
}
