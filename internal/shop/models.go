package shop

// Identity is the contact data offered by a submission. Nil fields are not
// supplied: they are stored as NULL on insert and left untouched on update.
type Identity struct {
	Email     string
	FirstName *string
	LastName  *string
	Phone     *string
}

type Order struct {
	ID              int64
	Code            string
	ClientID        int64
	DeliveryAddress string
}

type LineItem struct {
	OrderID   int64
	ProductID int64
	Quantity  int
}

type Review struct {
	ID       int64
	ClientID int64
	OrderID  *int64
	Rating   int
	Comment  string
}

type Product struct {
	ID          int64
	Name        string
	Description *string
	Price       float64
	CategoryID  int64
	Image       []byte
}
