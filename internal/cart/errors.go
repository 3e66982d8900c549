package cart

import "fmt"

type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindPersistence:
		return "PERSISTENCE"
	default:
		return "UNKNOWN"
	}
}

// Messages renvoyés tels quels au client.
const (
	MsgInvalidAddInput   = "Product ID and valid quantity are required."
	MsgProductIDRequired = "Product ID is required."
	MsgQuantityTooLarge  = "Quantity exceeds the maximum allowed in a cart."
	MsgProductNotFound   = "Product not found."
	MsgCartNotFound      = "Cart not found for user."
	MsgItemNotInCart     = "Product not found in cart."
	MsgCartLoadFailed    = "Error while fetching cart"
	MsgCartSaveFailed    = "Error while saving cart"
	MsgProductLoadFailed = "Error while fetching product"
	MsgNoItemsInCart     = "User has not added any items to the cart."
	MsgCartFetched       = "User's cart fetched successfully."
	MsgItemAdded         = "Product added to cart successfully"
	MsgItemUpdated       = "Cart item updated successfully"
	MsgCartCleared       = "All products cleared from cart"
	MsgItemRemoved       = "Product removed from cart successfully"
)

// Error est l'échec typé d'une opération panier.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func PersistenceError(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}
