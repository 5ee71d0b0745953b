package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error          string     `json:"error"`
	Message        string     `json:"message"`
	ProductID      *uuid.UUID `json:"productId,omitempty"`
	AvailableStock *int       `json:"availableStock,omitempty"`
	Detail         string     `json:"detail,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeInvalidField      = "INVALID_FIELD"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeEmptyCart         = "EMPTY_CART"
	ErrCodeInvalidAddress    = "INVALID_ADDRESS"
	ErrCodeInvalidCoupon     = "INVALID_COUPON"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure carrying a user-facing message.
type DomainError struct {
	Code      string
	Message   string
	ProductID *uuid.UUID
	Available *int
	Err       error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is lets dynamically built errors match their class sentinel through errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return (t == ErrInsufficientStock || t == ErrInvalidCoupon || t == ErrTransactionFailed) && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrUnauthorised      = NewDomainError(ErrCodeUnauthorised, "برای ادامه وارد حساب کاربری شوید")
	ErrProductNotFound   = NewDomainError(ErrCodeNotFound, "محصول یافت نشد")
	ErrVariantNotFound   = NewDomainError(ErrCodeNotFound, "تنوع انتخاب‌شده برای این محصول یافت نشد")
	ErrCartItemNotFound  = NewDomainError(ErrCodeNotFound, "آیتم سبد خرید یافت نشد")
	ErrOrderNotFound     = NewDomainError(ErrCodeNotFound, "سفارش یافت نشد")
	ErrCouponNotFound    = NewDomainError(ErrCodeNotFound, "کد تخفیف یافت نشد")
	ErrEmptyCart         = NewDomainError(ErrCodeEmptyCart, "سبد خرید شما خالی است")
	ErrInvalidAddress    = NewDomainError(ErrCodeInvalidAddress, "آدرس انتخاب‌شده معتبر نیست")
	ErrInvalidQuantity   = NewDomainError(ErrCodeInvalidQuantity, "تعداد باید بیشتر از صفر باشد")
	ErrInvalidCoupon     = NewDomainError(ErrCodeInvalidCoupon, "کد تخفیف معتبر نیست")
	ErrCouponInactive    = NewDomainError(ErrCodeInvalidCoupon, "کد تخفیف فعال نیست")
	ErrCouponExpired     = NewDomainError(ErrCodeInvalidCoupon, "کد تخفیف منقضی شده است")
	ErrCouponExhausted   = NewDomainError(ErrCodeInvalidCoupon, "ظرفیت استفاده از این کد تخفیف تکمیل شده است")
	ErrInsufficientStock = NewDomainError(ErrCodeInsufficientStock, "موجودی کافی نیست")
	ErrMissingPayment    = NewDomainError(ErrCodeMissingField, "روش پرداخت را انتخاب کنید")
	ErrMissingStock      = NewDomainError(ErrCodeMissingField, "مقدار موجودی الزامی است")
	ErrNegativeStock     = NewDomainError(ErrCodeInvalidField, "موجودی نمی‌تواند منفی باشد")
	ErrInvalidSizeStock  = NewDomainError(ErrCodeInvalidField, "ساختار موجودی سایزها معتبر نیست")
	ErrInvalidShipping   = NewDomainError(ErrCodeInvalidField, "هزینه ارسال نمی‌تواند منفی باشد")
	ErrTransactionFailed = NewDomainError(ErrCodeInternalError, "ثبت سفارش با خطا مواجه شد. لطفا دوباره تلاش کنید")
)

// NewTransactionError wraps an unexpected failure inside the order commit.
func NewTransactionError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInternalError,
		Message: ErrTransactionFailed.Message,
		Err:     err,
	}
}

// NewInsufficientStockError builds an InsufficientStock error naming the
// variant and the currently available count.
func NewInsufficientStockError(productID uuid.UUID, descriptor string, available int) *DomainError {
	if available < 0 {
		available = 0
	}
	msg := fmt.Sprintf("موجودی کافی نیست. موجودی قابل سفارش: %d عدد", available)
	if descriptor != "" {
		msg = fmt.Sprintf("موجودی %s کافی نیست. موجودی قابل سفارش: %d عدد", descriptor, available)
	}
	id := productID
	return &DomainError{
		Code:      ErrCodeInsufficientStock,
		Message:   msg,
		ProductID: &id,
		Available: &available,
	}
}

// NewMinPurchaseError reports that the cart total is below a coupon's minimum.
func NewMinPurchaseError(minPurchase string) *DomainError {
	return NewDomainError(ErrCodeInvalidCoupon,
		fmt.Sprintf("حداقل مبلغ خرید برای استفاده از این کد تخفیف %s است", minPurchase))
}

// VariantDescriptor renders a human-readable size/color label.
func VariantDescriptor(name, size, color string) string {
	switch {
	case size != "" && color != "":
		return fmt.Sprintf("%s (سایز %s، رنگ %s)", name, size, color)
	case size != "":
		return fmt.Sprintf("%s (سایز %s)", name, size)
	case color != "":
		return fmt.Sprintf("%s (رنگ %s)", name, color)
	default:
		return name
	}
}
