package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeMissingField          = "MISSING_FIELD"
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeInvalidQuantity       = "INVALID_QUANTITY"
	ErrCodeInvalidTierTable      = "INVALID_TIER_TABLE"
	ErrCodeTierOverlap           = "TIER_OVERLAP"
	ErrCodeInvalidBudget         = "INVALID_BUDGET"
	ErrCodeNotPriced             = "NOT_PRICED"
	ErrCodeNoShippingAvailable   = "NO_SHIPPING_AVAILABLE"
	ErrCodeShippingNotEligible   = "SHIPPING_NOT_ELIGIBLE"
	ErrCodeMinimumOrderNotMet    = "MINIMUM_ORDER_NOT_MET"
	ErrCodeProductNotFound       = "PRODUCT_NOT_FOUND"
	ErrCodeQuoteNotFound         = "QUOTE_NOT_FOUND"
	ErrCodeOrderNotFound         = "ORDER_NOT_FOUND"
	ErrCodeDraftNotFound         = "DRAFT_NOT_FOUND"
	ErrCodeAlreadyConverted      = "ALREADY_CONVERTED"
	ErrCodeInvalidState          = "INVALID_STATE"
	ErrCodeQuoteImmutable        = "QUOTE_IMMUTABLE"
	ErrCodeQuoteConflict         = "QUOTE_CONFLICT"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeUnauthorised          = "UNAUTHORIZED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeInternalError         = "INTERNAL_ERROR"
	ErrCodeUnpricedQuoteApproval = "UNPRICED_LINES"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
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
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidTierTable    = NewDomainError(ErrCodeInvalidTierTable, "Price tier table is malformed")
	ErrTierOverlap         = NewDomainError(ErrCodeTierOverlap, "Price tiers overlap")
	ErrInvalidBudget       = NewDomainError(ErrCodeInvalidBudget, "Budget definitions are malformed")
	ErrNotPriced           = NewDomainError(ErrCodeNotPriced, "Product must be quoted on request")
	ErrNoShippingAvailable = NewDomainError(ErrCodeNoShippingAvailable, "No shipping method is available for this shipment")
	ErrShippingNotEligible = NewDomainError(ErrCodeShippingNotEligible, "Selected shipping method is not available for this shipment")
	ErrMinimumOrderNotMet  = NewDomainError(ErrCodeMinimumOrderNotMet, "Order subtotal is below the minimum order value")
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrQuoteNotFound       = NewDomainError(ErrCodeQuoteNotFound, "Quote not found")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrDraftNotFound       = NewDomainError(ErrCodeDraftNotFound, "Draft not found")
	ErrAlreadyConverted    = NewDomainError(ErrCodeAlreadyConverted, "Quote has already been converted to an order")
	ErrInvalidState        = NewDomainError(ErrCodeInvalidState, "Quote is not in a state that allows this operation")
	ErrQuoteImmutable      = NewDomainError(ErrCodeQuoteImmutable, "Quote can no longer be edited")
	ErrQuoteConflict       = NewDomainError(ErrCodeQuoteConflict, "Quote status changed concurrently")
	ErrInvalidTransition   = NewDomainError(ErrCodeInvalidTransition, "Status transition is not allowed")
	ErrUnpricedQuoteLines  = NewDomainError(ErrCodeUnpricedQuoteApproval, "Every quote line must be priced before approval or conversion")
)

// ValidationError reports malformed input rejected before any computation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ErrorCode extracts the API error code carried by err, if any.
func ErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ErrCodeValidation
	}

	return ErrCodeInternalError
}
