package errutil

import "net/http"

// CoreStatus is the transport-agnostic error code carried by BaseError.
type CoreStatus string

const (
	StatusBadRequest           CoreStatus = "BAD_REQUEST"
	StatusValidationFailed     CoreStatus = "VALIDATION_FAILED"
	StatusUnauthorized         CoreStatus = "UNAUTHORIZED"
	StatusForbidden            CoreStatus = "FORBIDDEN"
	StatusNotFound             CoreStatus = "NOT_FOUND"
	StatusConflict             CoreStatus = "CONFLICT"
	StatusUnprocessableEntity  CoreStatus = "UNPROCESSABLE_ENTITY"
	StatusUnsupportedMediaType CoreStatus = "UNSUPPORTED_MEDIA_TYPE"
	StatusPaymentRequired      CoreStatus = "PAYMENT_REQUIRED"
	StatusTooManyRequests      CoreStatus = "TOO_MANY_REQUESTS"
	StatusTimeout              CoreStatus = "TIMEOUT"
	StatusGatewayTimeout       CoreStatus = "GATEWAY_TIMEOUT"
	StatusClientClosedRequest  CoreStatus = "CLIENT_CLOSED_REQUEST"
	StatusNotImplemented       CoreStatus = "NOT_IMPLEMENTED"
	StatusBadGateway           CoreStatus = "BAD_GATEWAY"
	StatusServiceUnavailable   CoreStatus = "SERVICE_UNAVAILABLE"
	StatusInternal             CoreStatus = "INTERNAL"
	StatusUnknown              CoreStatus = "UNKNOWN"
)

// HTTPStatus maps the CoreStatus to its HTTP status code equivalent.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest, StatusValidationFailed:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	case StatusUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case StatusUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case StatusPaymentRequired:
		return http.StatusPaymentRequired
	case StatusTooManyRequests:
		return http.StatusTooManyRequests
	case StatusTimeout:
		return http.StatusRequestTimeout
	case StatusGatewayTimeout:
		return http.StatusGatewayTimeout
	case StatusClientClosedRequest:
		// non-standard nginx code for a client that went away
		return 499
	case StatusNotImplemented:
		return http.StatusNotImplemented
	case StatusBadGateway:
		return http.StatusBadGateway
	case StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
