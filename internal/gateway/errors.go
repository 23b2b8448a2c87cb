package gateway

// Kind classifies a gateway failure. Every error returned by a Gateway
// operation is a *Error carrying exactly one of these kinds, so callers can
// branch on the cause without inspecting message text.
type Kind int

const (
	// KindUninitialized means credentials were missing or the construction-time
	// connectivity probe failed. Permanent for the gateway's lifetime.
	KindUninitialized Kind = iota

	// KindRateLimited means the fast or slow call window was exhausted. The
	// remote call was never made.
	KindRateLimited

	// KindValidation means the order request failed local validation. The
	// remote call was never made.
	KindValidation

	// KindDomain means the broker rejected the request with a structured
	// code and message.
	KindDomain

	// KindTransport covers everything else: network failures, decode
	// failures, unexpected errors.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindUninitialized:
		return "uninitialized"
	case KindRateLimited:
		return "rate_limited"
	case KindValidation:
		return "validation"
	case KindDomain:
		return "domain"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is the single outbound failure shape for every gateway operation.
// Message is human-readable; Raw preserves the original remote error text
// verbatim for diagnostics (domain and transport failures only).
type Error struct {
	Kind    Kind
	Op      string // operation name, e.g. "submit order"
	Message string
	Raw     string

	// Domain failures only: the remote HTTP status and the broker's own
	// machine error code.
	StatusCode int
	Code       int
}

func (e *Error) Error() string {
	return e.Message
}
