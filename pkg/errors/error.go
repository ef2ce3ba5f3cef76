package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"

	// FeedReadError represents an error while reading the order feed.
	FeedReadError ErrorCode = "feed_read_error"
	// FeedDecodeError represents a malformed payload on the order feed.
	FeedDecodeError ErrorCode = "feed_decode_error"
	// TradePublishError represents an error while publishing trades.
	TradePublishError ErrorCode = "trade_publish_error"
	// RingCapacityError represents an invalid ring capacity at startup.
	RingCapacityError ErrorCode = "ring_capacity_error"
)
