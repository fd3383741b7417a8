package constants

const (
	MAX_PAGE_SIZE        = uint64(100)
	DEFAULT_OFFSET       = uint64(0)
	DEFAULT_PAGE_SIZE    = uint64(20)
	MAX_PROPERTIES       = 32
	MAX_PROPERTY_LENGTH  = 256
	MAX_TOKEN_NAME_BYTES = 128
)
