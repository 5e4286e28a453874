package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"
	ErrAuth            = "E_AUTH"

	// Message handling.
	ErrBadRequest  = "E_BAD_REQUEST"
	ErrDuplicate   = "E_DUPLICATE"
	ErrUnsupported = "E_UNSUPPORTED"
	ErrInternal    = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrAuth:            {},
	ErrBadRequest:      {},
	ErrDuplicate:       {},
	ErrUnsupported:     {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
