package adsb

// Message is a decoded extended squitter that can be folded into aircraft state
type Message interface {
	TimestampNs() int64
	Address() IcaoAddress
}

// Decode turns a raw frame into a typed message. ok is false for frames whose
// format or type code is not handled, and for undecodable content.
func Decode(raw RawMessage) (Message, bool) {
	if raw.DownlinkFormat != DFExtendedSquitter {
		return nil, false
	}

	switch tc := raw.TypeCode; {
	case tc >= MinIdentificationTypeCode && tc <= MaxIdentificationTypeCode:
		msg, ok := DecodeIdentification(raw)
		if !ok {
			return nil, false
		}
		return msg, true
	case (tc >= 9 && tc <= 18) || (tc >= 20 && tc <= 22):
		msg, ok := DecodePosition(raw)
		if !ok {
			return nil, false
		}
		return msg, true
	default:
		return nil, false
	}
}
