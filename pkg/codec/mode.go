package codec

import "fmt"

// Mode selects the direction of a conversion.
type Mode string

const (
	ModeEncode Mode = "encode"
	ModeDecode Mode = "decode"
)

func (m *Mode) String() string {
	return string(*m)
}

func (m *Mode) Set(v string) error {
	switch v {
	case "encode", "decode":
		*m = Mode(v)
		return nil
	default:
		return fmt.Errorf("must be one of: encode, decode")
	}
}

func (m *Mode) Type() string {
	return "Mode"
}

// Toggle returns the opposite mode.
func (m Mode) Toggle() Mode {
	if m == ModeDecode {
		return ModeEncode
	}
	return ModeDecode
}
