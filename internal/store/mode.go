package store

// Mode selects how incoming chat input is interpreted.
type Mode uint8

const (
	// DataMode treats input as a dataset path to profile and clean.
	// Zero value, and the default for users never seen before.
	DataMode Mode = iota
	// ChatMode converses with the local model using stored history.
	ChatMode
)

func (m Mode) String() string {
	switch m {
	case ChatMode:
		return "chat"
	default:
		return "data"
	}
}

// ParseMode maps a persisted integer back onto the enum. Anything
// outside the known values reads as DataMode.
func ParseMode(v int) Mode {
	if v == int(ChatMode) {
		return ChatMode
	}
	return DataMode
}
