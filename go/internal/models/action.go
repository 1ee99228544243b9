package models

// Action is one discrete operator input delivered to the state machine per poll.
type Action byte

const (
	ActionNone         Action = 0
	ActionConfirm      Action = '#'
	ActionCancel       Action = '*'
	ActionPlant        Action = 'p'
	ActionDefuse       Action = 'd'
	ActionCancelDefuse Action = 'c'
	ActionCancelPlant  Action = 'n'
)

// Menu selectors on the main menu.
const (
	ActionSelectSearchAndDestroy Action = '1'
	ActionSelectSabotage         Action = '2'
)

// IsDigit reports whether a is a numeric key.
func (a Action) IsDigit() bool { return a >= '0' && a <= '9' }

func (a Action) String() string {
	if a == ActionNone {
		return "none"
	}
	return string(rune(a))
}
