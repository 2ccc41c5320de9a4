package fsm

// Common interaction event types emitted by pointer handling.
const (
	EventPointerEnter = "pointer_enter"
	EventPointerLeave = "pointer_leave"
	EventPointerDown  = "pointer_down"
	EventPointerUp    = "pointer_up"
	EventToggle       = "toggle"
	EventSetChecked   = "set_checked"
	EventSetUnchecked = "set_unchecked"
	EventSetMixed     = "set_mixed"
	EventDisable      = "disable"
	EventEnable       = "enable"
)

// State ids shared by the built-in interaction machines.
const (
	StateIdle     StateID = "idle"
	StateHovered  StateID = "hovered"
	StatePressed  StateID = "pressed"
	StateDisabled StateID = "disabled"

	StateOff StateID = "off"
	StateOn  StateID = "on"

	StateUnchecked StateID = "unchecked"
	StateChecked   StateID = "checked"
	StateMixed     StateID = "mixed"
)

// ButtonConfig describes the standard pointer interaction machine for a
// clickable element: idle, hovered and pressed, with a disabled state
// that swallows pointer events until re-enabled.
func ButtonConfig(id string) Config {
	return Config{
		ID:      id,
		Initial: StateIdle,
		States: []StateSpec{
			{ID: StateIdle},
			{ID: StateHovered},
			{ID: StatePressed},
			{ID: StateDisabled},
		},
		Transitions: []TransitionSpec{
			{From: StateIdle, Event: EventPointerEnter, Target: StateHovered},
			{From: StateHovered, Event: EventPointerLeave, Target: StateIdle},
			{From: StateHovered, Event: EventPointerDown, Target: StatePressed},
			{From: StatePressed, Event: EventPointerUp, Target: StateHovered},
			{From: StatePressed, Event: EventPointerLeave, Target: StateIdle},
			{From: StateIdle, Event: EventDisable, Target: StateDisabled},
			{From: StateHovered, Event: EventDisable, Target: StateDisabled},
			{From: StatePressed, Event: EventDisable, Target: StateDisabled},
			{From: StateDisabled, Event: EventEnable, Target: StateIdle},
		},
	}
}

// ToggleConfig describes a two-position switch driven by a single toggle
// event.
func ToggleConfig(id string) Config {
	return Config{
		ID:      id,
		Initial: StateOff,
		States: []StateSpec{
			{ID: StateOff},
			{ID: StateOn},
		},
		Transitions: []TransitionSpec{
			{From: StateOff, Event: EventToggle, Target: StateOn},
			{From: StateOn, Event: EventToggle, Target: StateOff},
		},
	}
}

// CheckboxConfig describes a tri-state checkbox. Toggling from the mixed
// state resolves to checked.
func CheckboxConfig(id string) Config {
	return Config{
		ID:      id,
		Initial: StateUnchecked,
		States: []StateSpec{
			{ID: StateUnchecked},
			{ID: StateChecked},
			{ID: StateMixed},
		},
		Transitions: []TransitionSpec{
			{From: StateUnchecked, Event: EventToggle, Target: StateChecked},
			{From: StateChecked, Event: EventToggle, Target: StateUnchecked},
			{From: StateMixed, Event: EventToggle, Target: StateChecked},
			{From: StateUnchecked, Event: EventSetMixed, Target: StateMixed},
			{From: StateChecked, Event: EventSetMixed, Target: StateMixed},
			{From: StateMixed, Event: EventSetChecked, Target: StateChecked},
			{From: StateMixed, Event: EventSetUnchecked, Target: StateUnchecked},
			{From: StateUnchecked, Event: EventSetChecked, Target: StateChecked},
			{From: StateChecked, Event: EventSetUnchecked, Target: StateUnchecked},
		},
	}
}
