// Package status defines the canonical event status-code space and the
// translation from vendor-specific tokens into it.
package status

import "fmt"

// Canonical status codes. Every vendor token a tracker can send is
// translated into one of these before persistence.
const (
	None   = 0x0000 // no code supplied
	Ignore = 0xFFFF // drop the message, ack OK

	Location = 0xF020
	Waymark  = 0xF210
	Query    = 0xF171

	MotionMoving      = 0xF112
	MotionDormant     = 0xF116
	MotionExcessSpeed = 0xF11A

	GeofenceArrive = 0xF230
	GeofenceDepart = 0xF240
	Parked         = 0xF297
	Unparked       = 0xF29A

	Login    = 0xF311
	Logout   = 0xF315
	JobStart = 0xF321
	JobStop  = 0xF325

	IgnitionOn  = 0xF401
	IgnitionOff = 0xF403

	// Generic digital inputs. InputOn00..InputOn08 are InputOn+1..InputOn+9;
	// same layout for the off codes.
	InputOn  = 0xF420
	InputOff = 0xF440

	PanicOn   = 0xF841
	PanicOff  = 0xF842
	Notify    = 0xF844
	Medical   = 0xF849
	Vibration = 0xF891
	Impact    = 0xF8B1

	LowBattery   = 0xFD10
	PowerFailure = 0xFD13
	PowerRestore = 0xFD15
)

// InputOnIndex returns the indexed input-on code for inputs 0..8.
func InputOnIndex(i int) int {
	return InputOn + 1 + i
}

// InputOffIndex returns the indexed input-off code for inputs 0..8.
func InputOffIndex(i int) int {
	return InputOff + 1 + i
}

// String formats a code the way it appears in logs and reports.
func String(code int) string {
	return fmt.Sprintf("0x%04X", code)
}
