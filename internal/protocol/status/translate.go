package status

import (
	"strconv"
	"strings"
)

// baseTokens is the shared token table. Individual protocol profiles may
// override or extend it; see NewTranslator.
var baseTokens = map[string]int{
	"AUTO":       Location,
	"GPS":        Location,
	"SOS":        PanicOn,
	"PANIC":      PanicOn,
	"HELP":       PanicOn,
	"MOVE":       MotionMoving,
	"MOVING":     MotionMoving,
	"STATIONARY": MotionDormant,
	"OVERSPEED":  MotionExcessSpeed,
	"SPEEDING":   MotionExcessSpeed,
	"POLL":       Query,
	"QUERY":      Query,
	"GFIN":       GeofenceArrive,
	"GFOUT":      GeofenceDepart,
	"PARK":       Parked,
	"UNPARK":     Unparked,
	"ACCON":      IgnitionOn,
	"ACCOFF":     IgnitionOff,
	"IGNON":      IgnitionOn,
	"IGNOFF":     IgnitionOff,
	"LP":         LowBattery,
	"LOWBATT":    LowBattery,
	"DC":         PowerFailure,
	"CH":         PowerRestore,
	"OPEN":       InputOn + 1,
	"CLOSE":      InputOff + 1,
	"VIBRATION":  Vibration,
	"NOTIFY":     Notify,
	"MEDICAL":    Medical,
	"IMPACT":     Impact,
	"WAYMARK":    Waymark,
	"JOBSTART":   JobStart,
	"JOBEND":     JobStop,
	"LOGIN":      Login,
	"LOGOUT":     Logout,
}

func init() {
	// ALARM1..ALARM9 map to the indexed input-on codes.
	for i := 0; i < 9; i++ {
		baseTokens["ALARM"+strconv.Itoa(i+1)] = InputOnIndex(i)
	}
}

// Translator maps vendor status tokens to canonical codes. The zero value
// is not usable; construct with NewTranslator.
type Translator struct {
	tokens map[string]int
}

// NewTranslator builds a translator from the base table plus per-protocol
// overrides. Overrides win on conflict; an override value of None removes
// the token.
func NewTranslator(overrides map[string]int) *Translator {
	tokens := make(map[string]int, len(baseTokens)+len(overrides))
	for k, v := range baseTokens {
		tokens[k] = v
	}
	for k, v := range overrides {
		k = strings.ToUpper(strings.TrimSpace(k))
		if v == None {
			delete(tokens, k)
			continue
		}
		tokens[k] = v
	}
	return &Translator{tokens: tokens}
}

// Translate resolves a raw token to a canonical status code, falling back
// to def when the token is unknown. Numeric and 0x-hex tokens pass through
// as codes. A leading "B" or "B-" marks an event replayed from the device's
// flash storage and is stripped before matching.
func (t *Translator) Translate(token string, def int) int {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return def
	}
	if code, ok := t.lookup(token); ok {
		return code
	}
	if rest, ok := strings.CutPrefix(token, "B-"); ok && rest != "" {
		if code, ok := t.lookup(rest); ok {
			return code
		}
	} else if rest, ok := strings.CutPrefix(token, "B"); ok && rest != "" {
		if code, ok := t.lookup(rest); ok {
			return code
		}
	}
	return def
}

func (t *Translator) lookup(token string) (int, bool) {
	if code, ok := t.tokens[token]; ok {
		return code, true
	}
	if strings.HasPrefix(token, "0X") {
		if v, err := strconv.ParseInt(token[2:], 16, 32); err == nil {
			return int(v), true
		}
		return 0, false
	}
	if isDigits(token) {
		if v, err := strconv.ParseInt(token, 10, 32); err == nil {
			return int(v), true
		}
	}
	return 0, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
