package models

// GameAction is a seat's move as received over the wire, before it is turned into an intent.
type GameAction struct {
	ActionType string                 `json:"action_type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// PayloadInt reads an integer payload field. JSON numbers arrive as float64.
func (a GameAction) PayloadInt(key string) (int, bool) {
	switch v := a.Payload[key].(type) {
	case float64:
		return int(v), v == float64(int(v))
	case int:
		return v, true
	}
	return 0, false
}

// PayloadString reads a string payload field; missing or mistyped fields read as "".
func (a GameAction) PayloadString(key string) string {
	s, _ := a.Payload[key].(string)
	return s
}
