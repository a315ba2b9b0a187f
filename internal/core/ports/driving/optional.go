package driving

import (
	"bytes"
	"encoding/json"
)

// OptionalString distinguishes an absent JSON field from an explicit null.
//   - Present=false: field absent (keep current value)
//   - Present=true, Value=nil: field is null (move to root)
//   - Present=true, Value=&"id": field has value
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only called when the field is present.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Set returns a present OptionalString holding v (nil = null)
func Set(v *string) OptionalString {
	return OptionalString{Present: true, Value: v}
}
