package models

import "encoding/json"

// User is the opaque payload handed over by the authentication widget.
// Only a few well-known attributes are read, the rest is kept verbatim.
type User struct {
	raw map[string]json.RawMessage
}

func NewUser(raw map[string]json.RawMessage) *User {
	return &User{raw: raw}
}

func (u *User) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &u.raw)
}

func (u User) MarshalJSON() ([]byte, error) {
	if u.raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(u.raw)
}

// ID returns userId (or id) as a string, empty when absent
func (u *User) ID() string {
	for _, key := range []string{"userId", "id", "Id"} {
		if s := u.str(key); s != "" {
			return s
		}
	}
	return ""
}

func (u *User) Email() string {
	for _, key := range []string{"emailAddress", "email"} {
		if s := u.str(key); s != "" {
			return s
		}
	}
	return ""
}

func (u *User) str(key string) string {
	v, ok := u.raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}
