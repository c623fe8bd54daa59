// Package snof implements the line-oriented ".snof" record file format and a
// durable store on top of it: whole-file snapshots with atomic replace and
// serialized read-modify-write.
package snof

// Keys of the fields the user directory works with. The schema is sparse:
// any subset of these (plus unknown keys) may appear on a record.
const (
	FieldUsername         = "username"
	FieldPassword         = "password"
	FieldEmail            = "email"
	FieldIP               = "ip"
	FieldAvatar           = "pfp"
	FieldID               = "_id"
	FieldResetToken       = "resetToken"
	FieldResetTokenExpiry = "resetTokenExpiry"
)

// Field is a single key/value pair within a Record.
type Field struct {
	Key   string
	Value string
}

// Record is one user's persisted field set. Field order is preserved so that
// decode/encode round-trips byte-identically, but carries no meaning. An
// absent field and a field holding the empty string are distinct states;
// Get reports which one the caller is looking at.
type Record struct {
	fields []Field
}

// NewRecord builds a Record from key/value pairs in the given order.
func NewRecord(fields ...Field) Record {
	r := Record{}
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Get returns the value of key and whether the field is present.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether the field is present, regardless of its value.
func (r Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores value under key, replacing an existing field in place or
// appending a new one. Empty keys are ignored.
func (r *Record) Set(key, value string) {
	if key == "" {
		return
	}
	for i, f := range r.fields {
		if f.Key == key {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Del removes the field if present.
func (r *Record) Del(key string) {
	for i, f := range r.fields {
		if f.Key == key {
			r.fields = append(r.fields[:i], r.fields[i+1:]...)
			return
		}
	}
}

// Len returns the number of fields on the record.
func (r Record) Len() int {
	return len(r.fields)
}

// Fields returns a copy of the record's fields in their stored order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Clone returns a deep copy safe to mutate independently.
func (r Record) Clone() Record {
	return Record{fields: r.Fields()}
}
