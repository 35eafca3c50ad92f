package schema

// Record is a normalized ClinicalRecord. Every registry field holds a value;
// an optional int field may be absent.
type Record struct {
	bools map[string]bool
	ints  map[string]int
	enums map[string]string
}

// NewRecord returns a record with every field at its registry default.
func NewRecord(reg *Registry) *Record {
	r := &Record{
		bools: make(map[string]bool),
		ints:  make(map[string]int),
		enums: make(map[string]string),
	}
	for _, f := range reg.fields {
		switch f.Kind {
		case KindBool:
			r.bools[f.Name] = false
		case KindInt:
			if def, ok := f.DefaultInt(); ok {
				r.ints[f.Name] = def
			}
		case KindEnum:
			r.enums[f.Name] = f.DefaultEnum()
		}
	}
	return r
}

// Bool returns a flag value. Unknown names read as false.
func (r *Record) Bool(name string) bool {
	return r.bools[name]
}

// Int returns an integer value and whether it is present.
func (r *Record) Int(name string) (int, bool) {
	n, ok := r.ints[name]
	return n, ok
}

// Enum returns an enum value. Unknown names read as the empty string.
func (r *Record) Enum(name string) string {
	return r.enums[name]
}

// Map returns the record as a plain map, absent values as nil.
func (r *Record) Map(reg *Registry) map[string]interface{} {
	out := make(map[string]interface{}, len(reg.fields))
	for _, f := range reg.fields {
		switch f.Kind {
		case KindBool:
			out[f.Name] = r.bools[f.Name]
		case KindInt:
			if n, ok := r.ints[f.Name]; ok {
				out[f.Name] = n
			} else {
				out[f.Name] = nil
			}
		case KindEnum:
			out[f.Name] = r.enums[f.Name]
		}
	}
	return out
}

func (r *Record) setBool(name string, v bool) {
	r.bools[name] = v
}

func (r *Record) setInt(name string, v int) {
	r.ints[name] = v
}

func (r *Record) clearInt(name string) {
	delete(r.ints, name)
}

func (r *Record) setEnum(name, v string) {
	r.enums[name] = v
}
