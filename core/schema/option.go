package schema

// Option is a (name, value) annotation attached to schemas, messages,
// fields, enums, and unions. Value is nil when the option carries no value;
// that is distinct from the option being absent.
type Option struct {
	Name  string
	Value *string
}

// Options is an ordered option list. Lookups return the first match.
type Options []Option

// Has reports whether an option with the given name exists.
func (o Options) Has(name string) bool {
	for _, opt := range o {
		if opt.Name == name {
			return true
		}
	}
	return false
}

// Get returns the value of the first option with the given name.
// The second result is false when the option is absent or has no value.
func (o Options) Get(name string) (string, bool) {
	for _, opt := range o {
		if opt.Name == name {
			if opt.Value == nil {
				return "", false
			}
			return *opt.Value, true
		}
	}
	return "", false
}

// Map returns the options as a name-to-value map. Options without a value
// map to the empty string; on duplicate names the first occurrence wins.
func (o Options) Map() map[string]string {
	m := make(map[string]string, len(o))
	for _, opt := range o {
		if _, ok := m[opt.Name]; ok {
			continue
		}
		if opt.Value != nil {
			m[opt.Name] = *opt.Value
		} else {
			m[opt.Name] = ""
		}
	}
	return m
}
