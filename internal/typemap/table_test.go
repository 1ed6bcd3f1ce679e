package typemap

// staticTable is a minimal in-memory lookup table mirroring the shape of
// the production knowledge store.
type staticTable struct {
	builtins  map[string]Entry
	libraries map[string]Entry // keyed module + "." + name
	modules   map[string]bool
}

func newStaticTable() *staticTable {
	t := &staticTable{
		builtins: map[string]Entry{
			"int":       {TSName: "number", Confidence: ConfidenceHigh},
			"float":     {TSName: "number", Confidence: ConfidenceHigh},
			"str":       {TSName: "string", Confidence: ConfidenceHigh},
			"bool":      {TSName: "boolean", Confidence: ConfidenceHigh},
			"None":      {TSName: "null", Confidence: ConfidenceHigh},
			"bytes":     {TSName: "Uint8Array", Confidence: ConfidenceHigh},
			"list":      {TSName: "Array", Confidence: ConfidenceHigh, Shape: "array"},
			"dict":      {TSName: "Record", Confidence: ConfidenceHigh, Shape: "record"},
			"tuple":     {TSName: "tuple", Confidence: ConfidenceHigh, Shape: "tuple"},
			"set":       {TSName: "Set", Confidence: ConfidenceHigh, Shape: "set"},
			"frozenset": {TSName: "ReadonlySet", Confidence: ConfidenceHigh, Shape: "readonly_set"},
			"List":      {TSName: "Array", Confidence: ConfidenceHigh, Shape: "array"},
			"Dict":      {TSName: "Record", Confidence: ConfidenceHigh, Shape: "record"},
			"Sequence":  {TSName: "Array", Confidence: ConfidenceMedium, Shape: "array"},
			"Any":       {TSName: "any", Confidence: ConfidenceLow, Notes: []string{"escape hatch"}},
			"object":    {TSName: "object", Confidence: ConfidenceMedium},
		},
		libraries: map[string]Entry{
			"datetime.datetime": {TSName: "Date", Confidence: ConfidenceHigh},
			"decimal.Decimal":   {TSName: "string", Confidence: ConfidenceMedium, Notes: []string{"no native decimal"}},
		},
		modules: map[string]bool{"datetime": true, "decimal": true},
	}
	return t
}

func (t *staticTable) Builtin(name string) (Entry, bool) {
	e, ok := t.builtins[name]
	return e, ok
}

func (t *staticTable) Qualified(module, name string) (Entry, bool) {
	e, ok := t.libraries[module+"."+name]
	return e, ok
}

func (t *staticTable) HasModule(module string) bool {
	return t.modules[module]
}
