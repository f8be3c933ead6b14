package ir

// ParameterType enumerates the types a template parameter may declare.
type ParameterType string

const (
	TypeString ParameterType = "string"
	TypeBool   ParameterType = "bool"
	TypeInt    ParameterType = "int"
	TypeObject ParameterType = "object"
	TypeArray  ParameterType = "array"
)

// Template is a declarative deployment document: a pure function from a
// parameter record to a resource graph.
type Template struct {
	Name       string                `pkl:"name"`
	Parameters map[string]*Parameter `pkl:"parameters"`
	Resources  []*Resource           `pkl:"resources"`
	Modules    []*Module             `pkl:"modules"`
	Outputs    map[string]*Output    `pkl:"outputs"`
}

// Parameter declares a typed template input.
type Parameter struct {
	Type        ParameterType `pkl:"type"`
	Default     any           `pkl:"default"`
	Required    bool          `pkl:"required"`
	Allowed     []any         `pkl:"allowed"` // enumerated allowed values, empty means unconstrained
	Secure      bool          `pkl:"secure"`  // value is redacted from diagnostic output
	Description string        `pkl:"description"`
}

// Resource represents a single declared resource.
//
// Name is the declaration symbol used for addressing, parenting and
// references; the deployed resource name lives in Properties["name"] and
// may contain ${param.*} interpolation.
type Resource struct {
	Type       string         `pkl:"type"` // e.g. "Microsoft.Storage/storageAccounts"
	Name       string         `pkl:"name"`
	Condition  string         `pkl:"condition"` // boolean expression over parameters, empty means always
	ForEach    string         `pkl:"forEach"`   // array parameter to fan out over
	Parent     string         `pkl:"parent"`    // declaration symbol of the parent resource
	Scope      string         `pkl:"scope"`     // declaration symbol the resource is scoped to
	Existing   bool           `pkl:"existing"`  // references an already-deployed resource, emits no node
	DependsOn  []string       `pkl:"dependsOn"`
	Properties map[string]any `pkl:"properties"`
}

// Module is a named composition boundary: it binds a parameter record to
// another template and exposes that template's outputs.
type Module struct {
	Name       string         `pkl:"name"`
	Template   string         `pkl:"template"`
	Condition  string         `pkl:"condition"`
	DependsOn  []string       `pkl:"dependsOn"`
	Parameters map[string]any `pkl:"parameters"`
}

// Output is a value computed from the resolved graph, exposed for
// consumption by dependent templates or the caller.
type Output struct {
	Value       any    `pkl:"value"`
	Secure      bool   `pkl:"secure"`
	Description string `pkl:"description"`
}
