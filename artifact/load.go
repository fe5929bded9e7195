package artifact

import (
	"bytes"
	"fmt"
	"go/constant"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/gcexportdata"
)

// Load decodes export data into a type-checked package recorded under path.
// imports holds packages already loaded by the caller and receives the ones
// the export data references; it may be nil.
func Load(data []byte, path string, imports map[string]*types.Package) (*types.Package, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if imports == nil {
		imports = make(map[string]*types.Package)
	}
	pkg, err := gcexportdata.Read(bytes.NewReader(data), token.NewFileSet(), imports, path)
	if err != nil {
		return nil, fmt.Errorf("artifact: loading %s: %w", path, err)
	}
	return pkg, nil
}

// LoadArtifact verifies a and loads its data. The package path is the
// package's own name, which is what the compiler records when no explicit
// path was given.
func LoadArtifact(a *Artifact, path string) (*types.Package, error) {
	if a.Format != FormatExportData {
		return nil, fmt.Errorf("artifact: %s has format %q, want %q", a.Symbol, a.Format, FormatExportData)
	}
	if err := a.Verify(); err != nil {
		return nil, err
	}
	return Load(a.Data, path, nil)
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// PackageModel is the exported API of a loaded package.
type PackageModel struct {
	Path      string
	Name      string
	Imports   []string
	Types     []TypeModel
	Functions []FunctionModel
	Constants []ConstantModel
}

// Type returns the model for the named type, or nil.
func (m *PackageModel) Type(name string) *TypeModel {
	for i := range m.Types {
		if m.Types[i].Name == name {
			return &m.Types[i]
		}
	}
	return nil
}

// TypeModel describes a named type.
type TypeModel struct {
	Name     string
	Kind     string // "struct", "interface" or the underlying type
	Exported bool
	Fields   []FieldModel
	Methods  []FunctionModel
}

// FunctionModel describes a function or method.
type FunctionModel struct {
	Name       string
	RecvType   string // "Greeter" or "*Greeter" for methods, empty otherwise
	Params     []ParamModel
	Results    []ParamModel
	ReturnsErr bool
}

// IsMethod reports whether fm has a receiver.
func (fm FunctionModel) IsMethod() bool { return fm.RecvType != "" }

// ParamModel is a parameter or result.
type ParamModel struct {
	Name    string
	TypeStr string
}

// FieldModel is a struct field.
type FieldModel struct {
	Name     string
	TypeStr  string
	Embedded bool
}

// ConstantModel is a package-level constant.
type ConstantModel struct {
	Name    string
	TypeStr string
	Value   string
}

// Inspect walks the package scope. Every named type the package carries is
// listed; functions and constants only when exported.
func Inspect(pkg *types.Package) *PackageModel {
	q := qualifier(pkg)
	model := &PackageModel{
		Path: pkg.Path(),
		Name: pkg.Name(),
	}
	for _, imp := range pkg.Imports() {
		model.Imports = append(model.Imports, imp.Path())
	}

	scope := pkg.Scope()
	for _, name := range scope.Names() {
		switch o := scope.Lookup(name).(type) {
		case *types.TypeName:
			if tm := typeModel(o, q); tm != nil {
				model.Types = append(model.Types, *tm)
			}
		case *types.Func:
			if o.Exported() {
				model.Functions = append(model.Functions, functionModel(o.Name(), o.Type().(*types.Signature), q))
			}
		case *types.Const:
			if o.Exported() {
				model.Constants = append(model.Constants, constantModel(o, q))
			}
		}
	}
	return model
}

func typeModel(tn *types.TypeName, q types.Qualifier) *TypeModel {
	named, ok := tn.Type().(*types.Named)
	if !ok || tn.IsAlias() {
		return nil
	}
	tm := &TypeModel{
		Name:     tn.Name(),
		Exported: tn.Exported(),
	}

	switch u := named.Underlying().(type) {
	case *types.Struct:
		tm.Kind = "struct"
		for i := 0; i < u.NumFields(); i++ {
			f := u.Field(i)
			tm.Fields = append(tm.Fields, FieldModel{
				Name:     f.Name(),
				TypeStr:  types.TypeString(f.Type(), q),
				Embedded: f.Embedded(),
			})
		}
	case *types.Interface:
		tm.Kind = "interface"
		for i := 0; i < u.NumExplicitMethods(); i++ {
			m := u.ExplicitMethod(i)
			tm.Methods = append(tm.Methods, functionModel(m.Name(), m.Type().(*types.Signature), q))
		}
		return tm
	default:
		tm.Kind = types.TypeString(u, q)
	}

	// Declared methods only; promoted methods of embedded fields are left out.
	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		tm.Methods = append(tm.Methods, functionModel(m.Name(), m.Type().(*types.Signature), q))
	}
	return tm
}

func functionModel(name string, sig *types.Signature, q types.Qualifier) FunctionModel {
	fm := FunctionModel{Name: name}
	if recv := sig.Recv(); recv != nil {
		if _, ok := recv.Type().Underlying().(*types.Interface); !ok {
			fm.RecvType = types.TypeString(recv.Type(), q)
		}
	}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		fm.Params = append(fm.Params, ParamModel{Name: p.Name(), TypeStr: types.TypeString(p.Type(), q)})
	}
	results := sig.Results()
	for i := 0; i < results.Len(); i++ {
		r := results.At(i)
		fm.Results = append(fm.Results, ParamModel{Name: r.Name(), TypeStr: types.TypeString(r.Type(), q)})
	}
	if results.Len() > 0 {
		fm.ReturnsErr = isErrorType(results.At(results.Len() - 1).Type())
	}
	return fm
}

func constantModel(c *types.Const, q types.Qualifier) ConstantModel {
	val := c.Val()
	var s string
	if val.Kind() == constant.String {
		s = constant.StringVal(val)
	} else {
		s = val.ExactString()
	}
	return ConstantModel{
		Name:    c.Name(),
		TypeStr: types.TypeString(c.Type(), q),
		Value:   s,
	}
}

func isErrorType(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func qualifier(pkg *types.Package) types.Qualifier {
	return func(other *types.Package) string {
		if other == pkg {
			return ""
		}
		return other.Name()
	}
}
