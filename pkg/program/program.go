// Package program loads YAML descriptions of a class hierarchy and its
// methods, with explicit basic blocks, and serves them to the inliner as
// control flow graphs, call targets and subtype answers.
package program

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

// ObjectClass is the root of the class hierarchy. It is implicitly known.
const ObjectClass = "java/lang/Object"

type classDoc struct {
	Name       string   `yaml:"name"`
	Super      string   `yaml:"super"`
	Interfaces []string `yaml:"interfaces"`
	Interface  bool     `yaml:"interface"`
}

type blockDoc struct {
	Frequency int      `yaml:"frequency"`
	Succs     []int    `yaml:"succs"`
	Code      []string `yaml:"code"`
}

type methodDoc struct {
	Class      string     `yaml:"class"`
	Name       string     `yaml:"name"`
	Descriptor string     `yaml:"descriptor"`
	Static     bool       `yaml:"static"`
	Abstract   bool       `yaml:"abstract"`
	Size       int        `yaml:"size"`
	MaxLocals  int        `yaml:"max_locals"`
	Blocks     []blockDoc `yaml:"blocks"`
}

type document struct {
	Classes []classDoc  `yaml:"classes"`
	Methods []methodDoc `yaml:"methods"`
}

// Class is one class or interface of the program.
type Class struct {
	Name       string
	Super      string
	Interfaces []string
	Interface  bool
}

type methodEntry struct {
	method *inliner.Method
	graph  *inliner.Graph
}

// Program is a loaded fixture. It implements inliner.ControlFlowProvider
// and inliner.MethodCatalog and is read-only after loading.
type Program struct {
	classes    map[string]*Class
	classOrder []string
	methods    map[inliner.MethodID]*methodEntry
	order      []inliner.MethodID
}

var (
	_ inliner.ControlFlowProvider = (*Program)(nil)
	_ inliner.MethodCatalog       = (*Program)(nil)
)

// LoadFile loads a program from a YAML file.
func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Load decodes a program from YAML.
func Load(r io.Reader) (*Program, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode program: %w", err)
	}

	p := &Program{
		classes: map[string]*Class{ObjectClass: {Name: ObjectClass}},
		methods: make(map[inliner.MethodID]*methodEntry),
	}
	p.classOrder = append(p.classOrder, ObjectClass)
	for _, cd := range doc.Classes {
		if err := p.addClass(cd); err != nil {
			return nil, err
		}
	}
	for _, md := range doc.Methods {
		if err := p.addMethod(md); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Program) addClass(cd classDoc) error {
	if cd.Name == "" {
		return fmt.Errorf("class without name")
	}
	if _, dup := p.classes[cd.Name]; dup {
		return fmt.Errorf("duplicate class %s", cd.Name)
	}
	super := cd.Super
	if super == "" && !cd.Interface {
		super = ObjectClass
	}
	p.classes[cd.Name] = &Class{Name: cd.Name, Super: super, Interfaces: cd.Interfaces, Interface: cd.Interface}
	p.classOrder = append(p.classOrder, cd.Name)
	return nil
}

func (p *Program) addMethod(md methodDoc) error {
	if _, ok := p.classes[md.Class]; !ok {
		return fmt.Errorf("method %s.%s: unknown class %s", md.Class, md.Name, md.Class)
	}
	m, err := inliner.NewMethod(md.Class, md.Name, md.Descriptor, md.Static, md.Size)
	if err != nil {
		return err
	}
	m.Abstract = md.Abstract
	if md.MaxLocals > m.MaxLocals {
		m.MaxLocals = md.MaxLocals
	}
	if _, dup := p.methods[m.ID]; dup {
		return fmt.Errorf("duplicate method %s", m.ID)
	}
	e := &methodEntry{method: m}
	if len(md.Blocks) > 0 {
		if m.Abstract {
			return fmt.Errorf("abstract method %s has code", m.ID)
		}
		g, err := buildGraph(md.Blocks)
		if err != nil {
			return fmt.Errorf("method %s: %w", m.ID, err)
		}
		e.graph = g
	}
	p.methods[m.ID] = e
	p.order = append(p.order, m.ID)
	return nil
}

func buildGraph(docs []blockDoc) (*inliner.Graph, error) {
	blocks := make([]*inliner.Block, len(docs))
	for i, bd := range docs {
		b := &inliner.Block{ID: i, Frequency: bd.Frequency, Succs: bd.Succs}
		for _, line := range bd.Code {
			ins, err := ParseInstruction(line)
			if err != nil {
				return nil, fmt.Errorf("block %d: %w", i, err)
			}
			b.Instructions = append(b.Instructions, ins)
		}
		blocks[i] = b
	}
	return inliner.NewGraph(blocks, 0)
}

// Class returns the class with the given internal name.
func (p *Program) Class(name string) (*Class, bool) {
	c, ok := p.classes[name]
	return c, ok
}

// Method returns the method with the given identity.
func (p *Program) Method(id inliner.MethodID) (*inliner.Method, bool) {
	e, ok := p.methods[id]
	if !ok {
		return nil, false
	}
	return e.method, true
}

// Methods returns every method in declaration order.
func (p *Program) Methods() []*inliner.Method {
	out := make([]*inliner.Method, len(p.order))
	for i, id := range p.order {
		out[i] = p.methods[id].method
	}
	return out
}

// FindMethod looks a method up by "Class.name(desc)" or, when the name is
// unambiguous, by "Class.name".
func (p *Program) FindMethod(name string) (*inliner.Method, error) {
	if m, ok := p.Method(inliner.MethodID(name)); ok {
		return m, nil
	}
	var found []*inliner.Method
	for _, m := range p.Methods() {
		if strings.TrimSuffix(string(m.ID), m.Descriptor) == name {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("method %q not found", name)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("method %q is overloaded; give the descriptor", name)
	}
}

// Graph returns the control flow graph of m.
func (p *Program) Graph(m *inliner.Method) (*inliner.Graph, error) {
	e, ok := p.methods[m.ID]
	if !ok || e.graph == nil {
		return nil, fmt.Errorf("%w: %s", inliner.ErrGraphUnavailable, m.ID)
	}
	return e.graph, nil
}
