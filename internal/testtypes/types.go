package testtypes

import (
	"context"
	"sync"
)

type InterfaceA interface {
	A()
	Close(context.Context) error
}

type InterfaceB interface {
	B()
	Close(context.Context)
}

type InterfaceC interface {
	C()
	Close() error
}

type InterfaceD interface {
	D()
	Close()
}

type StructA struct {
	Tag any
}

func (StructA) A()                          {}
func (StructA) Close(context.Context) error { return nil }

type StructB struct {
	A InterfaceA
}

func (StructB) B()                    {}
func (StructB) Close(context.Context) {}

type StructC struct {
	A InterfaceA
	B InterfaceB
}

func (StructC) C()           {}
func (StructC) Close() error { return nil }

type StructD struct{}

func (StructD) D()     {}
func (StructD) Close() {}

func NewInterfaceA() InterfaceA {
	return &StructA{}
}

func NewStructAPtr() *StructA {
	return &StructA{}
}

func NewInterfaceB(a InterfaceA) InterfaceB {
	return &StructB{A: a}
}

func NewInterfaceC(a InterfaceA, b InterfaceB) InterfaceC {
	return &StructC{A: a, B: b}
}

func NewInterfaceD() InterfaceD {
	return &StructD{}
}

// Node returns itself from some of its methods.
type Node struct {
	Name string
}

func (n *Node) Self() *Node {
	return n
}

func (n *Node) Rename(name string) (*Node, error) {
	n.Name = name
	return n, nil
}

func (n *Node) Clone() *Node {
	return &Node{Name: n.Name}
}

func (n *Node) Join(sep string, names ...string) string {
	out := n.Name
	for _, name := range names {
		out += sep + name
	}
	return out
}

// CloseLog records the order services are closed in.
type CloseLog struct {
	mu    sync.Mutex
	names []string
}

func (l *CloseLog) Add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.names = append(l.names, name)
}

func (l *CloseLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.names...)
}

// Closable records its name in the log when closed.
type Closable struct {
	Name  string
	Log   *CloseLog
	Err   error
	Panic bool
}

func (c *Closable) Close(context.Context) error {
	c.Log.Add(c.Name)
	if c.Panic {
		panic("close " + c.Name)
	}
	return c.Err
}

// ServerOptions is merged from several bindings.
type ServerOptions struct {
	Host  string
	Port  int
	Debug bool
	Tags  map[string]string
}

// Cycle services reference each other.
type CycleA struct {
	B any
}

type CycleB struct {
	A *CycleA
}
