package model

import (
	"github.com/dd0wney/cluso-rbd/pkg/lifetime"
	"github.com/dd0wney/cluso-rbd/pkg/rbd"
)

// Build compiles the document into a frozen System. The document name, if
// any, becomes the system name; opts are applied after it. Every declared
// component must appear in an edge or back a voter, and every voter must
// appear in an edge.
func (d *Document) Build(opts ...rbd.SystemOption) (*rbd.System, error) {
	if d.Name != "" {
		opts = append([]rbd.SystemOption{rbd.WithSystemName(d.Name)}, opts...)
	}
	sys := rbd.NewSystem(opts...)

	nodes := map[string]rbd.Node{
		rbd.Entry.Name(): rbd.Entry,
		rbd.Exit.Name():  rbd.Exit,
	}
	var declared []string
	used := make(map[string]bool)
	declare := func(name string, n rbd.Node) error {
		if _, dup := nodes[name]; dup {
			return rbd.NewError("Build").Block(name).Configuration().Context("name declared twice").Err()
		}
		nodes[name] = n
		declared = append(declared, name)
		return nil
	}

	components := make(map[string]*rbd.Component, len(d.Components))
	for _, decl := range d.Components {
		c, err := buildComponent(decl)
		if err != nil {
			return nil, err
		}
		if err := declare(decl.Name, c); err != nil {
			return nil, err
		}
		components[decl.Name] = c
	}

	for _, vd := range d.Voters {
		c, ok := components[vd.Component]
		if !ok {
			return nil, rbd.NewError("Build").Voter(vd.Name).Configuration().
				Context("unknown component %q", vd.Component).Err()
		}
		used[vd.Component] = true
		v, err := rbd.NewVoter(c, vd.M, vd.N)
		if err != nil {
			return nil, err
		}
		if vd.Name != "" {
			v = v.WithName(vd.Name)
		}
		if err := declare(v.Name(), v); err != nil {
			return nil, err
		}
	}

	for _, e := range d.Edges {
		from, ok := nodes[e.From]
		if !ok {
			return nil, rbd.NewError("Build").Entity("edge").Configuration().Context("unknown node %q", e.From).Err()
		}
		used[e.From] = true
		targets := make([]rbd.Node, 0, len(e.To))
		for _, name := range e.To {
			to, ok := nodes[name]
			if !ok {
				return nil, rbd.NewError("Build").Entity("edge").Configuration().Context("unknown node %q", name).Err()
			}
			used[name] = true
			targets = append(targets, to)
		}
		if err := sys.Connect(from, targets...); err != nil {
			return nil, err
		}
	}

	for _, name := range declared {
		if !used[name] {
			return nil, rbd.NewError("Build").Block(name).Configuration().Context("declared but never connected").Err()
		}
	}

	if err := sys.Freeze(); err != nil {
		return nil, err
	}
	return sys, nil
}

func buildComponent(decl Component) (*rbd.Component, error) {
	c, err := rbd.NewComponent(decl.Name, decl.Lambda)
	if err != nil {
		return nil, err
	}

	if d := decl.Distribution; d != nil && d.Family == FamilyWeibull {
		eta := d.Eta
		if eta == 0 {
			if decl.Lambda == 0 {
				return nil, rbd.NewError("Build").Block(decl.Name).Configuration().
					Context("weibull eta is required when lambda is 0").Err()
			}
			eta = lifetime.WeibullEtaFromLambda(decl.Lambda, d.Beta)
		}
		w, err := lifetime.NewWeibull(d.Beta, eta)
		if err != nil {
			return nil, rbd.NewError("Build").Block(decl.Name).Configuration().Context("%v", err).Err()
		}
		if c, err = c.WithDistribution(w); err != nil {
			return nil, err
		}
	}

	if decl.Age > 0 {
		return c.WithAge(decl.Age)
	}
	return c, nil
}

// FromSystem describes sys as a document. Blocks that are not plain
// components or voters over components cannot be described and yield an
// error.
func FromSystem(sys *rbd.System) (*Document, error) {
	doc := &Document{Name: sys.Name()}
	seen := make(map[string]bool)

	addComponent := func(c *rbd.Component) {
		if seen[c.Name()] {
			return
		}
		seen[c.Name()] = true
		decl := Component{Name: c.Name(), Lambda: c.Lambda(), Age: c.Age()}
		if w, ok := c.Distribution().(lifetime.Weibull); ok {
			decl.Distribution = &Distribution{Family: FamilyWeibull, Beta: w.Beta, Eta: w.Eta}
		}
		doc.Components = append(doc.Components, decl)
	}

	for _, name := range sys.Blocks() {
		src, _ := sys.Source(name)
		switch src := src.(type) {
		case *rbd.Component:
			addComponent(src)
		case *rbd.Voter:
			c, ok := src.Source().(*rbd.Component)
			if !ok {
				return nil, rbd.NewError("FromSystem").Voter(name).Configuration().Context("replica source is not a component").Err()
			}
			addComponent(c)
			doc.Voters = append(doc.Voters, Voter{Name: name, Component: c.Name(), M: src.M(), N: src.N()})
		default:
			return nil, rbd.NewError("FromSystem").Block(name).Configuration().Context("cannot describe %T", src).Err()
		}
	}

	index := make(map[string]int)
	for _, e := range sys.Edges() {
		i, ok := index[e[0]]
		if !ok {
			i = len(doc.Edges)
			index[e[0]] = i
			doc.Edges = append(doc.Edges, Edge{From: e[0]})
		}
		doc.Edges[i].To = append(doc.Edges[i].To, e[1])
	}
	return doc, nil
}
