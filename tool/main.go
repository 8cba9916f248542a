package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"unicode"

	"github.com/alecthomas/participle"

	. "github.com/dave/jennifer/jen"
)

const dispatchPath = "github.com/pontaoski/kaleido/dispatch"

type NodeDecls struct {
	Nodes []*NodeDecl `@@*`
}

type NodeDecl struct {
	Abstract bool     `@"abstract"?`
	Name     string   `"node" @Ident`
	Bases    []string `( ":" @Ident ( "," @Ident )* )?`
	I        struct{} `";"`
}

func (d *NodeDecls) lookup(name string) *NodeDecl {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// abstractBases returns every abstract ancestor of n, nearest first.
func (d *NodeDecls) abstractBases(n *NodeDecl) (ret []string) {
	seen := map[string]bool{}
	queue := append([]string(nil), n.Bases...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true

		base := d.lookup(name)
		if base == nil {
			continue
		}
		if base.Abstract {
			ret = append(ret, base.Name)
		}
		queue = append(queue, base.Bases...)
	}
	return
}

func kindName(name string) string {
	return "Kind" + name
}

func marker(name string) string {
	r := []rune(name)
	r[0] = unicode.ToLower(r[0])
	return string(r) + "Node"
}

func GenerateNodes(pkgname string, d *NodeDecls) string {
	f := NewFile(pkgname)
	f.HeaderComment("Code generated by adtgen. DO NOT EDIT.")

	f.Type().Id("Kind").Int()
	f.Line()

	f.Const().DefsFunc(func(g *Group) {
		for i, n := range d.Nodes {
			if i == 0 {
				g.Id(kindName(n.Name)).Id("Kind").Op("=").Iota()
			} else {
				g.Id(kindName(n.Name))
			}
		}
	})
	f.Line()

	f.Func().Params(Id("k").Id("Kind")).Id("String").Params().String().Block(
		Switch(Id("k")).BlockFunc(func(g *Group) {
			for _, n := range d.Nodes {
				g.Case(Id(kindName(n.Name))).Return(Lit(n.Name))
			}
		}),
		Return(Qual("fmt", "Sprintf").Call(Lit("Kind(%d)"), Int().Call(Id("k")))),
	)
	f.Line()

	for _, n := range d.Nodes {
		if n.Abstract {
			f.Type().Id(n.Name).Interface(
				Id("Node"),
				Id(marker(n.Name)).Params(),
			)
			f.Line()
		}
	}

	for _, n := range d.Nodes {
		if n.Abstract {
			continue
		}

		f.Func().Params(Op("*").Id(n.Name)).Id("Kind").Params().Id("Kind").Block(
			Return(Id(kindName(n.Name))),
		)
		f.Line()
		for _, base := range d.abstractBases(n) {
			f.Func().Params(Op("*").Id(n.Name)).Id(marker(base)).Params().Block()
			f.Line()
		}
	}

	var decls []Code
	for _, n := range d.Nodes {
		args := []Code{Id(kindName(n.Name))}
		for _, base := range n.Bases {
			args = append(args, Id(kindName(base)))
		}
		decls = append(decls, Qual(dispatchPath, "Is").Call(args...))
	}

	f.Comment("Hierarchy is the declared linearization of node kinds, most-derived first.")
	f.Var().Id("Hierarchy").Op("=").Qual(dispatchPath, "MustHierarchy").Custom(Options{
		Open:      "(",
		Close:     ")",
		Separator: ",",
		Multi:     true,
	}, decls...)

	return fmt.Sprintf("%#v", f)
}

func main() {
	parser := participle.MustBuild(&NodeDecls{})

	in := os.Args[1]
	out := os.Args[2]
	pkgname := os.Args[3]

	inData, err := ioutil.ReadFile(in)
	if err != nil {
		panic(err)
	}

	decls := NodeDecls{}
	err = parser.ParseBytes(inData, &decls)
	if err != nil {
		panic(err)
	}

	for _, n := range decls.Nodes {
		for _, base := range n.Bases {
			if decls.lookup(base) == nil {
				panic(fmt.Sprintf("%s: unknown base %s", n.Name, base))
			}
		}
	}

	err = ioutil.WriteFile(out, []byte(GenerateNodes(pkgname, &decls)), 0644)
	if err != nil {
		panic(err)
	}
}
