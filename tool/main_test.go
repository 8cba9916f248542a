package main

import (
	"io/ioutil"
	"testing"

	"github.com/alecthomas/participle"
)

func TestCheckedInNodesAreCurrent(t *testing.T) {
	src, err := ioutil.ReadFile("../ast/nodes.adt")
	if err != nil {
		t.Fatal(err)
	}
	want, err := ioutil.ReadFile("../ast/nodes_gen.go")
	if err != nil {
		t.Fatal(err)
	}

	decls := NodeDecls{}
	if err := participle.MustBuild(&NodeDecls{}).ParseBytes(src, &decls); err != nil {
		t.Fatal(err)
	}

	if got := GenerateNodes("ast", &decls); got != string(want) {
		t.Errorf("ast/nodes_gen.go is stale; run go generate ./ast\n--- got\n%s", got)
	}
}
