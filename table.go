package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/olekukonko/tablewriter"

	"github.com/pontaoski/kaleido/passes"
)

func renderFunctions(w io.Writer, fs []*ir.Func) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Function", "Parameters", "Kind", "Blocks", "Instructions"})

	for _, f := range fs {
		var params []string
		for _, p := range f.Params {
			params = append(params, p.Name())
		}

		kind := "def"
		if len(f.Blocks) == 0 {
			kind = "extern"
		}

		insts := 0
		for _, b := range f.Blocks {
			insts += len(b.Insts) + 1
		}

		table.Append([]string{
			f.Name(),
			strings.Join(params, " "),
			kind,
			strconv.Itoa(len(f.Blocks)),
			strconv.Itoa(insts),
		})
	}
	table.Render()
}

func renderStats(w io.Writer, stats []passes.Stat) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Pass", "Runs", "Changed"})
	for _, st := range stats {
		table.Append([]string{st.Pass, strconv.Itoa(st.Runs), strconv.Itoa(st.Changed)})
	}
	table.Render()
}
