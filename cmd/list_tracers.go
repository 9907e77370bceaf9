package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/tracer/cpu"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the cpu tracers that a render with the same options would attach.
func ListTracers(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("\nSystem provides %d CPU(s); GOMAXPROCS = %d\n\n", runtime.NumCPU(), runtime.GOMAXPROCS(0)))

	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Tracer", "Local", "Workers"})
	for index := uint32(0); index < opts.Tracers; index++ {
		tr, err := cpu.NewTracer(fmt.Sprintf("cpu-%d", index), int(opts.Workers), nil)
		if err != nil {
			return err
		}
		table.Append([]string{tr.Id(), fmt.Sprintf("%t", tr.Flags()&tracer.Local != 0), fmt.Sprintf("%d", tr.Speed())})
	}
	table.Render()

	logger.Notice(buf.String())
	return nil
}
