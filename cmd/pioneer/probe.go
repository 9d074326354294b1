package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"pioneer.ai/internal/pilot"
	"pioneer.ai/internal/protocol"
)

type probeOptions struct {
	port     string
	baud     int
	count    int
	interval time.Duration
	list     bool
}

func newProbeCmd() *cobra.Command {
	var o probeOptions
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Exercise a serial pilot link: write random scores and dump what comes back",
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.list {
				name, err := pilot.DetectSerial()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			}
			p, err := pilot.OpenSerial(o.port, o.baud)
			if err != nil {
				return err
			}
			defer p.Close()
			return probe(cmd.OutOrStdout(), p, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.port, "port", "auto", "serial device, or auto for the first usb port")
	f.IntVar(&o.baud, "baud", 115200, "baud rate")
	f.IntVar(&o.count, "count", 10, "number of score frames to write")
	f.DurationVar(&o.interval, "interval", 500*time.Millisecond, "read timeout between writes")
	f.BoolVar(&o.list, "list", false, "print the auto-detected port and exit")
	return cmd
}

func probe(out io.Writer, p pilot.Port, o probeOptions) error {
	if err := p.SetReadTimeout(o.interval); err != nil {
		return err
	}
	buf := make([]byte, 64)
	for i := 0; i < o.count; i++ {
		score := rand.Float32() * 100
		frame := protocol.EncodeScore(score)
		if _, err := p.Write(frame[:]); err != nil {
			return err
		}
		fmt.Fprintf(out, "-> %.3f % x\n", score, frame)

		n, err := p.Read(buf)
		switch {
		case errors.Is(err, pilot.ErrTimeout):
			fmt.Fprintln(out, "<- (nothing)")
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "<- % x\n", buf[:n])
		}
	}
	return nil
}
