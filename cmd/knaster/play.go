package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	knaster "github.com/ErikNatanael/knaster-sub000"
	"github.com/ErikNatanael/knaster-sub000/device"
	"github.com/ErikNatanael/knaster-sub000/log"
	"github.com/ErikNatanael/knaster-sub000/table"
)

type playCommand struct {
	in   string
	gain float64
	loop bool
}

func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play a wav file through the default output device"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.in, "in", "", "wav file to play (required)")
	fs.Float64Var(&cmd.gain, "gain", 1, "playback gain")
	fs.BoolVar(&cmd.loop, "loop", false, "loop the file until interrupted")
}

func (cmd *playCommand) Run() error {
	if cmd.in == "" {
		return fmt.Errorf("missing required flag: -in")
	}
	tbl, err := table.Load(cmd.in)
	if err != nil {
		return err
	}
	g, r, err := knaster.New(knaster.Config{
		SampleRate: tbl.SampleRate(),
		BlockSize:  blockSize,
		Outputs:    tbl.NumChannels(),
	}, knaster.WithLogger(log.GetLogger()))
	if err != nil {
		return err
	}
	defer g.Close()

	id, err := g.Push(table.NewPlayer(tbl, cmd.loop))
	if err != nil {
		return err
	}
	for ch := 0; ch < tbl.NumChannels(); ch++ {
		if err := g.ConnectOutput(id, ch, ch); err != nil {
			return err
		}
	}
	if cmd.gain != 1 {
		if err := g.Schedule(id, "gain", knaster.Value(cmd.gain)); err != nil {
			return err
		}
	}
	if err := g.Commit(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return device.NewPlayer(r).Play(ctx)
}
