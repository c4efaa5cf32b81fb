package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	knaster "github.com/ErikNatanael/knaster-sub000"
	"github.com/ErikNatanael/knaster-sub000/log"
	"github.com/ErikNatanael/knaster-sub000/render"
	"github.com/ErikNatanael/knaster-sub000/signal"
	"github.com/ErikNatanael/knaster-sub000/table"
	"github.com/ErikNatanael/knaster-sub000/vst2"
)

type bounceCommand struct {
	in      string
	out     string
	gain    float64
	plugins stringList
}

func (cmd *bounceCommand) Name() string {
	return "bounce"
}

func (cmd *bounceCommand) Help() string {
	return "Render a wav file through effects into a wav or mp3 file"
}

func (cmd *bounceCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.in, "in", "", "input wav file (required)")
	fs.StringVar(&cmd.out, "out", "", "output wav or mp3 file (required)")
	fs.Float64Var(&cmd.gain, "gain", 1, "playback gain")
	fs.Var(&cmd.plugins, "plugin", "semicolon separated paths of effect plugins to chain")
}

func (cmd *bounceCommand) Validate() error {
	var missing []string
	if cmd.in == "" {
		missing = append(missing, "-in")
	}
	if cmd.out == "" {
		missing = append(missing, "-out")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %v", strings.Join(missing, ", "))
	}
	return nil
}

func (cmd *bounceCommand) Run() error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	target, err := cmd.target()
	if err != nil {
		return err
	}
	tbl, err := table.Load(cmd.in)
	if err != nil {
		return err
	}
	channels := tbl.NumChannels()
	g, r, err := knaster.New(knaster.Config{
		SampleRate: tbl.SampleRate(),
		BlockSize:  blockSize,
		Outputs:    channels,
	}, knaster.WithLogger(log.GetLogger()))
	if err != nil {
		return err
	}
	defer g.Close()

	prev, err := g.Push(table.NewPlayer(tbl, false))
	if err != nil {
		return err
	}
	if cmd.gain != 1 {
		if err := g.Schedule(prev, "gain", knaster.Value(cmd.gain)); err != nil {
			return err
		}
	}
	for _, path := range cmd.plugins {
		fx, err := vst2.Open(path, channels)
		if err != nil {
			return err
		}
		id, err := g.Push(fx)
		if err != nil {
			return err
		}
		for ch := 0; ch < channels; ch++ {
			if err := g.Connect(prev, ch, id, ch); err != nil {
				return err
			}
		}
		prev = id
	}
	for ch := 0; ch < channels; ch++ {
		if err := g.ConnectOutput(prev, ch, ch); err != nil {
			return err
		}
	}
	if err := g.Commit(); err != nil {
		return err
	}

	// one spare block so the removal flag is seen after the last frames
	blocks := tbl.Frames()/blockSize + 2
	return render.Bounce(context.Background(), r, target, blocks)
}

func (cmd *bounceCommand) target() (render.Target, error) {
	switch strings.ToLower(filepath.Ext(cmd.out)) {
	case ".wav":
		return render.NewWAV(cmd.out, signal.BitDepth16), nil
	case ".mp3":
		return render.NewMP3(cmd.out, 192, 2), nil
	}
	return nil, fmt.Errorf("unsupported output format %v", filepath.Ext(cmd.out))
}
