// Package vst2 hosts vst2 effect plugins as graph generators.
package vst2

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	vst2sdk "github.com/dudk/vst2"

	knaster "github.com/ErikNatanael/knaster-sub000"
	"github.com/ErikNatanael/knaster-sub000/signal"
	"github.com/ErikNatanael/knaster-sub000/ugen"
)

// Effect runs a plugin over a fixed number of channels. The plugin
// processes blocks in place, so the inputs are copied to the outputs
// first. Parameters are owned by the plugin and not exposed to the
// graph.
type Effect struct {
	lib      *vst2sdk.Library
	plugin   *vst2sdk.Plugin
	channels int
}

// Open loads the plugin library at path and instantiates its effect.
func Open(path string, channels int) (*Effect, error) {
	if channels < 1 {
		return nil, knaster.ErrInvalidConfig
	}
	lib, err := vst2sdk.Open(path)
	if err != nil {
		return nil, err
	}
	plugin, err := lib.Open()
	if err != nil {
		lib.Close()
		return nil, err
	}
	return &Effect{lib: lib, plugin: plugin, channels: channels}, nil
}

func (e *Effect) Init(sampleRate, blockSize int) {}

func (e *Effect) Process(ctx ugen.Context, fl *ugen.Flags, in, out signal.Float64) {
	for ch := range out {
		copy(out[ch], in[ch])
	}
	e.plugin.Process(out)
}

func (e *Effect) Inputs() int  { return e.channels }
func (e *Effect) Outputs() int { return e.channels }

func (e *Effect) Params() []ugen.ParamDesc { return nil }

func (e *Effect) ApplyParam(ctx ugen.Context, index int, value float64) {}

// Flush unloads the plugin and its library.
func (e *Effect) Flush() error {
	e.plugin.Close()
	e.lib.Close()
	return nil
}

// DefaultScanPaths returns the conventional plugin folders for the
// platform.
func DefaultScanPaths() (paths []string) {
	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			"~/Library/Audio/Plug-Ins/VST",
			"/Library/Audio/Plug-Ins/VST",
		}
	case "windows":
		paths = []string{
			"C:\\Program Files (x86)\\Steinberg\\VSTPlugins",
			"C:\\Program Files\\Steinberg\\VSTPlugins",
		}
		if envVstPath := os.Getenv("VST_PATH"); len(envVstPath) > 0 {
			paths = append(paths, envVstPath)
		}
	}
	return
}

// FileExtension returns the plugin file extension for the platform.
func FileExtension() string {
	switch runtime.GOOS {
	case "darwin":
		return ".vst"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

// Scan walks the folders and returns the paths of all plugin files found.
// Unreadable folders are skipped.
func Scan(paths ...string) []string {
	var found []string
	ext := FileExtension()
	for _, root := range paths {
		filepath.Walk(root, func(path string, file os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if strings.HasSuffix(file.Name(), ext) {
				found = append(found, path)
			}
			return nil
		})
	}
	return found
}
