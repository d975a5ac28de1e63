package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/spectro-tab/internal/app"
	"github.com/RyanBlaney/spectro-tab/pkg/playback"
	"github.com/RyanBlaney/spectro-tab/pkg/tile"
)

var (
	renderQuality  string
	renderGamma    float64
	renderColormap string
	renderSize     string
	renderOut      string
	renderTMin     float64
	renderTMax     float64
	renderFMin     float64
	renderFMax     float64
	renderWindow   float64
	renderBandMin  float64
	renderBandMax  float64
)

var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Render a spectrogram view of an audio file to an image",
	Long: `Compute the spectrogram of an audio file and render one view of it.

The view is given in seconds and Hz and is clamped to the track and the
hard frequency band. Tiles are colourised with the chosen colour map and
written as PNG, BMP or TIFF depending on the output extension.

Examples:
  # Whole track, default quality
  spectro-tab render song.mp3

  # Two seconds from 30 s, 80-400 Hz, scaled to 1200x600
  spectro-tab render song.mp3 --tmin 30 --window 2 --fmin 80 --fmax 400 --size 1200x600

  # Fast preview in grayscale
  spectro-tab render song.wav --quality fast --colormap gray --out preview.bmp`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderQuality, "quality", "q", "", "quality preset (see 'spectro-tab qualities')")
	renderCmd.Flags().Float64Var(&renderGamma, "gamma", 0, "display gamma (default from config)")
	renderCmd.Flags().StringVar(&renderColormap, "colormap", "", "colour map: audacity or gray")
	renderCmd.Flags().StringVar(&renderSize, "size", "", "output size WIDTHxHEIGHT (default: one pixel per cell)")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "output image (default FILE name with .png)")
	renderCmd.Flags().Float64Var(&renderTMin, "tmin", 0, "view start in seconds")
	renderCmd.Flags().Float64Var(&renderTMax, "tmax", 0, "view end in seconds")
	renderCmd.Flags().Float64Var(&renderWindow, "window", 0, "view width in seconds from --tmin")
	renderCmd.Flags().Float64Var(&renderFMin, "fmin", 0, "view lowest frequency in Hz")
	renderCmd.Flags().Float64Var(&renderFMax, "fmax", 0, "view highest frequency in Hz")
	renderCmd.Flags().Float64Var(&renderBandMin, "band-min", 0, "hard lower frequency limit (default from config)")
	renderCmd.Flags().Float64Var(&renderBandMax, "band-max", 0, "hard upper frequency limit (default from config)")
}

func runRender(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.WithFields(logging.Fields{"component": "render_cmd"})
	timer := NewPerformanceTimer()
	path := args[0]

	appCtx, err := config.AppContext(logger)
	if err != nil {
		return err
	}
	if renderQuality != "" {
		appCtx.Quality = renderQuality
	}
	if renderGamma > 0 {
		appCtx.Gamma = renderGamma
	}
	if cmd.Flags().Changed("band-min") {
		appCtx.HardFMin = renderBandMin
	}
	if cmd.Flags().Changed("band-max") {
		appCtx.HardFMax = renderBandMax
	}

	colormap := config.Spectrogram.Colormap
	if renderColormap != "" {
		colormap = renderColormap
	}
	lut, err := tile.LookupColormap(colormap)
	if err != nil {
		return err
	}

	session, err := app.NewSession(appCtx, playback.DiscardSink{})
	if err != nil {
		return err
	}
	defer session.Close()

	structured := isStructured(config.OutputFormat)
	if !structured {
		printHeader("Spectrogram", path)
		printStep(1, "Loading and analysing")
	}

	timer.StartEvent("analysis")
	if err := session.Load(context.Background(), path); err != nil {
		return err
	}
	timer.EndEvent("analysis")

	m := session.Matrix()
	q := session.Quality()
	if !structured {
		printSuccess("%s at %d Hz, %.2fs", filepath.Base(path), session.Buffer().SampleRate, session.Buffer().Duration())
		printInfo("Quality %s: window %d, hop %d", q.Name, q.WindowSize, q.Hop())
		printInfo("Matrix %s", m.String())
		printInfo("Resolution %.2f Hz x %.2f ms", m.FreqResolution(), m.TimeResolution()*1000)
		fmt.Println()
	}

	view := session.View()
	if cmd.Flags().Changed("tmin") {
		view.TimeMin = renderTMin
	}
	if cmd.Flags().Changed("tmax") {
		view.TimeMax = renderTMax
	}
	if cmd.Flags().Changed("fmin") {
		view.FreqMin = renderFMin
	}
	if cmd.Flags().Changed("fmax") {
		view.FreqMax = renderFMax
	}
	view = session.SetView(view)
	if renderWindow > 0 {
		view = session.SetWindow(renderWindow)
	}

	if !structured {
		printStep(2, "Rendering view")
	}
	timer.StartEvent("render")
	tl, err := session.Render()
	if err != nil {
		return err
	}
	timer.EndEvent("render")

	var img image.Image = tile.Colorize(tl.Image, lut)
	if renderSize != "" {
		w, h, err := parseSize(renderSize)
		if err != nil {
			return err
		}
		timer.StartEvent("scaling")
		img, err = tile.Scale(img, w, h)
		if err != nil {
			return err
		}
		timer.EndEvent("scaling")
	}

	out := renderOut
	if out == "" {
		out = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".png"
	}
	timer.StartEvent("encoding")
	if err := tile.WriteFile(out, img); err != nil {
		return err
	}
	timer.EndEvent("encoding")

	if structured {
		return writeStructured(os.Stdout, renderSummary{
			Source:    path,
			Quality:   q.Name,
			Output:    out,
			Width:     img.Bounds().Dx(),
			Height:    img.Bounds().Dy(),
			View:      tl.Viewport,
			Transform: tl.Transform,
			Bins:      m.Bins(),
			Frames:    m.Frames(),
			Colormap:  colormap,
			ElapsedMS: timer.GetTotalDuration().Milliseconds(),
		}, config.OutputFormat)
	}

	prec := config.Output.Precision
	printSuccess("View %.*f-%.*fs, %.*f-%.*f Hz", prec, view.TimeMin, prec, view.TimeMax, prec, view.FreqMin, prec, view.FreqMax)
	printSuccess("Tile %dx%d cells (time %d:%d, freq %d:%d)", tl.Cols(), tl.Rows(),
		tl.TimeIndex[0], tl.TimeIndex[1], tl.FreqIndex[0], tl.FreqIndex[1])
	tr := tl.Transform
	printInfo("Transform: t = %.6f + col*%.6f, f = %.3f + row*%.3f", tr.OriginTime, tr.TimeStep, tr.OriginFreq, tr.FreqStep)
	printSuccess("Wrote %s (%dx%d, %s)", out, img.Bounds().Dx(), img.Bounds().Dy(), colormap)
	fmt.Println()
	printTimings(timer)
	return nil
}

type renderSummary struct {
	Source    string         `json:"source" yaml:"source"`
	Quality   string         `json:"quality" yaml:"quality"`
	Output    string         `json:"output" yaml:"output"`
	Width     int            `json:"width" yaml:"width"`
	Height    int            `json:"height" yaml:"height"`
	View      tile.Viewport  `json:"view" yaml:"view"`
	Transform tile.Transform `json:"transform" yaml:"transform"`
	Bins      int            `json:"bins" yaml:"bins"`
	Frames    int            `json:"frames" yaml:"frames"`
	Colormap  string         `json:"colormap" yaml:"colormap"`
	ElapsedMS int64          `json:"elapsed_ms" yaml:"elapsed_ms"`
}
