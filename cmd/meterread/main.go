// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli"

	"github.com/jblang/meterread/internal/assemble"
	"github.com/jblang/meterread/internal/cliwarn"
	"github.com/jblang/meterread/internal/config"
	"github.com/jblang/meterread/internal/debugviz"
	"github.com/jblang/meterread/internal/fft"
	"github.com/jblang/meterread/internal/imageop"
	"github.com/jblang/meterread/internal/locate"
	"github.com/jblang/meterread/internal/matcher"
	"github.com/jblang/meterread/internal/sink"
	"github.com/jblang/meterread/internal/source"
	"github.com/jblang/meterread/internal/template"
)

// VERSION is injected by buildflags
var VERSION = "SELFBUILD"

// warmupFrames is how many captures WebcamSource discards before trusting
// its frames.
const warmupFrames = 3

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "meterread"
	myApp.Usage = "read the mechanical-counter face of a utility meter from still images"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "webcam",
			Usage: "capture frames from the local screen/camera source instead of a file",
		},
		cli.StringFlag{
			Name:  "filename",
			Usage: "read frames from this image file instead of a camera",
		},
		cli.StringSliceFlag{
			Name:  "op",
			Usage: "geometric pre-processing op, repeatable: rotate90, rotate180, flip-x, flip-y, crop:x:y:w:h",
		},
		cli.BoolFlag{
			Name:  "sobel",
			Usage: "run a Sobel edge filter on the frame before matching",
		},
		cli.IntFlag{
			Name:  "emit-count",
			Value: 7,
			Usage: "number of digits the assembled reading must contain",
		},
		cli.Float64Flag{
			Name:  "max-plausible-rate",
			Value: 1e9,
			Usage: "reject readings implying a faster per-second rate of change than this",
		},
		cli.IntFlag{
			Name:  "repeat-sec",
			Value: 0,
			Usage: "repeat the capture/match pass every N seconds; 0 runs once",
		},
		cli.StringFlag{
			Name:  "debug-capture",
			Usage: "write the raw captured frame to this file or directory",
		},
		cli.StringFlag{
			Name:  "debug-post-ops",
			Usage: "write the frame after ops/sobel to this file or directory",
		},
		cli.StringFlag{
			Name:  "failed-capture",
			Usage: "write the frame that produced a pipeline error to this file or directory",
		},
		cli.StringFlag{
			Name:  "debug-scoring",
			Usage: "write a composite score-visualisation PNG to this file",
		},
		cli.StringFlag{
			Name:  "c, config",
			Usage: "config from json file, which will override the command line",
		},
		cli.StringFlag{
			Name:  "log",
			Usage: "specify a log file to output, default goes to stderr",
		},
	}

	myApp.Action = func(c *cli.Context) error {
		cfg := config.Default()
		cfg.Webcam = c.Bool("webcam")
		cfg.Filename = c.String("filename")
		cfg.Ops = c.StringSlice("op")
		cfg.Sobel = c.Bool("sobel")
		cfg.EmitCount = c.Int("emit-count")
		cfg.MaxPlausibleRate = c.Float64("max-plausible-rate")
		cfg.RepeatSec = c.Int("repeat-sec")
		cfg.DebugCapture = c.String("debug-capture")
		cfg.DebugPostOps = c.String("debug-post-ops")
		cfg.FailedCapture = c.String("failed-capture")
		cfg.DebugScoring = c.String("debug-scoring")
		cfg.DigitTemplates = c.Args()

		if c.String("c") != "" {
			checkError(config.ParseJSONConfig(&cfg, c.String("c")))
		}

		if logPath := c.String("log"); logPath != "" {
			f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
			checkError(err)
			defer f.Close()
			log.SetOutput(f)
		}

		log.Println("webcam:", cfg.Webcam)
		log.Println("filename:", cfg.Filename)
		log.Println("ops:", cfg.Ops)
		log.Println("sobel:", cfg.Sobel)
		log.Println("emit-count:", cfg.EmitCount)
		log.Println("max-plausible-rate:", cfg.MaxPlausibleRate)
		log.Println("repeat-sec:", cfg.RepeatSec)
		log.Println("digit templates:", len(cfg.DigitTemplates))

		cliwarn.TemplateCountf(len(cfg.DigitTemplates), cfg.EmitCount)
		cliwarn.MaxPlausibleRatef(cfg.MaxPlausibleRate)

		if len(cfg.DigitTemplates) == 0 {
			return cli.NewExitError("at least one digit-template image must be supplied", 1)
		}

		var imgSrc source.ImageSource
		switch {
		case cfg.Webcam:
			imgSrc = source.NewWebcamSource(warmupFrames)
		case cfg.Filename != "":
			imgSrc = source.NewFilenameSource(cfg.Filename)
		default:
			return cli.NewExitError("one of --webcam or --filename must be given", 1)
		}

		var outSink sink.ResultSink = sink.StdoutSink{}
		outSink = sink.NewPlausibilityFilter(outSink, cfg.MaxPlausibleRate)

		r := &runner{cfg: cfg, source: imgSrc, sink: outSink}

		lastOK := true
		if cfg.RepeatSec <= 0 {
			lastOK = r.runOnce()
		} else {
			ticker := time.NewTicker(time.Duration(cfg.RepeatSec) * time.Second)
			defer ticker.Stop()
			lastOK = r.runOnce()
			for range ticker.C {
				lastOK = r.runOnce()
			}
		}

		if !lastOK {
			return cli.NewExitError("", 1)
		}
		return nil
	}

	checkError(myApp.Run(os.Args))
}

// runner holds the state built lazily on the first successful frame: the
// FFT driver, the prepared-needle store, and the matching engine all
// depend on the haystack's dimensions, which aren't known until then.
type runner struct {
	cfg    config.Config
	source source.ImageSource
	sink   sink.ResultSink

	engine      *matcher.Engine
	store       *template.Store
	templates   []*image.Gray
	identifiers assemble.Identifiers
	digitWidth  int
}

func (r *runner) runOnce() bool {
	ts, err := r.source.ReadImage()
	if err != nil {
		now := time.Now()
		r.sink.LogError(now, err)
		return false
	}

	writeDebugImage(r.cfg.DebugCapture, ts.Timestamp, ts.Image)

	frame := ts.Image
	if len(r.cfg.Ops) > 0 {
		frame, err = imageop.ApplyOps(frame, r.cfg.Ops)
		if err != nil {
			log.Fatalf("%+v", err)
		}
	}
	if r.cfg.Sobel {
		frame = imageop.Sobel(frame)
	}
	writeDebugImage(r.cfg.DebugPostOps, ts.Timestamp, frame)

	if r.engine == nil {
		if err := r.buildEngine(frame); err != nil {
			log.Fatalf("%+v", err)
		}
	}

	scores, err := r.engine.Score(frame)
	if err != nil {
		r.sink.LogError(ts.Timestamp, err)
		return false
	}

	positions := locate.Locate(scores, locate.Config{Threshold: locate.DefaultThreshold, DigitWidth: r.digitWidth})
	number, err := assemble.Number(positions, r.identifiers, r.cfg.EmitCount)
	if err != nil {
		r.sink.LogError(ts.Timestamp, err)
		writeDebugImage(r.cfg.FailedCapture, ts.Timestamp, frame)
		return false
	}

	if r.cfg.DebugScoring != "" {
		floatScores := make([][]float32, len(scores))
		for i, cs := range scores {
			floatScores[i] = []float32(cs)
		}
		maxW, maxH := r.store.MaxDims()
		composed := debugviz.Compose(frame, r.templates, maxW, maxH, floatScores, positions, locate.DefaultThreshold)
		if err := writePNG(r.cfg.DebugScoring, composed); err != nil {
			log.Println("debug-scoring write failed:", err)
		}
	}

	r.sink.LogValue(ts.Timestamp, number)
	return true
}

func (r *runner) buildEngine(frame *image.Gray) error {
	templates := make([]*image.Gray, 0, len(r.cfg.DigitTemplates))
	identifiers := make(assemble.Identifiers, 0, len(r.cfg.DigitTemplates))
	maxW, maxH := 0, 0
	for _, path := range r.cfg.DigitTemplates {
		img, err := imageop.Load(path)
		if err != nil {
			return err
		}
		b := img.Bounds()
		if b.Dx() > maxW {
			maxW = b.Dx()
		}
		if b.Dy() > maxH {
			maxH = b.Dy()
		}
		templates = append(templates, img)
		identifiers = append(identifiers, filepath.Base(path))
	}

	fb := frame.Bounds()
	driver := fft.NewDriver()
	store := template.NewStore(driver, fb.Dx()+maxW, fb.Dy()+maxH)
	for i, img := range templates {
		if _, err := store.Register(img, identifiers[i]); err != nil {
			return err
		}
	}

	r.store = store
	r.engine = matcher.New(driver, store)
	r.templates = templates
	r.identifiers = identifiers
	r.digitWidth = maxW
	return nil
}

func writeDebugImage(dest string, ts time.Time, img *image.Gray) {
	if dest == "" {
		return
	}
	path := dest
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		path = filepath.Join(dest, fmt.Sprintf("%d.png", ts.Unix()))
	}
	if err := writePNG(path, img); err != nil {
		log.Println("debug image write failed:", err)
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
}
