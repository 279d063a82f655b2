package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/imageio"
	"github.com/df07/go-pathtracer/pkg/publish"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

func main() {
	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "pathtracer"
	app.Usage = "render spheres with a Monte Carlo path tracer"
	app.Writer = stdout
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "env",
			Value: ".env",
			Usage: "optional file of PATHTRACER_* settings",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "render",
			Usage:  "render a scene to an image file, or PPM on stdout with --output -",
			Action: renderAction,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "scene", Usage: "scene to render (see 'scenes')"},
				cli.IntFlag{Name: "width", Usage: "image width; height follows the camera aspect ratio"},
				cli.IntFlag{Name: "samples", Usage: "samples per pixel"},
				cli.IntFlag{Name: "max-depth", Usage: "maximum ray bounces"},
				cli.Int64Flag{Name: "seed", Usage: "random seed for scene layout and sampling"},
				cli.IntFlag{Name: "workers", Usage: "parallel workers (0 = all CPUs)"},
				cli.StringFlag{Name: "output, o", Usage: "output path; the extension picks the format"},
				cli.Float64Flag{Name: "vfov", Usage: "override the vertical field of view in degrees"},
				cli.Float64Flag{Name: "aperture", Usage: "override the lens aperture"},
				cli.UintFlag{Name: "thumbnail", Usage: "also write a PNG thumbnail no larger than this"},
				cli.BoolFlag{Name: "publish", Usage: "upload the result to the configured S3 bucket"},
			},
		},
		{
			Name:      "convert",
			Usage:     "convert an image between PPM, PNG, JPEG and other formats",
			ArgsUsage: "<input> <output>",
			Action:    convertAction,
			Flags: []cli.Flag{
				cli.UintFlag{Name: "width", Usage: "resize to this width, keeping the aspect ratio"},
			},
		},
		{
			Name:      "inspect",
			Usage:     "print the size and average color of an image",
			ArgsUsage: "<image>",
			Action:    inspectAction,
		},
		{
			Name:   "scenes",
			Usage:  "list the available scenes",
			Action: scenesAction,
		},
	}
	return app
}

// renderSettings resolves configuration from the env file, environment and flags, in increasing priority
func renderSettings(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.GlobalString("env"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("scene") {
		cfg.Scene = c.String("scene")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
		if cfg.Width <= 0 {
			return cfg, fmt.Errorf("%w: width %d must be positive", renderer.ErrInvalidSampling, cfg.Width)
		}
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Int64("seed")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	return cfg, nil
}

// sceneOverrides holds values given explicitly on the command line. A nil field
// keeps the configured value; a set field is assigned even when it is zero.
type sceneOverrides struct {
	samples  *int
	maxDepth *int
	workers  *int
	vfov     *float32
	aperture *float32
}

func flagOverrides(c *cli.Context) sceneOverrides {
	var o sceneOverrides
	if c.IsSet("samples") {
		o.samples = ptr(c.Int("samples"))
	}
	if c.IsSet("max-depth") {
		o.maxDepth = ptr(c.Int("max-depth"))
	}
	if c.IsSet("workers") {
		o.workers = ptr(c.Int("workers"))
	}
	if c.IsSet("vfov") {
		o.vfov = ptr(float32(c.Float64("vfov")))
	}
	if c.IsSet("aperture") {
		o.aperture = ptr(float32(c.Float64("aperture")))
	}
	return o
}

func ptr[T any](v T) *T {
	return &v
}

// createScene builds the configured scene. Non-zero config values override the
// scene defaults, then explicit overrides are assigned as given.
func createScene(cfg config.Config, overrides sceneOverrides) (*scene.Scene, error) {
	s, err := scene.Build(cfg.Scene, scene.Options{
		Width: cfg.Width,
		Seed:  cfg.Seed,
	})
	if err != nil {
		return nil, err
	}

	sampling := renderer.MergeSamplingConfig(s.SamplingConfig, renderer.SamplingConfig{
		SamplesPerPixel: cfg.Samples,
		MaxDepth:        cfg.MaxDepth,
		NumWorkers:      cfg.Workers,
	})
	if overrides.samples != nil {
		sampling.SamplesPerPixel = *overrides.samples
	}
	if overrides.maxDepth != nil {
		sampling.MaxDepth = *overrides.maxDepth
	}
	if overrides.workers != nil {
		sampling.NumWorkers = *overrides.workers
	}
	s.SamplingConfig = sampling

	if overrides.vfov != nil || overrides.aperture != nil {
		cameraConfig := s.CameraConfig
		if overrides.vfov != nil {
			cameraConfig.VFov = *overrides.vfov
		}
		if overrides.aperture != nil {
			cameraConfig.Aperture = *overrides.aperture
		}
		s.CameraConfig = cameraConfig
		s.Camera = renderer.NewCamera(cameraConfig)
	}
	return s, nil
}

func renderAction(c *cli.Context) error {
	cfg, err := renderSettings(c)
	if err != nil {
		return err
	}

	s, err := createScene(cfg, flagOverrides(c))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := renderer.NewDefaultLogger()
	logger.Printf("Using %s scene at %dx%d...\n", s.Name, s.SamplingConfig.Width, s.SamplingConfig.Height)

	frame, stats, err := s.Render(ctx, logger, nil)
	if err != nil {
		return err
	}
	logger.Printf("Samples per pixel: %.1f (range %d - %d)\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed)

	img := frame.Image()
	if cfg.Output == "-" {
		return imageio.WritePPM(c.App.Writer, img)
	}

	if err := imageio.Save(cfg.Output, img); err != nil {
		return err
	}
	logger.Printf("Render saved as %s\n", cfg.Output)

	if size := c.Uint("thumbnail"); size > 0 {
		thumbPath := strings.TrimSuffix(cfg.Output, filepath.Ext(cfg.Output)) + "_thumb.png"
		if err := imageio.Save(thumbPath, imageio.Thumbnail(img, size, size)); err != nil {
			return err
		}
		logger.Printf("Thumbnail saved as %s\n", thumbPath)
	}

	if c.Bool("publish") {
		publisher, err := publish.NewS3Publisher(cfg.S3, logger)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(cfg.Output), filepath.Ext(cfg.Output)) + ".png"
		if _, err := publisher.PublishImage(ctx, name, img); err != nil {
			return err
		}
	}
	return nil
}

func convertAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("convert needs an input and an output path, got %d arguments", c.NArg())
	}
	input, output := c.Args().Get(0), c.Args().Get(1)

	img, err := imageio.Open(input)
	if err != nil {
		return err
	}
	if width := c.Uint("width"); width > 0 {
		img = imageio.Resize(img, width)
	}
	if err := imageio.Save(output, img); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s -> %s (%dx%d)\n", input, output, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

func inspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("inspect needs one image path, got %d arguments", c.NArg())
	}
	path := c.Args().First()

	img, err := imageio.Open(path)
	if err != nil {
		return err
	}

	avg := averageColor(img)
	bounds := img.Bounds()
	fmt.Fprintf(c.App.Writer, "%s: %dx%d, average color (%d, %d, %d)\n",
		path, bounds.Dx(), bounds.Dy(), avg.R, avg.G, avg.B)
	return nil
}

// averageColor returns the mean 8-bit color of img
func averageColor(img image.Image) color.RGBA {
	bounds := img.Bounds()
	var r, g, b uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			r += uint64(c.R)
			g += uint64(c.G)
			b += uint64(c.B)
		}
	}

	n := uint64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: 255}
}

func scenesAction(c *cli.Context) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	for _, info := range scene.List() {
		fmt.Fprintf(w, "%s\t%s\n", info.ID, info.Description)
	}
	return w.Flush()
}
