// Package display drives the 0.96" ST7735 LCD and uses it as a status light
// for the inside temperature.
package display

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"sync"

	"github.com/asssaf/st7735-go/st7735"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/rubiojr/go-climate/alert"
)

const (
	WIDTH  int = 80
	HEIGHT int = 160
)

// Opts selects the SPI port and the control pins.
type Opts struct {
	SPIPort   string
	DCPin     string
	Backlight string
}

// DefaultOpts matches the Enviro+ wiring.
var DefaultOpts = Opts{
	SPIPort:   "SPI0.1",
	DCPin:     "GPIO9",
	Backlight: "GPIO12",
}

// Display is an open panel. host.Init must have been called.
type Display struct {
	mu  sync.Mutex
	p   spi.PortCloser
	dev *st7735.Dev
	log zerolog.Logger
}

// Open opens the SPI port and initializes the panel.
func Open(opts Opts) (*Display, error) {
	dc := gpioreg.ByName(opts.DCPin)
	if dc == nil {
		return nil, errors.Errorf("display: unknown DC pin %q", opts.DCPin)
	}
	bl := gpioreg.ByName(opts.Backlight)
	if bl == nil {
		return nil, errors.Errorf("display: unknown backlight pin %q", opts.Backlight)
	}

	p, err := spireg.Open(opts.SPIPort)
	if err != nil {
		return nil, err
	}
	dev, err := st7735.New(p, dc, nil, bl, &st7735.DefaultOpts)
	if err != nil {
		p.Close()
		return nil, err
	}

	d := &Display{p: p, dev: dev}
	d.log = zerolog.New(os.Stderr).With().Timestamp().Str("component", "display").Logger()
	d.log = d.log.Level(zerolog.InfoLevel)
	return d, nil
}

// Close releases the SPI port.
func (d *Display) Close() error {
	return d.p.Close()
}

// ColorFor maps an alert level to the screen colour.
func ColorFor(level alert.Level) color.RGBA {
	switch level {
	case alert.Normal:
		return color.RGBA{R: 0, G: 160, B: 60, A: 255}
	case alert.Warning:
		return color.RGBA{R: 255, G: 170, B: 0, A: 255}
	case alert.Alert:
		return color.RGBA{R: 220, G: 0, B: 0, A: 255}
	}
	return color.RGBA{A: 255}
}

// ShowLevel fills the screen with the colour of level.
func (d *Display) ShowLevel(level alert.Level) error {
	d.log.Debug().Str("level", level.String()).Msg("show")
	return d.FillScreen(ColorFor(level))
}

// FillScreen paints the whole panel with c.
func (d *Display) FillScreen(c color.RGBA) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev.DisplayImage(0, 0, filled(c))
}

func filled(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, WIDTH, HEIGHT))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// PowerOff the display
func (d *Display) PowerOff() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dev.SetBacklight(false)
	return nil
}

// PowerOn the display
func (d *Display) PowerOn() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dev.SetBacklight(true)
	return nil
}
