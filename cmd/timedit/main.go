package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/timedit"
	"github.com/bodgit/timedit/tim"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

const defaultDB = "timedit.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func open(c *cli.Context) (*timedit.TimEdit, error) {
	return timedit.New(c.String("db"), c.Int("workers"), newLogger(c))
}

func info(file string) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	h, err := tim.ReadHeader(b)
	if err != nil {
		return err
	}

	fmt.Printf("File:        %s (%s)\n", file, humanize.Bytes(uint64(len(b))))
	fmt.Printf("Bit depth:   %d\n", h.BitDepth)
	fmt.Printf("Dimensions:  %d x %d (%d words wide)\n", h.Width, h.Height, h.WordWidth)
	fmt.Printf("Image:       %d bytes at %d, %d\n", h.ImageSize, h.ImageX, h.ImageY)
	if h.HasPalette {
		fmt.Printf("CLUT:        %d colors, %d bytes at %d, %d\n", h.Colors, h.PaletteSize, h.PaletteX, h.PaletteY)
	} else {
		fmt.Println("CLUT:        none")
	}
	if extra := len(b) - h.Size; extra > 0 {
		fmt.Printf("Trailing:    %d bytes\n", extra)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "timedit"
	app.Usage = "PlayStation TIM texture utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"TIMEDIT_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.IntFlag{
			Name:    "workers",
			EnvVars: []string{"TIMEDIT_WORKERS"},
			Usage:   "number of files to process at once, defaults to the number of CPUs",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Print the structure of TIM files",
			ArgsUsage: "FILE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				for i, file := range c.Args().Slice() {
					if i > 0 {
						fmt.Println()
					}
					if err := info(file); err != nil {
						return cli.Exit(fmt.Sprintf("%s: %v", file, err), 1)
					}
				}

				return nil
			},
		},
		{
			Name:        "export",
			Usage:       "Convert a TIM file to another image format",
			Description: "The output format is chosen by extension; png, gif, jpg, bmp or qoi.",
			ArgsUsage:   "TIM OUTPUT",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "identity-palette",
					Usage: "use a gray ramp for indexed images without a CLUT",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts := &tim.Options{
					IdentityPalette: c.Bool("identity-palette"),
				}
				if err := timedit.Export(c.Args().Get(0), c.Args().Get(1), opts); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "import",
			Usage:       "Convert an image to a TIM file",
			Description: "Images are quantized with median cut when converting to 4 or 8 bits.",
			ArgsUsage:   "IMAGE TIM",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "bpp",
					Value: 16,
					Usage: "bit depth, one of 4, 8 or 16",
				},
				&cli.BoolFlag{
					Name:  "pad-rows",
					Usage: "pad each row of a 4 or 8 bit image to a whole word",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts := &tim.EncodeOptions{
					BitDepth: c.Int("bpp"),
					Options: tim.Options{
						PadRows: c.Bool("pad-rows"),
					},
				}
				if err := timedit.Import(c.Args().Get(0), c.Args().Get(1), opts); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "scan",
			Usage:     "Scan filesystem and catalog TIM files",
			ArgsUsage: "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				t, err := open(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer t.Close()

				if err := t.Scan(c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "rip",
			Usage:     "Catalog TIM files found in a CD image",
			ArgsUsage: "CUE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				t, err := open(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer t.Close()

				for _, file := range c.Args().Slice() {
					if err := t.Rip(file); err != nil {
						return cli.Exit(fmt.Sprintf("%s: %v", file, err), 1)
					}
				}

				return nil
			},
		},
		{
			Name:      "extract",
			Usage:     "Write every catalogued texture as TIM and PNG",
			ArgsUsage: "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				t, err := open(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer t.Close()

				if err := t.Extract(c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
