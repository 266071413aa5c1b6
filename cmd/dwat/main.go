package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/zolutal/dwat"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	mode := func(c *cli.Context) dwat.Mode {
		if c.Bool("verbose") {
			return dwat.Verbose
		}
		return dwat.Compact
	}

	verboseFlag := &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "print sizes and offsets of struct fields",
	}

	app := &cli.App{
		Name:  "dwat",
		Usage: "extract and print C type layouts from DWARF debug info",
		Commands: []*cli.Command{
			{
				Name:      "lookup",
				Aliases:   []string{"l"},
				Usage:     "find and display a single struct",
				ArgsUsage: "<dwarf-file> <struct-name>",
				Flags:     []cli.Flag{verboseFlag},
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return cli.Exit("usage: dwat lookup <dwarf-file> <struct-name>", 1)
					}
					path, name := c.Args().Get(0), c.Args().Get(1)

					d, err := dwat.Load(path)
					if err != nil {
						return err
					}
					defer d.Close()

					h, ok := d.Lookup(dwat.KindStruct, name)
					if !ok {
						return cli.Exit(fmt.Sprintf("could not find struct: %s", name), 1)
					}
					text, err := d.Format(h, mode(c))
					if err != nil {
						return err
					}
					fmt.Println(text)
					return nil
				},
			},
			{
				Name:      "dump",
				Aliases:   []string{"d"},
				Usage:     "find and display all named structs",
				ArgsUsage: "<dwarf-file>",
				Flags:     []cli.Flag{verboseFlag},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: dwat dump <dwarf-file>", 1)
					}

					d, err := dwat.Load(c.Args().Get(0))
					if err != nil {
						return err
					}
					defer d.Close()

					structs := d.AllOf(dwat.KindStruct)
					logger.Info("dumping structs", zap.Int("count", len(structs)))
					for _, nh := range structs {
						text, err := d.Format(nh.Handle, mode(c))
						if err != nil {
							logger.Warn("skipping struct",
								zap.String("name", nh.Name), zap.Error(err))
							continue
						}
						fmt.Println(text)
						fmt.Println()
					}
					return nil
				},
			},
			{
				Name:      "vars",
				Usage:     "display all named variables of union type",
				ArgsUsage: "<dwarf-file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: dwat vars <dwarf-file>", 1)
					}

					d, err := dwat.Load(c.Args().Get(0))
					if err != nil {
						return err
					}
					defer d.Close()

					for _, nh := range d.AllOf(dwat.KindVariable) {
						v, err := d.Resolve(nh.Handle)
						if err != nil {
							continue
						}
						typ, ok, err := v.Inner()
						if err != nil || !ok || typ.Kind != dwat.KindUnion {
							continue
						}
						text, err := d.Format(typ.Handle(), dwat.Compact)
						if err != nil {
							continue
						}
						fmt.Printf("%s : %s\n", nh.Name, text)
					}
					return nil
				},
			},
			{
				Name:      "info",
				Usage:     "display compilation unit info",
				ArgsUsage: "<dwarf-file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: dwat info <dwarf-file>", 1)
					}

					d, err := dwat.Load(c.Args().Get(0))
					if err != nil {
						return err
					}
					defer d.Close()

					for _, unit := range d.Units() {
						producer, err := unit.Producer()
						if err != nil {
							producer = "?"
						}
						lang := "?"
						if l, err := unit.Language(); err == nil {
							lang = l.String()
						}
						fmt.Printf("%s\n\tproducer: %s\n\tlanguage: %s\n", unit.Name(), producer, lang)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("dwat failed", zap.Error(err))
	}
}
