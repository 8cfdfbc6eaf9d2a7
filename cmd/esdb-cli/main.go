// Command esdb-cli is an example/demo driver over an esdb Stream. It is not
// part of the core (spec.md §1 places "example/demo drivers" out of scope)
// and imports only the package's public surface.
package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/esdb"
)

func main() {
	app := &cli.App{
		Name:        "esdb-cli",
		Usage:       "append to and query an esdb event store",
		Description: "A demo driver over an esdb.Stream: append events, read its length, and iterate by descriptor.",
		Commands: []*cli.Command{
			newCmd_Append(),
			newCmd_Len(),
			newCmd_Iterate(),
		},
	}

	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var flagPath = &cli.StringFlag{
	Name:     "path",
	Usage:    "path to the event store directory",
	Required: true,
}

func newCmd_Append() *cli.Command {
	return &cli.Command{
		Name:  "append",
		Usage: "append one event to the store",
		Flags: []cli.Flag{
			flagPath,
			&cli.StringFlag{Name: "identifier", Required: true},
			&cli.StringFlag{Name: "version", Value: "0", Usage: "descriptor version, 0-255"},
			&cli.StringSliceFlag{Name: "tag"},
			&cli.StringFlag{Name: "data", Usage: "payload bytes, taken literally"},
		},
		Action: func(c *cli.Context) error {
			stream, err := esdb.Open(c.String("path"))
			if err != nil {
				return err
			}
			defer stream.Close()

			version, err := strconv.ParseUint(c.String("version"), 10, 8)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", c.String("version"), err)
			}
			descriptor, err := esdb.NewDescriptor(c.String("identifier"), uint8(version))
			if err != nil {
				return err
			}
			event, err := esdb.NewEvent([]byte(c.String("data")), descriptor, c.StringSlice("tag")...)
			if err != nil {
				return err
			}
			if err := stream.Append([]esdb.Event{event}); err != nil {
				return err
			}

			length, err := stream.Len()
			if err != nil {
				return err
			}
			fmt.Printf("appended; stream length is now %d\n", length)
			return nil
		},
	}
}

func newCmd_Len() *cli.Command {
	return &cli.Command{
		Name:  "len",
		Usage: "print the number of events in the store",
		Flags: []cli.Flag{flagPath},
		Action: func(c *cli.Context) error {
			stream, err := esdb.Open(c.String("path"))
			if err != nil {
				return err
			}
			defer stream.Close()

			length, err := stream.Len()
			if err != nil {
				return err
			}
			fmt.Println(length)
			return nil
		},
	}
}

func newCmd_Iterate() *cli.Command {
	return &cli.Command{
		Name:  "iterate",
		Usage: "list positions matching a descriptor identifier, optionally filtered by version range start:end",
		Flags: []cli.Flag{
			flagPath,
			&cli.StringFlag{Name: "identifier", Required: true},
			&cli.StringFlag{Name: "versions", Usage: `half-open version range as "start:end", e.g. "0:2"`},
		},
		Action: func(c *cli.Context) error {
			stream, err := esdb.Open(c.String("path"))
			if err != nil {
				return err
			}
			defer stream.Close()

			spec := esdb.DescriptorSpecifier{Identifier: c.String("identifier")}
			if raw := c.String("versions"); raw != "" {
				start, end, err := parseVersionRange(raw)
				if err != nil {
					return err
				}
				spec.Versions = &esdb.VersionRange{Start: start, End: end}
			}

			positions, err := stream.IterateByDescriptor(spec, nil)
			if err != nil {
				return err
			}
			for _, position := range positions {
				fmt.Println(position)
			}
			return nil
		},
	}
}

func parseVersionRange(raw string) (start, end uint8, err error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid version range %q, want \"start:end\"", raw)
	}
	s, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", parts[0], err)
	}
	e, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", parts[1], err)
	}
	return uint8(s), uint8(e), nil
}
