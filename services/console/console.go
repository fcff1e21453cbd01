// Package console is a small line-oriented control surface for bench work
// and simulation. It reads commands from an io.Reader, flips virtual
// switches over the bus and reports switch state from the store.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/google/shlex"
	"github.com/rs/zerolog/log"

	"servoswitch-go/bus"
	"servoswitch-go/services/switches"
	"servoswitch-go/types"
)

type Console struct {
	conn  *bus.Connection
	store *switches.Store
	out   io.Writer
}

func New(conn *bus.Connection, store *switches.Store, out io.Writer) *Console {
	return &Console{conn: conn, store: store, out: out}
}

// Run reads lines until EOF or context cancellation. Input errors other
// than EOF are returned; command errors are reported on out and the loop
// continues.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for sc.Scan() {
			lines <- sc.Text()
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if err := c.exec(line); err != nil {
				fmt.Fprintln(c.out, "error:", err)
			}
		}
	}
}

func (c *Console) exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "set":
		return c.set(args[1:])
	case "get":
		return c.get(args[1:])
	case "list":
		return c.list()
	case "help":
		fmt.Fprint(c.out, helpText)
		return nil
	default:
		return fmt.Errorf("unknown command %q (try help)", args[0])
	}
}

func (c *Console) set(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <index> on|off")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad index %q", args[0])
	}
	var on bool
	switch args[1] {
	case "on", "1", "true":
		on = true
	case "off", "0", "false":
		on = false
	default:
		return fmt.Errorf("bad state %q (want on or off)", args[1])
	}
	c.conn.Publish(c.conn.NewMessage(switches.TopicVirtualSet(idx), types.SwitchSet{On: on}, false))
	log.Debug().Int("index", idx).Bool("on", on).Msg("console set")
	return nil
}

func (c *Console) get(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: get <index>")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad index %q", args[0])
	}
	v, err := c.store.Get(idx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "switch %d: %s\n", idx, onOff(v))
	return nil
}

func (c *Console) list() error {
	for i, v := range c.store.Snapshot() {
		fmt.Fprintf(c.out, "switch %d: %s\n", i, onOff(v))
	}
	return nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

const helpText = `commands:
  set <index> on|off   request a virtual switch state
  get <index>          print one switch
  list                 print all switches
  help                 this text
`
