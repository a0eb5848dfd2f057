package control

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"stub-server/core/config"
)

const consoleHelp = `Commands:
  start              start the listener (restarts it when already running)
  stop               stop the listener
  restart            stop and start the listener
  status             show the listener state
  show               show the settings being edited
  set <key> <value>  change a setting in the edit buffer (e.g. set server.port_no 9090)
  save               write the edit buffer to the settings file when it changed
  reload             discard the edit buffer and read the settings file again
  keys               list every setting key
  help               show this help
  quit               stop the listener and exit`

// Console reads operator commands line by line and prints their status message.
type Console struct {
	ctl   *Controller
	out   io.Writer
	draft *config.Config
}

// NewConsole creates a console writing to out.
func NewConsole(ctl *Controller, out io.Writer) *Console {
	return &Console{ctl: ctl, out: out}
}

// Run processes commands from in until quit, EOF or ctx is done.
// It returns true when the operator asked to quit.
func (c *Console) Run(ctx context.Context, in io.Reader) bool {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.prompt()
	for {
		select {
		case <-ctx.Done():
			return false
		case line, ok := <-lines:
			if !ok {
				return false
			}
			if c.Exec(line) {
				return true
			}
			c.prompt()
		}
	}
}

// Exec runs one command line and reports whether it was quit.
func (c *Console) Exec(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "start":
		c.result(c.ctl.Start())
	case "stop":
		c.result(c.ctl.Stop())
	case "restart":
		c.result(c.ctl.Restart())
	case "status":
		c.println(c.ctl.Status())
	case "show":
		if c.loadDraft() {
			c.show()
		}
	case "set":
		if len(fields) < 2 {
			c.println("usage: set <key> <value>")
			return false
		}
		c.set(fields[1], strings.Join(fields[2:], " "))
	case "save":
		if c.loadDraft() {
			c.result(c.ctl.Save(c.draft))
		}
	case "reload":
		c.draft = nil
		if c.loadDraft() {
			c.println("Settings reloaded.")
		}
	case "keys":
		for _, k := range config.Keys() {
			c.println(k)
		}
	case "help", "?":
		c.println(consoleHelp)
	case "quit", "exit":
		return true
	default:
		c.println(fmt.Sprintf("unknown command %q, type help", fields[0]))
	}
	return false
}

func (c *Console) loadDraft() bool {
	if c.draft != nil {
		return true
	}
	cfg, msg, err := c.ctl.Load()
	if err != nil {
		c.result(msg, err)
		return false
	}
	c.draft = cfg
	return true
}

func (c *Console) set(key, value string) {
	if !c.loadDraft() {
		return
	}
	next, err := config.Apply(c.draft, key, value)
	if err != nil {
		c.println(err.Error())
		return
	}
	c.draft = next
	c.println(fmt.Sprintf("%s = %q (not saved)", strings.ToLower(key), value))
}

func (c *Console) show() {
	data, err := json.MarshalIndent(config.Settings(c.draft), "", "  ")
	if err != nil {
		c.println(err.Error())
		return
	}
	c.println(string(data))
}

func (c *Console) result(msg string, err error) {
	if err != nil {
		c.println(fmt.Sprintf("%s %v", msg, err))
		return
	}
	c.println(msg)
}

func (c *Console) prompt() {
	fmt.Fprint(c.out, "> ")
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}
