package proxy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
)

// ArgSpec declares one positional command argument. Supported types:
// "string", "int", "float", "bool". A "string" argument in last position
// greedily consumes the rest of the line.
type ArgSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Command is a registered scripted command. Commands are single-phase: the
// script supplies everything up front, so there is no pending record, but
// registration still closes at the freeze point.
type Command struct {
	Handle      bridge.Handle
	Name        string
	Description string
	Args        []ArgSpec
	Permission  int // 0-4, checked by the caller against the player
}

// RegisterCommand installs a scripted command. argsJSON is a JSON array of
// ArgSpec objects; malformed specs fail the registration. Returns 0 on
// failure.
func (c *Context) RegisterCommand(name, description, argsJSON string, permission int) bridge.Handle {
	if c.Frozen() {
		c.log.Error("cannot register command after registry freeze", zap.String("name", name))
		return 0
	}
	if name == "" || strings.ContainsAny(name, " \t") {
		c.log.Error("cannot register command: bad name", zap.String("name", name))
		return 0
	}

	var args []ArgSpec
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			c.log.Error("cannot register command: bad args spec",
				zap.String("name", name), zap.Error(err))
			return 0
		}
		for _, a := range args {
			switch a.Type {
			case "string", "int", "float", "bool":
			default:
				c.log.Error("cannot register command: unknown arg type",
					zap.String("name", name), zap.String("arg", a.Name), zap.String("type", a.Type))
				return 0
			}
		}
	}

	h := c.alloc.Next()
	cmd := &Command{Handle: h, Name: name, Description: description, Args: args, Permission: permission}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.commandNames[name]; taken {
		c.log.Error("cannot register command: name taken", zap.String("name", name))
		return 0
	}
	c.commands[h] = cmd
	c.commandNames[name] = cmd
	c.log.Info("registered command", zap.String("name", "/"+name), zap.Int64("handle", int64(h)))
	return h
}

// CommandByName looks up a registered command.
func (c *Context) CommandByName(name string) (*Command, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cmd, ok := c.commandNames[name]
	return cmd, ok
}

// ExecuteCommand parses "name arg1 arg2 …" against the registered argument
// spec, marshals the parsed values into a JSON object and dispatches the
// command-execute event. Returns the handler's integer result.
func (c *Context) ExecuteCommand(line string, playerID int64) (int, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty command")
	}
	cmd, ok := c.CommandByName(fields[0])
	if !ok {
		return 0, fmt.Errorf("unknown command %q", fields[0])
	}

	args, err := parseArgs(cmd.Args, fields[1:])
	if err != nil {
		return 0, fmt.Errorf("command /%s: %w", cmd.Name, err)
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return 0, fmt.Errorf("command /%s: encode args: %w", cmd.Name, err)
	}
	return c.table.InvokeCommandExecute(cmd.Handle, playerID, string(payload)), nil
}

func parseArgs(specs []ArgSpec, fields []string) (map[string]any, error) {
	args := make(map[string]any, len(specs))
	for i, spec := range specs {
		if i >= len(fields) {
			return nil, fmt.Errorf("missing argument %q", spec.Name)
		}
		raw := fields[i]
		// Trailing string argument swallows the rest of the line.
		if spec.Type == "string" && i == len(specs)-1 {
			raw = strings.Join(fields[i:], " ")
		}
		switch spec.Type {
		case "string":
			args[spec.Name] = raw
		case "int":
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", spec.Name, err)
			}
			args[spec.Name] = v
		case "float":
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", spec.Name, err)
			}
			args[spec.Name] = v
		case "bool":
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", spec.Name, err)
			}
			args[spec.Name] = v
		}
	}
	return args, nil
}
