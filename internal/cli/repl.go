package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the command surface the REPL dispatches to. The real
// App satisfies it; tests provide a lightweight stub.
type execIface interface {
	List(ctx context.Context, args []string) error
	Resolved(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Comment(ctx context.Context, args []string) error
	Group(ctx context.Context, args []string) error
	Resolve(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Groups(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  list [sort] [groups]   active points; sort is urgency, date_desc, date_asc or group
  resolved               resolved points
  add                    create a point
  comment <id> [text]    comment an active point
  group <id> [group]     change the responsible group
  resolve <id>           mark a point as resolved
  history <group>        last 7 days of a group
  export [path]          write the whole state to a JSON file
  import <path>          replace the state with a JSON export
  groups                 list groups
  help                   show this text
  exit | quit            leave`

// runREPL reads commands line by line from reader, dispatches them to a and
// prints errors to w. It returns on EOF or when the user types "exit" or
// "quit". The same reader serves the interactive prompts of the commands.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprint(w, "sitepins> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		var cmdErr error
		switch cmd {
		case "help", "?":
			fmt.Fprintln(w, helpText)

		case "l", "list":
			cmdErr = a.List(ctx, args)

		case "resolved":
			cmdErr = a.Resolved(ctx, args)

		case "add":
			cmdErr = a.Add(ctx, args)

		case "comment":
			cmdErr = a.Comment(ctx, args)

		case "group":
			cmdErr = a.Group(ctx, args)

		case "resolve":
			cmdErr = a.Resolve(ctx, args)

		case "history":
			cmdErr = a.History(ctx, args)

		case "export":
			cmdErr = a.Export(ctx, args)

		case "import":
			cmdErr = a.Import(ctx, args)

		case "groups":
			cmdErr = a.Groups(ctx, args)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd, "(type help)")
		}

		if cmdErr != nil {
			if errors.Is(cmdErr, ErrUsage) {
				fmt.Fprintln(w, cmdErr.Error())
			} else {
				fmt.Fprintln(w, "Error:", cmdErr.Error())
			}
		}

		if err != nil {
			return
		}
	}
}
