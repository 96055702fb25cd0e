package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Prompt(ctx context.Context) error
	SetPrompt(ctx context.Context) error
	Write(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Title(ctx context.Context, args []string) error
	Thumbnail(ctx context.Context, args []string) error
	Video(ctx context.Context, args []string) error
}

// runREPL reads commands line by line and dispatches them to a until EOF,
// "exit" or "quit". Command errors are printed and the loop goes on.
//
//	Not logged in: help, signup, login, exit
//	Logged in:     help, prompt, setprompt, write, (l)ist, show [id],
//	               title [id], thumbnail [id], video [id], logout, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("diary> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: prompt, setprompt, write, (l)ist, show, title, thumbnail, video, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, exit")
			}
		case "signup", "register":
			cmdErr = a.Signup(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "prompt":
			cmdErr = a.Prompt(ctx)
		case "setprompt":
			cmdErr = a.SetPrompt(ctx)
		case "write":
			cmdErr = a.Write(ctx)
		case "l", "list":
			cmdErr = a.List(ctx)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "title":
			cmdErr = a.Title(ctx, args)
		case "thumbnail":
			cmdErr = a.Thumbnail(ctx, args)
		case "video":
			cmdErr = a.Video(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr.Error())
		}
	}
}
