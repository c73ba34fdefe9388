package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	BiometricLogin(ctx context.Context) error
	ForgetBiometric(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from scanner and dispatches them to a until EOF,
// "exit" or "quit".
//
// The prompt shows the current status (from statusFn) and accepts:
//
//	Not logged in:
//	  - help           show available commands
//	  - register       create an account and log in
//	  - login          log in with email and password
//	  - biometric      log in as the remembered user via biometrics
//	  - reset          request a password reset email
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - help           show available commands
//	  - whoami         show the current user
//	  - forget         disable biometric unlock
//	  - logout         log out
//	  - exit | quit    leave the program
//
// Handlers report their own outcome to the user, so errors they return are
// ignored here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("authflow %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, forget, logout, exit")
			} else {
				printlnFn("Available commands: register, login, biometric, reset, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "biometric":
			_ = a.BiometricLogin(ctx)

		case "reset":
			_ = a.ResetPassword(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "forget":
			_ = a.ForgetBiometric(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
