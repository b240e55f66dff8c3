package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

func (a *App) promptStatus() string {
	s := string(a.session.Status())
	if b := a.registry.Active(); b != nil {
		s = b.Type() + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	fmt.Fprintln(a.out, "Welcome to LedgerKeep (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "lk %s> ", a.promptStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			a.help()
		case "connect":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: connect <s3|http|localdir>")
				continue
			}
			a.connect(ctx, args[0])
		case "disconnect":
			a.disconnect(ctx)
		case "status":
			a.status(ctx)
		case "password":
			a.enterPassword(ctx)
		case "sync":
			a.sync(ctx)
		case "push":
			a.push(ctx)
		case "pull":
			a.pull(ctx)
		case "accounts":
			a.listAccounts(ctx)
		case "add-account":
			a.addAccount(ctx)
		case "tx":
			a.listTransactions(ctx, args)
		case "add-tx":
			a.addTransaction(ctx)
		case "budgets":
			a.listBudgets(ctx)
		case "add-budget":
			a.addBudget(ctx)
		case "del":
			if len(args) < 2 {
				fmt.Fprintln(a.out, "Usage: del <account|tx|budget> <id>")
				continue
			}
			a.deleteRecord(ctx, args[0], args[1])
		case "snapshots":
			a.listSnapshots(ctx)
		case "rollback":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: rollback <snapshot-id>")
				continue
			}
			a.rollback(ctx, args[0])
		case "export":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: export <file>")
				continue
			}
			a.exportPlaintext(ctx, args[0])
		case "import":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: import <file>")
				continue
			}
			a.importPlaintext(ctx, args[0])
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}

func (a *App) help() {
	fmt.Fprintln(a.out, "Data:       accounts, add-account, tx [account-id], add-tx, budgets, add-budget, del <kind> <id>")
	fmt.Fprintln(a.out, "Sync:       connect <s3|http|localdir>, disconnect, password, sync, push, pull, status")
	fmt.Fprintln(a.out, "Safety:     snapshots, rollback <id>, export <file>, import <file>")
	fmt.Fprintln(a.out, "Other:      help, exit")
}

func (a *App) status(ctx context.Context) {
	b := a.registry.Active()
	if b == nil {
		fmt.Fprintln(a.out, "Backend:    none (run 'connect')")
	} else {
		user := b.GetUser()
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(a.out, "Backend:    %s (user %s)\n", b.Type(), user)
	}

	st := string(a.session.Status())
	switch a.session.Status() {
	case "synced":
		st = color.GreenString(st)
	case "error":
		st = color.RedString(st)
	case "syncing":
		st = color.YellowString(st)
	}
	fmt.Fprintf(a.out, "Status:     %s\n", st)

	if at, ok := a.session.LastSyncAt(); ok {
		fmt.Fprintf(a.out, "Last sync:  %s\n", at.Local().Format("2006-01-02 15:04:05"))
	}
	if msg := a.session.LastError(); msg != "" {
		fmt.Fprintf(a.out, "Last error: %s\n", color.RedString(msg))
	}

	meta, err := a.store.Metadata(ctx)
	if err != nil {
		a.log.Error(ctx, "could not read sync metadata", "error", err)
		return
	}
	fmt.Fprintf(a.out, "Version:    %d, conflicts: %s\n", meta.LastSyncVersion, meta.ConflictState)
	if _, ok := a.session.Password(); ok {
		fmt.Fprintln(a.out, "Password:   held in memory")
	} else {
		fmt.Fprintln(a.out, "Password:   not set (run 'password')")
	}
}
