// Package admin implements the staff-side operations: reviewing accounts,
// toggling their active flag, answering messages, moving applications
// through their statuses and removing accounts.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"zawamis/files"
	"zawamis/models"
	"zawamis/store"
)

// ErrUsage is returned for malformed command lines. The usage text has
// already been written when it is returned.
var ErrUsage = errors.New("usage error")

type command struct {
	name     string
	args     string
	summary  string
	nargs    int
	// variadic commands take extra trailing arguments.
	variadic bool
	flags    func(fs *pflag.FlagSet)
	run      func(a *Admin, ctx context.Context, fs *pflag.FlagSet, args []string) error
}

var commands = []command{
	{name: "list", summary: "list accounts", run: (*Admin).list,
		flags: func(fs *pflag.FlagSet) { fs.Bool("inactive", false, "only show inactive accounts") }},
	{name: "activate", args: "<user-id>", summary: "allow an account to log in again", nargs: 1, run: (*Admin).activate},
	{name: "deactivate", args: "<user-id>", summary: "block an account", nargs: 1, run: (*Admin).deactivate},
	{name: "messages", args: "<user-id>", summary: "show an account's messages", nargs: 1, run: (*Admin).messages},
	{name: "reply", args: "<message-id> <text>", summary: "answer a message", nargs: 2, variadic: true, run: (*Admin).reply},
	{name: "applications", args: "<user-id>", summary: "show an account's job applications", nargs: 1, run: (*Admin).applications},
	{name: "set-status", args: "<application-id> <status>", summary: "change an application's status", nargs: 2, run: (*Admin).setStatus},
	{name: "delete-account", args: "<user-id>", summary: "remove an account with everything it owns", nargs: 1, run: (*Admin).deleteAccount,
		flags: func(fs *pflag.FlagSet) { fs.Bool("yes", false, "confirm the deletion") }},
}

type Admin struct {
	store  store.Store
	files  files.Storage
	out    io.Writer
	logger *slog.Logger
	now    func() time.Time
}

// New returns an Admin writing its reports to out. fs may be nil, in which
// case stored files are left in place when an account is deleted.
func New(s store.Store, fs files.Storage, out io.Writer, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Admin{
		store:  s,
		files:  fs,
		out:    out,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one command line such as ["reply", "12", "Thanks"].
func (a *Admin) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		fs := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
		fs.SetOutput(a.out)
		if cmd.flags != nil {
			cmd.flags(fs)
		}
		if err := fs.Parse(args[1:]); err != nil {
			return ErrUsage
		}
		rest := fs.Args()
		if len(rest) < cmd.nargs || (!cmd.variadic && len(rest) != cmd.nargs) {
			fmt.Fprintf(a.out, "usage: admin %s %s\n", cmd.name, cmd.args)
			return ErrUsage
		}
		return cmd.run(a, ctx, fs, rest)
	}
	fmt.Fprintf(a.out, "unknown command %q\n", args[0])
	a.usage()
	return ErrUsage
}

func (a *Admin) usage() {
	fmt.Fprintln(a.out, "usage: admin <command> [flags] [args]")
	fmt.Fprintln(a.out)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %s %s\t%s\n", cmd.name, cmd.args, cmd.summary)
	}
	w.Flush()
}

func (a *Admin) list(ctx context.Context, fs *pflag.FlagSet, _ []string) error {
	inactiveOnly, _ := fs.GetBool("inactive")
	accounts, err := a.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tID NUMBER\tACTIVE\tREGISTERED")
	for _, acc := range accounts {
		if inactiveOnly && acc.IsActive {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
			acc.ID, acc.FullName(), acc.Email, acc.IDNumber, acc.IsActive, acc.RegistrationDate.Format(time.DateTime))
	}
	return w.Flush()
}

func (a *Admin) activate(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	return a.setActive(ctx, args[0], true)
}

func (a *Admin) deactivate(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	return a.setActive(ctx, args[0], false)
}

func (a *Admin) setActive(ctx context.Context, id string, active bool) error {
	if err := a.store.SetAccountActive(ctx, id, active); err != nil {
		return notFound(err, "user", id)
	}
	a.logger.InfoContext(ctx, "account active flag changed", "user_id", id, "active", active)
	fmt.Fprintf(a.out, "user %s active=%t\n", id, active)
	return nil
}

func (a *Admin) messages(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	acc, err := a.store.FindAccount(ctx, store.AccountQuery{Key: store.KeyID, Value: args[0]})
	if err != nil {
		return notFound(err, "user", args[0])
	}
	msgs, err := a.store.ListMessages(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSENT\tMESSAGE\tFILE\tREPLY")
	for _, m := range msgs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.CreatedAt.Format(time.DateTime), oneLine(m.Body), m.FileName, oneLine(m.AdminReply))
	}
	return w.Flush()
}

func (a *Admin) reply(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	id, text := args[0], strings.TrimSpace(strings.Join(args[1:], " "))
	if text == "" {
		return errors.New("reply text is empty")
	}
	if err := a.store.ReplyToMessage(ctx, id, text, a.now()); err != nil {
		return notFound(err, "message", id)
	}
	fmt.Fprintf(a.out, "replied to message %s\n", id)
	return nil
}

func (a *Admin) applications(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	acc, err := a.store.FindAccount(ctx, store.AccountQuery{Key: store.KeyID, Value: args[0]})
	if err != nil {
		return notFound(err, "user", args[0])
	}
	apps, err := a.store.ListApplications(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("list applications: %w", err)
	}
	sort.SliceStable(apps, func(i, j int) bool { return apps[i].ApplicationDate.After(apps[j].ApplicationDate) })
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tJOB TITLE\tSTATUS\tAPPLIED")
	for _, app := range apps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", app.ID, app.JobTitle, app.Status, app.ApplicationDate.Format(time.DateTime))
	}
	return w.Flush()
}

func (a *Admin) setStatus(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	id, status := args[0], models.ApplicationStatus(strings.ToLower(args[1]))
	if !status.Valid() {
		return fmt.Errorf("unknown status %q (want pending, reviewed, rejected or hired)", args[1])
	}
	if err := a.store.SetApplicationStatus(ctx, id, status); err != nil {
		return notFound(err, "application", id)
	}
	fmt.Fprintf(a.out, "application %s is now %s\n", id, status)
	return nil
}

func (a *Admin) deleteAccount(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	if yes, _ := fs.GetBool("yes"); !yes {
		return errors.New("refusing to delete without --yes")
	}
	id := args[0]
	var refs []files.Stored
	if a.files != nil {
		var err error
		if refs, err = a.ownedFiles(ctx, id); err != nil {
			return err
		}
	}
	if err := a.store.DeleteAccount(ctx, id); err != nil {
		return notFound(err, "user", id)
	}
	if a.files != nil {
		files.Discard(ctx, a.files, refs)
	}
	a.logger.InfoContext(ctx, "account deleted", "user_id", id, "files", len(refs))
	fmt.Fprintf(a.out, "deleted user %s\n", id)
	return nil
}

// ownedFiles collects the file references held by the account's records.
func (a *Admin) ownedFiles(ctx context.Context, id string) ([]files.Stored, error) {
	if _, err := a.store.FindAccount(ctx, store.AccountQuery{Key: store.KeyID, Value: id}); err != nil {
		return nil, notFound(err, "user", id)
	}
	docs, err := a.store.ListDocuments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	apps, err := a.store.ListApplications(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	msgs, err := a.store.ListMessages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	var refs []files.Stored
	for _, d := range docs {
		refs = append(refs, files.Stored{Ref: d.File})
	}
	for _, app := range apps {
		refs = append(refs, files.Stored{Ref: app.CV}, files.Stored{Ref: app.CoverLetter})
	}
	for _, m := range msgs {
		refs = append(refs, files.Stored{Ref: m.File})
	}
	return refs, nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %s not found", what, id)
	}
	return err
}

func oneLine(s string) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) > 60 {
		return string(r[:57]) + "..."
	}
	return string(r)
}
