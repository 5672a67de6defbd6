// Command inspect prints what the delivery core keeps in Badger: stored
// notifications of a user, the conversation of a pair, or the reminders due
// in a time window.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"rendezvous/repositories"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	what := flag.String("what", "reminders", "notifications | messages | reminders")
	user := flag.String("user", "", "Username (notifications, messages)")
	with := flag.String("with", "", "Other party of the conversation (messages)")
	limit := flag.Int("limit", 50, "Maximum notifications to list")
	window := flag.Duration("window", 24*time.Hour, "Reminder window starting now")
	flag.Parse()

	if err := run(*dbPath, *what, *user, *with, *limit, *window); err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run(dbPath, what, user, with string, limit int, window time.Duration) error {
	db, err := badger.Open(badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		return fmt.Errorf("opening badger: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	log := logs.GetLoggerFromString("ERROR")
	table := newTable()

	switch what {
	case "notifications":
		if user == "" {
			return fmt.Errorf("-user is required")
		}
		list, err := repositories.NewNotificationRepository(db, log).ListNotifications(ctx, user, limit)
		if err != nil {
			return err
		}
		title("Notifications of " + user)
		table.SetHeader([]string{"Created", "Type", "Read", "Message"})
		for _, n := range list {
			table.Append([]string{n.CreatedAt.Format(time.DateTime), string(n.Type), fmt.Sprint(n.Read), n.Message})
		}

	case "messages":
		if user == "" || with == "" {
			return fmt.Errorf("-user and -with are required")
		}
		list, err := repositories.NewMessageRepository(db, log, nil).GetMessagesBetweenUsers(ctx, user, with)
		if err != nil {
			return err
		}
		title(fmt.Sprintf("Conversation %s / %s", user, with))
		table.SetHeader([]string{"Sent", "From", "To", "Edited", "Body"})
		for _, m := range list {
			table.Append([]string{m.SentAt.Format(time.DateTime), m.Sender, m.Receiver, fmt.Sprint(m.Edited), m.Body})
		}

	case "reminders":
		now := time.Now()
		activities, err := repositories.NewActivityRepository(db).UpcomingActivities(ctx, now, now.Add(window))
		if err != nil {
			return err
		}
		notes, err := repositories.NewNoteRepository(db).DueNotes(ctx, now, now.Add(window))
		if err != nil {
			return err
		}
		title(fmt.Sprintf("Reminders due before %s", now.Add(window).Format(time.DateTime)))
		table.SetHeader([]string{"At", "Kind", "ID", "Recipients", "Detail"})
		for _, a := range activities {
			table.Append([]string{a.StartsAt.Format(time.DateTime), "ACTIVITY", a.ID,
				strings.Join(a.Recipients(), ","), a.Name})
		}
		for _, n := range notes {
			table.Append([]string{n.DueAt.Format(time.DateTime), "NOTE", n.ID, n.Owner, n.Comment})
		}

	default:
		return fmt.Errorf("unknown -what %q", what)
	}

	table.Render()
	return nil
}

func newTable() *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func title(text string) {
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render("  ====== " + text + " ======"))
}
