package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"rollcall/internal/apiclient"
	"rollcall/internal/checkin"
	"rollcall/internal/config"
	"rollcall/internal/events"
	"rollcall/internal/logging"
	"rollcall/internal/session"
)

func main() {
	cmd := flag.String("cmd", "events", "Command: login|logout|events|add|edit|delete|watch|checkin")
	serverFlag := flag.String("server", "", "Override server base URL (e.g. https://api.example.com)")
	page := flag.Int("page", 1, "Page number for event listing")
	limit := flag.Int("limit", 0, "Page size for event listing")
	id := flag.String("id", "", "Event ID (for edit/delete)")
	title := flag.String("title", "", "Event title (for add/edit)")
	desc := flag.String("desc", "", "Event description (for add/edit)")
	date := flag.String("date", "", "Event date as YYYY-MM-DD (for add/edit)")
	eventID := flag.String("event", "", "Event ID to check students in to (for checkin)")
	sess := flag.String("session", "AM", "Attendance session: AM or PM (for checkin)")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	if *serverFlag != "" {
		cfg.BaseURL = strings.TrimRight(*serverFlag, "/")
	}
	if *limit <= 0 {
		*limit = cfg.PageLimit
	}

	sessChoice := checkin.Session(strings.ToUpper(*sess))
	if sessChoice != checkin.SessionAM && sessChoice != checkin.SessionPM {
		fmt.Println("Unknown session:", *sess)
		os.Exit(1)
	}

	mgr := session.Open(cfg.TokenPath)
	client := apiclient.New(cfg.BaseURL, cfg.RequestTimeout, mgr)

	cli := &app{
		cfg:     cfg,
		client:  client,
		session: mgr,
		stdin:   bufio.NewReader(os.Stdin),
	}

	ctx := context.Background()
	var err error
	switch *cmd {
	case "login":
		err = cli.login(ctx)
	case "logout":
		err = cli.session.Logout()
	case "events":
		err = cli.listEvents(ctx, *page, *limit)
	case "add":
		err = cli.eventController().Create(ctx, events.Input{Title: *title, Description: *desc, Date: *date})
	case "edit":
		err = cli.editEvent(ctx, *id, events.Input{Title: *title, Description: *desc, Date: *date})
	case "delete":
		err = cli.deleteEvent(ctx, *id)
	case "watch":
		err = cli.watch(ctx, *page, *limit)
	case "checkin":
		err = cli.checkin(ctx, *eventID, sessChoice)
	default:
		fmt.Println("Unknown command:", *cmd)
		os.Exit(1)
	}
	if err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg     config.App
	client  *apiclient.Client
	session *session.Manager
	stdin   *bufio.Reader
}

// terminalAlerter prints user-facing notifications to stdout.
type terminalAlerter struct{}

func (terminalAlerter) Alert(title, message string) {
	fmt.Printf("[%s] %s\n", title, message)
}

func (a *app) eventController() *events.Controller {
	return events.NewController(a.client, terminalAlerter{}, a.confirm)
}

// confirm guards destructive actions with a y/N prompt.
func (a *app) confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := a.stdin.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (a *app) prompt(label string) string {
	fmt.Printf("%s: ", label)
	line, err := a.stdin.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (a *app) login(ctx context.Context) error {
	studentID := a.prompt("Student ID")
	password := a.prompt("Password")
	if err := a.session.Login(ctx, a.client, studentID, password); err != nil {
		terminalAlerter{}.Alert("Login Failed", err.Error())
		return err
	}
	fmt.Println("Logged in.")
	return nil
}

func (a *app) requireLogin() error {
	if !a.session.Authenticated() {
		terminalAlerter{}.Alert("Error", "No authentication token found. Please login again.")
		return fmt.Errorf("not logged in")
	}
	return nil
}

func (a *app) listEvents(ctx context.Context, page, limit int) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	ctrl := a.eventController()
	if err := ctrl.List(ctx, page, limit); err != nil {
		return err
	}
	printEvents(ctrl)
	return nil
}

func (a *app) editEvent(ctx context.Context, id string, in events.Input) error {
	if id == "" {
		fmt.Println("--id required")
		return fmt.Errorf("missing id")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	return a.eventController().Update(ctx, id, in)
}

func (a *app) deleteEvent(ctx context.Context, id string) error {
	if id == "" {
		fmt.Println("--id required")
		return fmt.Errorf("missing id")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	return a.eventController().Delete(ctx, id)
}

// watch lists events and then keeps the page fresh on the configured poll
// interval until interrupted.
func (a *app) watch(ctx context.Context, page, limit int) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	ctrl := a.eventController()
	if err := ctrl.List(ctx, page, limit); err != nil {
		return err
	}
	printEvents(ctrl)
	fmt.Printf("Refreshing every %s. Ctrl-C to stop.\n", a.cfg.PollInterval)
	ctrl.Poll(ctx, a.cfg.PollInterval)
	return nil
}

// checkin runs the scan loop for one event. Scanned QR payloads arrive one
// per line on stdin (the camera decoder is external hardware; any scanner
// that writes decoded payloads to stdout can be piped in).
func (a *app) checkin(ctx context.Context, eventID string, sess checkin.Session) error {
	if eventID == "" {
		fmt.Println("--event required")
		return fmt.Errorf("missing event id")
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	ctrl := checkin.New(eventID, a.client, terminalAlerter{})
	if err := ctrl.SetSession(sess); err != nil {
		return err
	}

	fmt.Printf("Scanning for %s session. Paste QR payloads, one per line.\n", ctrl.Session())
	for {
		line, err := a.stdin.ReadString('\n')
		if err != nil {
			return nil // end of scan feed
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ctrl.HandleScan([]byte(line))
		if ctrl.State() != checkin.StatePendingReview {
			continue
		}
		a.review(ctx, ctrl)
	}
}

// review walks one pending record through the approve/reject decision,
// re-prompting after a failed submission so the operator may retry.
func (a *app) review(ctx context.Context, ctrl *checkin.Controller) {
	record, ok := ctrl.Record()
	if !ok {
		return
	}
	fmt.Println("--- QR Code Data ---")
	fmt.Println("First Name:         ", record.FirstName)
	fmt.Println("Last Name:          ", record.LastName)
	fmt.Println("Student ID:         ", record.StudentID)
	fmt.Println("Course/Year/Section:", record.CSY)
	fmt.Println("GBox Email:         ", record.Gbox)

	for ctrl.State() == checkin.StatePendingReview {
		switch strings.ToLower(a.prompt("(a)pprove / (r)eject")) {
		case "a", "approve":
			_ = ctrl.Approve(ctx) // failure keeps the record pending for retry
		case "r", "reject":
			ctrl.Reject()
		}
	}
}

func printEvents(ctrl *events.Controller) {
	list := ctrl.Events()
	if len(list) == 0 {
		fmt.Println("No events.")
		return
	}
	for _, ev := range list {
		fmt.Printf("%s  %s  %s\n    %s\n", ev.ID, ev.Date, ev.Title, ev.Description)
	}
	fmt.Printf("Page %d (%d total)\n", ctrl.Page(), ctrl.Total())
}
