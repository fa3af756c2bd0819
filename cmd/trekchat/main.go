package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"trekconnect/client"
	"trekconnect/domain"
	"trekconnect/domain/event"
	"trekconnect/session"
	"trekconnect/transport"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the session, the websocket transport, and a small stdin
// command loop. Inbound traffic is printed by an event sink so the
// prompt never blocks delivery.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)
	me := domain.ParticipantID(config.Handle)
	peer := domain.ParticipantID(config.Peer)

	roomID, err := domain.DeriveRoomID(me, peer)
	if err != nil {
		return exitConfig, fmt.Errorf("cannot derive room: %w", err)
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Session over the websocket transport.
	store := client.NewStore(config.GatewayURL, config.Token, config.RequestTimeout, log)
	opts := transport.Options{
		Path:                 config.WebsocketURL,
		UserID:               config.Handle,
		Token:                config.Token,
		Reconnection:         config.Reconnection,
		ReconnectionAttempts: config.ReconnectionAttempts,
		ReconnectionDelay:    config.ReconnectionDelay,
		Transports:           []string{transport.NewWebsocketTransport().Name()},
		Timeout:              config.RequestTimeout,
	}

	sess := session.New(log, transport.NewWebsocketTransport(), store, me, opts)
	sess.AddSink(&consoleSink{me: me})
	defer sess.Disconnect()

	if _, err := sess.Connect(me); err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.WebsocketURL, err)
	}
	if err := sess.Rooms().Join(roomID); err != nil {
		log.Warn("Join queued until the connection is up", "room", roomID, "error", err)
	}

	color.New(color.FgGreen).Printf(">>> Connected as %s, talking to %s (Ctrl+C to quit)\n", me, peer)
	fmt.Println("Commands: /history, /read <message-id>, /quit")

	// 4. Command loop on stdin.
	lines := readLines(ctx)
	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if done := dispatch(ctx, sess, store, roomID, peer, line); done {
				return exitOK, nil
			}
		}
	}
}

// dispatch handles one input line and reports whether the loop should end.
func dispatch(ctx context.Context, sess *session.Session, store *client.Store,
	roomID domain.RoomID, peer domain.ParticipantID, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "/quit":
		return true
	case line == "/history":
		printHistory(ctx, store, roomID)
		return false
	case strings.HasPrefix(line, "/read "):
		markRead(sess, strings.TrimPrefix(line, "/read "))
		return false
	default:
		if _, err := sess.Messages().Send(roomID, line, peer); err != nil {
			color.New(color.FgRed).Printf("send failed: %v\n", err)
		}
		return false
	}
}

func markRead(sess *session.Session, raw string) {
	messageID, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		color.New(color.FgRed).Println("usage: /read <message-id>")
		return
	}
	if err := sess.Receipts().MarkRead(messageID); err != nil {
		color.New(color.FgRed).Printf("mark read failed: %v\n", err)
	}
}

func printHistory(ctx context.Context, store *client.Store, roomID domain.RoomID) {
	messages, err := store.MessagesForRoom(ctx, roomID)
	if err != nil {
		color.New(color.FgRed).Printf("history failed: %v\n", err)
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Sender", "Body", "Sent At", "Read"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, msg := range messages {
		read := ""
		if msg.ReadAt != nil {
			read = msg.ReadAt.Format("15:04:05")
		}
		table.Append([]string{
			msg.ID.String(),
			string(msg.SenderID),
			msg.Body,
			msg.SentAt.Format("2006-01-02 15:04:05"),
			read,
		})
	}
	table.Render()
}

// consoleSink prints session events for the interactive user.
type consoleSink struct {
	me domain.ParticipantID
}

func (c *consoleSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageDelivered:
		if evt.Message.SenderID == c.me {
			color.New(color.FgCyan).Printf("[%s] you: %s\n",
				evt.Message.SentAt.Format("15:04:05"), evt.Message.Body)
			return nil
		}
		color.New(color.FgYellow).Printf("[%s] %s: %s\n",
			evt.Message.SentAt.Format("15:04:05"), evt.Message.SenderID, evt.Message.Body)
	case event.MessageRead:
		color.New(color.FgGreen).Printf("message %s was read at %s\n",
			evt.MessageID, evt.ReadAt.Format("15:04:05"))
	case event.ConnectionChanged:
		color.New(color.FgMagenta).Printf("connection: %s %s\n", evt.State, evt.Reason)
	case event.SendFailed:
		color.New(color.FgRed).Printf("delivery failed: %s\n", evt.Err)
	}
	return nil
}

// readLines pumps stdin into a channel so reads never block shutdown.
func readLines(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			case out <- scanner.Text():
			}
		}
	}()
	return out
}
