package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/anidex/anidex/src/internal/adapters/gateway"
	"github.com/anidex/anidex/src/internal/domain"
	"github.com/anidex/anidex/src/internal/logging"
)

// pressable is a button from the last batch of replies, remembered with the
// message it sits under so presses can be delivered as edits.
type pressable struct {
	data      string
	messageID int64
}

type console struct {
	client  *gateway.Client
	base    domain.Interaction
	nextID  int64
	buttons []pressable
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "gateway base URL")
	token := flag.String("token", os.Getenv("ANIDEX_BRIDGE_TOKEN"), "bearer token for the gateway")
	user := flag.Int64("user", 1, "transport user id to act as")
	locale := flag.String("locale", "fr", "viewer locale")
	group := flag.Bool("group", false, "behave like a group chat")
	flag.Parse()

	logging.Init(logging.Config{Level: "warn", Format: "console"})

	c := &console{
		client: gateway.NewClient(*addr, *token),
		base: domain.Interaction{
			UserID: *user,
			Handle: "console",
			Locale: *locale,
			Group:  *group,
		},
	}

	fmt.Println("Type /commands, free text, or #N to press button N. Ctrl-D quits.")
	in := bufio.NewScanner(os.Stdin)
	for fmt.Print("> "); in.Scan(); fmt.Print("> ") {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if err := c.send(context.Background(), line); err != nil {
			logging.Error().Err(err).Msg("interaction failed")
		}
	}
}

func (c *console) send(ctx context.Context, line string) error {
	in := c.base
	switch {
	case strings.HasPrefix(line, "#"):
		n, err := strconv.Atoi(line[1:])
		if err != nil || n < 1 || n > len(c.buttons) {
			return fmt.Errorf("no button %q", line)
		}
		b := c.buttons[n-1]
		in.Kind = domain.InteractionButton
		in.Payload = b.data
		in.MessageID = b.messageID
	case strings.HasPrefix(line, "/"):
		in.Kind = domain.InteractionCommand
		in.Payload = line
	default:
		in.Kind = domain.InteractionText
		in.Payload = line
	}

	resp, err := c.client.Send(ctx, in)
	if err != nil {
		return err
	}
	c.buttons = c.buttons[:0]
	for _, r := range resp.Replies {
		c.print(r)
	}
	return nil
}

func (c *console) print(r domain.Reply) {
	id := r.EditMessageID
	if r.Discipline == domain.DisciplineNew || id == 0 {
		c.nextID++
		id = c.nextID
		fmt.Printf("\n[message %d]\n", id)
	} else {
		fmt.Printf("\n[message %d edited]\n", id)
	}
	if r.Notice != "" {
		fmt.Printf("(%s)\n", r.Notice)
	}
	if r.Photo != "" {
		fmt.Printf("🖼  %s\n", r.Photo)
	}
	fmt.Println(r.Text)

	for _, row := range r.Keyboard {
		cells := make([]string, 0, len(row))
		for _, b := range row {
			switch {
			case b.URL != "":
				cells = append(cells, fmt.Sprintf("[%s ↗ %s]", b.Text, b.URL))
			default:
				c.buttons = append(c.buttons, pressable{data: b.Data, messageID: id})
				cells = append(cells, fmt.Sprintf("[#%d %s]", len(c.buttons), b.Text))
			}
		}
		fmt.Println(strings.Join(cells, " "))
	}
}
