package log_test

import (
	"bytes"
	stdlog "log"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
)

func TestEntriesCarryRequestUser(t *testing.T) {
	var buf bytes.Buffer
	stdlog.SetOutput(&buf)
	defer stdlog.SetOutput(os.Stderr)

	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		c.Locals("user", &domain.User{ID: "u-alice"})
		applog.Info(c, "market.buy", map[string]any{"qty": 1})
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	line := buf.String()
	for _, want := range []string{`"user_id":"u-alice"`, `"action":"market.buy"`, `"path":"/x"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line missing %s: %s", want, line)
		}
	}
}

func TestEntriesWithoutRequestContext(t *testing.T) {
	var buf bytes.Buffer
	stdlog.SetOutput(&buf)
	defer stdlog.SetOutput(os.Stderr)

	applog.Info(nil, "board.sweep", map[string]any{"removed": 3})

	line := buf.String()
	if !strings.Contains(line, `"action":"board.sweep"`) || strings.Contains(line, "user_id") {
		t.Fatalf("bad log line: %s", line)
	}
}
