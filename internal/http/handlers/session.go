package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	applog "keepsake/internal/log"
	"keepsake/internal/repos"
	"keepsake/internal/services"
	"keepsake/internal/validate"
)

const sidCookie = "sid"

// Session gives every request a session id in Locals("sid"), minting the
// cookie on first contact. Cart and currency state hang off that id.
func Session(users *repos.UserRepo, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(sidCookie)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     sidCookie,
				Value:    sid,
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
				Secure:   secure,
				Expires:  time.Now().Add(30 * 24 * time.Hour),
			})
			if err := users.StartSession(sid); err != nil {
				applog.Error(c, "session.start.fail", err, nil)
			}
		}
		c.Locals("sid", sid)
		return c.Next()
	}
}

// AttachUser puts the logged-in user, if any, into Locals("user").
func AttachUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if u, err := auth.CurrentUser(sessionID(c)); err == nil && u != nil {
			c.Locals("user", u)
		}
		return c.Next()
	}
}

func sessionID(c *fiber.Ctx) string {
	if sid, ok := c.Locals("sid").(string); ok {
		return sid
	}
	return c.Cookies(sidCookie)
}

// locale is the shopper's preferred language, or Und when none is sent.
func locale(c *fiber.Ctx) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
	if err != nil || len(tags) == 0 {
		return language.Und
	}
	return tags[0]
}

// decode parses a JSON body and checks its validate tags.
func decode(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return err
	}
	return validate.Struct(out)
}

func badRequest(c *fiber.Ctx, err error) error {
	body := fiber.Map{"error": "invalid request"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		names := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			names = append(names, fe.Field())
		}
		body["fields"] = names
		applog.Security(c, "validation.fail", map[string]any{"fields": names})
	} else {
		applog.Security(c, "validation.fail", map[string]any{"reason": "malformed body"})
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
