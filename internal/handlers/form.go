package handlers

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed form.html
var formHTML []byte

// Form serves the single-page job form.
func Form(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(formHTML)
}
