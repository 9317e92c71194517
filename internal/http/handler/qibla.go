package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"qiblaapi/internal/qibla"
)

const qiblaPlaceholder = "Qibla direction endpoint - to be implemented by developer"

// Qibla returns the bearing and distance to the Kaaba for ?lat=&lng=.
// Without coordinates it answers with the informational message older clients expect.
//
// @Summary Qibla direction
// @Tags qibla
// @Produce json
// @Param lat query number false "Latitude in decimal degrees"
// @Param lng query number false "Longitude in decimal degrees"
// @Success 200 {object} qibla.Direction
// @Failure 400 {object} errorPayload
// @Router /api/qibla [get]
func Qibla() fiber.Handler {
	return func(c *fiber.Ctx) error {
		latRaw, lngRaw := c.Query("lat"), c.Query("lng")
		if latRaw == "" && lngRaw == "" {
			return c.JSON(fiber.Map{"message": qiblaPlaceholder})
		}

		lat, errLat := strconv.ParseFloat(latRaw, 64)
		lng, errLng := strconv.ParseFloat(lngRaw, 64)
		if errLat != nil || errLng != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_COORDINATES", "Invalid coordinates")
		}

		dir, err := qibla.Compute(lat, lng)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_COORDINATES", "Invalid coordinates")
		}
		return c.JSON(dir)
	}
}
