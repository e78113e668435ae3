package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/relawanhub/relawan/internal/achievement"
	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/logging"
	"github.com/relawanhub/relawan/internal/maplink"
	"github.com/relawanhub/relawan/internal/metrics"
	"github.com/relawanhub/relawan/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type handlers struct {
	deps      Dependencies
	startedAt time.Time
}

type parseRequest struct {
	Input        string `json:"input"`
	RegionPolicy string `json:"region_policy"`
	Loose        *bool  `json:"loose"`
}

type locateResponse struct {
	Place    domain.Place `json:"place"`
	Warnings []string     `json:"warnings,omitempty"`
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"uptime":  time.Since(h.startedAt).Truncate(time.Second).String(),
		"version": h.deps.Version,
	})
}

// ready reports whether the geocoder and its cache can serve /v1/locate.
func (h *handlers) ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allOK := true

	if h.deps.Location != nil {
		checks["geocoder"] = "ok"
	} else {
		checks["geocoder"] = "not configured"
	}

	if h.deps.Cache != nil {
		if err := h.deps.Cache.Ping(ctx); err != nil {
			checks["cache"] = "error: " + err.Error()
			allOK = false
		} else {
			checks["cache"] = "ok"
		}
	} else {
		checks["cache"] = "not configured"
	}

	status := "ready"
	code := fiber.StatusOK
	if !allOK {
		status = "not ready"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}

func (h *handlers) parser(policy string, loose *bool) (*maplink.Parser, error) {
	opts, err := h.deps.Settings.ParserOptions(policy)
	if err != nil {
		return nil, err
	}
	if loose != nil {
		opts = append(opts, maplink.WithLooseFallback(*loose))
	}
	return maplink.New(opts...), nil
}

func (h *handlers) parseMapLink(c *fiber.Ctx) error {
	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "request body must be JSON with an input field")
	}
	parser, err := h.parser(req.RegionPolicy, req.Loose)
	if err != nil {
		return errBadRequest(c, err.Error())
	}

	link, err := parser.Parse(req.Input)
	metrics.ObserveParse(link.Pattern, err)
	telemetry.Annotate(c, attribute.String("maplink.rule", link.Pattern))
	if err != nil {
		telemetry.Annotate(c, attribute.String("maplink.error_code", maplink.Code(err)))
		logging.FromContext(c.UserContext()).Debug("map link rejected", "error", err)
		return errParse(c, err)
	}
	return ok(c, link)
}

func (h *handlers) locate(c *fiber.Ctx) error {
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		return errBadRequest(c, "address is required")
	}
	if h.deps.Location == nil {
		return newError(c, fiber.StatusServiceUnavailable, "RELAWAN_LOCATION_RESOLVE_ERROR", "location resolver is not available")
	}
	parser, err := h.parser(c.Query("region_policy"), nil)
	if err != nil {
		return errBadRequest(c, err.Error())
	}

	place, err := h.deps.Location.Lookup(c.UserContext(), address)
	if err != nil {
		logging.FromContext(c.UserContext()).Warn("geocoding failed", "address", address, "error", err)
		return newError(c, fiber.StatusBadGateway, "RELAWAN_LOCATION_RESOLVE_ERROR", err.Error())
	}
	warnings, err := parser.CheckRegion(place.Location)
	if err != nil {
		return errParse(c, err)
	}
	return ok(c, locateResponse{Place: place, Warnings: warnings})
}

func (h *handlers) catalog(c *fiber.Ctx) (*achievement.Catalog, error) {
	track, err := achievement.ParseTrack(c.Params("track"))
	if err != nil {
		return nil, err
	}
	return achievement.ForTrack(track)
}

func (h *handlers) tiers(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return newError(c, fiber.StatusNotFound, "RELAWAN_UNKNOWN_TRACK", err.Error())
	}
	metrics.ObserveLookup(string(catalog.Track()), "tiers")
	telemetry.Annotate(c, attribute.String("achievement.track", string(catalog.Track())))
	return ok(c, catalog.Tiers())
}

func (h *handlers) classify(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return newError(c, fiber.StatusNotFound, "RELAWAN_UNKNOWN_TRACK", err.Error())
	}
	count, err := queryCount(c, "count")
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	metrics.ObserveLookup(string(catalog.Track()), "classify")
	telemetry.Annotate(c, attribute.String("achievement.track", string(catalog.Track())))
	return ok(c, catalog.Classify(count))
}

func (h *handlers) progress(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return newError(c, fiber.StatusNotFound, "RELAWAN_UNKNOWN_TRACK", err.Error())
	}
	count, err := queryCount(c, "count")
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	metrics.ObserveLookup(string(catalog.Track()), "progress")
	telemetry.Annotate(c, attribute.String("achievement.track", string(catalog.Track())))
	return ok(c, catalog.Progress(count))
}

func (h *handlers) levelUp(c *fiber.Ctx) error {
	catalog, err := h.catalog(c)
	if err != nil {
		return newError(c, fiber.StatusNotFound, "RELAWAN_UNKNOWN_TRACK", err.Error())
	}
	previous, err := queryCount(c, "previous")
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	current, err := queryCount(c, "current")
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	metrics.ObserveLookup(string(catalog.Track()), "level_up")
	telemetry.Annotate(c, attribute.String("achievement.track", string(catalog.Track())))
	return ok(c, catalog.CheckLevelUp(previous, current))
}

func queryCount(c *fiber.Ctx, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return value, nil
}
