package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Jotthecode/city-pulse/internal/chat"
	"github.com/Jotthecode/city-pulse/internal/geocode"
	"github.com/Jotthecode/city-pulse/internal/providers"
	"github.com/Jotthecode/city-pulse/internal/pulse"
)

var validate = validator.New()

// PulseService is the aggregation core the handlers call into.
type PulseService interface {
	ComputePulse(ctx context.Context, loc pulse.Location) (pulse.CitySnapshot, error)
	Weather(ctx context.Context, loc pulse.Location) (pulse.WeatherSignal, pulse.AirQualityReading)
	Crime(ctx context.Context, loc pulse.Location) pulse.CrimeSignal
	Tourism(ctx context.Context, loc pulse.Location) pulse.TourismSignal
}

// CityResolver resolves and searches city names.
type CityResolver interface {
	Search(ctx context.Context, query string) ([]geocode.CityMatch, error)
	Resolve(ctx context.Context, city string) (pulse.Location, error)
}

// ChatService answers chat-panel questions.
type ChatService interface {
	Ask(ctx context.Context, sessionID, question string) (string, string, []chat.Message, error)
}

// NewsSource, PlacesSource, NearbySource, TrendsSource, and ClimateSource are
// the per-tab pass-through providers. Any of them may be nil in Deps, in
// which case the corresponding endpoint reports 503.
type NewsSource interface {
	CrimeHeadlines(ctx context.Context, loc pulse.Location) ([]providers.Article, error)
}

type PlacesSource interface {
	TopAttractions(ctx context.Context, city string) ([]providers.Place, error)
}

type NearbySource interface {
	Nearby(ctx context.Context, query string, lat, lon float64) ([]providers.NearbyPlace, error)
}

type TrendsSource interface {
	InterestOverTime(ctx context.Context, city string) ([]providers.TrendPoint, error)
}

type ClimateSource interface {
	MonthlyClimate(ctx context.Context, city string) ([]providers.MonthlySummary, error)
}

// Deps bundles the collaborators the routes are wired to.
type Deps struct {
	Pulse    PulseService
	Resolver CityResolver
	Chat     ChatService
	News     NewsSource
	Places   PlacesSource
	Nearby   NearbySource
	Trends   TrendsSource
	Climate  ClimateSource
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/pulse", func(c *fiber.Ctx) error {
		loc, err := resolveCity(c, deps.Resolver)
		if err != nil {
			return err
		}

		snapshot, err := deps.Pulse.ComputePulse(c.Context(), loc)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute pulse")
		}
		return c.JSON(snapshot)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		loc, err := resolveCity(c, deps.Resolver)
		if err != nil {
			return err
		}

		weather, air := deps.Pulse.Weather(c.Context(), loc)
		return c.JSON(fiber.Map{
			"location":    loc,
			"weather":     weather,
			"air_quality": airView(air),
		})
	})

	v1.Get("/weather/monthly", func(c *fiber.Ctx) error {
		if deps.Climate == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "monthly climate provider not configured")
		}
		q, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		months, err := deps.Climate.MonthlyClimate(c.Context(), q.City)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch monthly climate")
		}
		return c.JSON(fiber.Map{"city": q.City, "months": months})
	})

	v1.Get("/air", func(c *fiber.Ctx) error {
		loc, err := resolveCity(c, deps.Resolver)
		if err != nil {
			return err
		}

		_, air := deps.Pulse.Weather(c.Context(), loc)
		return c.JSON(fiber.Map{
			"location":    loc,
			"air_quality": airView(air),
		})
	})

	v1.Get("/news/crime", func(c *fiber.Ctx) error {
		if deps.News == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "news provider not configured")
		}
		loc, err := resolveCity(c, deps.Resolver)
		if err != nil {
			return err
		}

		articles, err := deps.News.CrimeHeadlines(c.Context(), loc)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch crime news")
		}
		return c.JSON(fiber.Map{"city": loc.City, "articles": articles})
	})

	v1.Get("/tourist", func(c *fiber.Ctx) error {
		q, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// Places and trends degrade independently; a failed section is
		// reported inline rather than failing the whole tab.
		resp := fiber.Map{"city": q.City}
		if deps.Places != nil {
			if places, err := deps.Places.TopAttractions(c.Context(), q.City); err != nil {
				resp["places_error"] = err.Error()
			} else {
				resp["places"] = places
			}
		}
		if deps.Trends != nil {
			if trends, err := deps.Trends.InterestOverTime(c.Context(), q.City); err != nil {
				resp["trends_error"] = err.Error()
			} else {
				resp["trends"] = trends
			}
		}
		return c.JSON(resp)
	})

	v1.Get("/places/nearby", func(c *fiber.Ctx) error {
		if deps.Nearby == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "nearby search provider not configured")
		}

		var q nearbyQuery
		q.City = c.Query("city")
		q.Query = c.Query("q")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := resolve(c, deps.Resolver, q.City)
		if err != nil {
			return err
		}

		places, err := deps.Nearby.Nearby(c.Context(), q.Query, loc.Lat, loc.Lon)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to search nearby places")
		}
		return c.JSON(fiber.Map{"location": loc, "places": places})
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		var q searchQuery
		q.Query = c.Query("q")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		matches, err := deps.Resolver.Search(c.Context(), q.Query)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "city search failed")
		}
		return c.JSON(fiber.Map{"cities": matches})
	})

	v1.Post("/chat", func(c *fiber.Ctx) error {
		if deps.Chat == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "chat provider not configured")
		}

		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sessionID, reply, history, err := deps.Chat.Ask(c.Context(), req.SessionID, req.Message)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "chat failed")
		}
		return c.JSON(fiber.Map{
			"session_id": sessionID,
			"reply":      reply,
			"history":    history,
		})
	})
}

// cityQuery holds the city query parameter shared by most endpoints.
type cityQuery struct {
	City string `validate:"required"`
}

type searchQuery struct {
	Query string `validate:"required"`
}

type nearbyQuery struct {
	City  string `validate:"required"`
	Query string `validate:"required"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	var q cityQuery
	q.City = c.Query("city")
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// resolveCity binds and resolves the city parameter, translating an
// unresolvable city into a 404 rather than a silent default.
func resolveCity(c *fiber.Ctx, resolver CityResolver) (pulse.Location, error) {
	q, err := parseCityQuery(c)
	if err != nil {
		return pulse.Location{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return resolve(c, resolver, q.City)
}

func resolve(c *fiber.Ctx, resolver CityResolver, city string) (pulse.Location, error) {
	loc, err := resolver.Resolve(c.Context(), city)
	if err != nil {
		if errors.Is(err, geocode.ErrCityNotFound) {
			return pulse.Location{}, fiber.NewError(fiber.StatusNotFound, "city not found")
		}
		return pulse.Location{}, fiber.NewError(fiber.StatusBadGateway, "failed to resolve city")
	}
	return loc, nil
}

func airView(air pulse.AirQualityReading) fiber.Map {
	return fiber.Map{
		"aqi":        air.AQI,
		"label":      air.Describe(),
		"components": air.Components,
	}
}
