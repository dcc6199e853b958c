package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/soyeahso/voicebot/internal/logging"
)

const (
	defaultGeonamesURL = "http://api.geonames.org/searchJSON"
	defaultIPInfoURL   = "https://ipinfo.io/json"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	weatherUnavailable = "Ingen vejrudsigt tilgængelig."
	weatherOffline     = "Ingen vejrudsigt, da internettet ikke er tilgængeligt."
)

// WeatherCodes maps WMO weather codes to Danish descriptions.
var WeatherCodes = map[int]string{
	0:  "Klar himmel",
	1:  "Næsten klar himmel",
	2:  "Delvist skyet",
	3:  "Overskyet",
	45: "Tåge",
	48: "Tåge",
	51: "Lette byger",
	53: "Moderate byger",
	55: "Tætte byger",
	56: "Lette isslag",
	57: "Tætte isslag",
	61: "Lette regnbyger",
	63: "Moderate regnbyger",
	65: "Tunge regnbyger",
	66: "Lette isslag",
	67: "Tunge isslag",
	71: "Lette snebyger",
	73: "Moderate snebyger",
	75: "Tunge snebyger",
	77: "Snefnug",
	80: "Lette regnbyger",
	81: "Moderate regnbyger",
	82: "Tunge regnbyger",
	85: "Lette snebyger",
	86: "Tunge snebyger",
	95: "Tordenvejr",
	96: "Tordenvejr med let hagl",
	99: "Tordenvejr med tungt hagl",
}

var forecastIntervals = []struct {
	name       string
	start, end int
}{
	{"I dag kl. 1-12", 0, 12},
	{"I dag kl. 13-24", 12, 24},
	{"I morgen kl. 1-12", 24, 36},
	{"I morgen kl. 13-24", 36, 48},
}

// Weather looks up a two-day hourly forecast from open-meteo.
type Weather struct {
	HTTP     *http.Client
	Cache    Cache
	Username string
	TTL      time.Duration
	Log      *logging.Logger

	GeonamesURL string
	IPInfoURL   string
	ForecastURL string
}

type weatherParams struct {
	Location string `json:"location"`
}

// Spec returns the get_weather tool.
func (w *Weather) Spec() Spec {
	return Spec{
		Name: "get_weather",
		Description: "Hent vejrudsigten for i dag og i morgen. Lad location være en tom " +
			"streng for at bruge den nuværende placering.",
		Parameters: objectSchema(map[string]any{
			"location": map[string]any{"type": "string"},
		}),
		Handler: Typed(func(ctx context.Context, _ State, p weatherParams) (Result, error) {
			report, err := w.Forecast(ctx, p.Location)
			if err != nil {
				logOrNop(w.Log).Warn().Err(err).Str("location", p.Location).Msg("weather lookup failed")
				var opErr *net.OpError
				if errors.As(err, &opErr) {
					return Result{Message: weatherOffline}, nil
				}
				return Result{Message: weatherUnavailable}, nil
			}
			return Result{Message: report}, nil
		}),
	}
}

type coordinates struct {
	Name     string
	Lat, Lng string
}

// Forecast returns the rendered forecast for location. An empty location
// uses the IP address of the machine.
func (w *Weather) Forecast(ctx context.Context, location string) (string, error) {
	var (
		coords coordinates
		err    error
	)
	location = strings.TrimSpace(location)
	if location == "" {
		coords, err = w.locateByIP(ctx)
		if err != nil {
			return "", err
		}
		logOrNop(w.Log).Info().Str("location", coords.Name).Msg("no location given, using IP location")
	}

	key := "weather:" + cacheName(location)
	if location == "" {
		key = "weather:" + cacheName(coords.Name)
	}
	if w.Cache != nil {
		if body, ok, err := w.Cache.CacheGet(key); err == nil && ok {
			logOrNop(w.Log).Debug().Str("key", key).Msg("weather cache hit")
			return string(body), nil
		}
	}

	if location != "" {
		coords, err = w.geocode(ctx, location)
		if err != nil {
			return "", err
		}
	}

	var fc forecastResponse
	q := url.Values{
		"latitude":        {coords.Lat},
		"longitude":       {coords.Lng},
		"wind_speed_unit": {"ms"},
		"hourly":          {"weather_code,temperature_2m,precipitation,wind_speed_10m"},
		"forecast_days":   {"2"},
	}
	if err := w.getJSON(ctx, orDefault(w.ForecastURL, defaultForecastURL)+"?"+q.Encode(), &fc); err != nil {
		return "", fmt.Errorf("forecast: %w", err)
	}

	name := location
	if name == "" {
		name = coords.Name
	}
	report := renderForecast(name, fc.Hourly)
	if w.Cache != nil && w.TTL > 0 {
		if err := w.Cache.CachePut(key, []byte(report), w.TTL); err != nil {
			logOrNop(w.Log).Warn().Err(err).Msg("caching weather report")
		}
	}
	return report, nil
}

func (w *Weather) geocode(ctx context.Context, location string) (coordinates, error) {
	var res struct {
		Geonames []struct {
			Name        string `json:"name"`
			CountryName string `json:"countryName"`
			Lat         string `json:"lat"`
			Lng         string `json:"lng"`
		} `json:"geonames"`
		Status *struct {
			Message string `json:"message"`
		} `json:"status"`
	}
	q := url.Values{"q": {location}, "maxRows": {"1"}, "username": {w.Username}}
	if err := w.getJSON(ctx, orDefault(w.GeonamesURL, defaultGeonamesURL)+"?"+q.Encode(), &res); err != nil {
		return coordinates{}, fmt.Errorf("geonames: %w", err)
	}
	if res.Status != nil {
		return coordinates{}, fmt.Errorf("geonames: %s", res.Status.Message)
	}
	if len(res.Geonames) == 0 {
		return coordinates{}, fmt.Errorf("geonames: no match for %q", location)
	}
	g := res.Geonames[0]
	return coordinates{Name: g.Name, Lat: g.Lat, Lng: g.Lng}, nil
}

func (w *Weather) locateByIP(ctx context.Context) (coordinates, error) {
	var res struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
		Loc     string `json:"loc"`
	}
	if err := w.getJSON(ctx, orDefault(w.IPInfoURL, defaultIPInfoURL), &res); err != nil {
		return coordinates{}, fmt.Errorf("ip location: %w", err)
	}
	lat, lng, ok := strings.Cut(res.Loc, ",")
	if !ok {
		return coordinates{}, fmt.Errorf("ip location: malformed loc %q", res.Loc)
	}
	var parts []string
	for _, p := range []string{res.City, res.Region, res.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return coordinates{Name: strings.Join(parts, ", "), Lat: lat, Lng: lng}, nil
}

func (w *Weather) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := w.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}


type forecastResponse struct {
	Hourly hourly `json:"hourly"`
}

type hourly struct {
	WeatherCode   []*float64 `json:"weather_code"`
	Temperature   []*float64 `json:"temperature_2m"`
	Precipitation []*float64 `json:"precipitation"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
}

func renderForecast(location string, h hourly) string {
	variables := []struct {
		name   string
		values []*float64
		render func(float64) string
	}{
		{"Vejrtype", h.WeatherCode, weatherCode},
		{"Temperatur (i celcius)", h.Temperature, roundValue},
		{"Nedbør (i millimeter)", h.Precipitation, roundValue},
		{"Vindhastighed (i meter per sekund)", h.WindSpeed, roundValue},
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Vejrdata for %s:\n\n", location)
	for _, v := range variables {
		sb.WriteString(v.name + ":\n")
		if len(v.values) == 0 {
			sb.WriteString("Ingen data tilgængelig.\n\n")
			continue
		}
		rendered := make([]string, len(v.values))
		for i, x := range v.values {
			if x == nil {
				rendered[i] = "ukendt"
				continue
			}
			rendered[i] = v.render(*x)
		}
		for _, iv := range forecastIntervals {
			start, end := min(iv.start, len(rendered)), min(iv.end, len(rendered))
			fmt.Fprintf(&sb, "%s: %s\n", iv.name, strings.Join(rendered[start:end], ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func weatherCode(x float64) string {
	if s, ok := WeatherCodes[int(x)]; ok {
		return s
	}
	return "Ukendt vejr"
}

func roundValue(x float64) string {
	return strconv.Itoa(int(math.RoundToEven(x)))
}

var cacheNameSep = regexp.MustCompile(`[ ,_]+`)

func cacheName(location string) string {
	return strings.ToLower(cacheNameSep.ReplaceAllString(location, "-"))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
