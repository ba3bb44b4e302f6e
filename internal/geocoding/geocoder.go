// Package geocoding resolves listing addresses to coordinates through a
// Nominatim compatible search endpoint, with a JSON file cache.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"roomify/server/config"
)

var ErrNoResults = errors.New("no geocoding results")

const cacheFileName = "geocode_cache.json"

type Geocoder struct {
	logger       *logrus.Logger
	cacheDir     string
	cache        map[string][]float64
	cacheLock    sync.RWMutex
	client       *http.Client
	baseURL      string
	countryCodes string
	userAgent    string
	delay        time.Duration

	// Serializes outbound requests so the delay is honoured
	requestLock sync.Mutex
	lastRequest time.Time
}

func NewGeocoder(cfg config.GeocodingConfig, logger *logrus.Logger) *Geocoder {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "roomify", "geocode_cache")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logger.WithError(err).Warn("Could not create geocode cache directory")
	}

	g := &Geocoder{
		logger:       logger,
		cacheDir:     cacheDir,
		cache:        make(map[string][]float64),
		client:       &http.Client{Timeout: 10 * time.Second},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		countryCodes: cfg.CountryCodes,
		userAgent:    cfg.UserAgent,
		delay:        cfg.Delay,
	}
	g.loadCache()
	return g
}

func (g *Geocoder) loadCache() {
	data, err := os.ReadFile(filepath.Join(g.cacheDir, cacheFileName))
	if err != nil {
		if !os.IsNotExist(err) {
			g.logger.WithError(err).Warn("Could not load geocode cache")
		}
		return
	}

	if err := json.Unmarshal(data, &g.cache); err != nil {
		g.logger.WithError(err).Error("Failed to parse geocode cache")
		return
	}
	g.logger.Infof("Loaded %d cached addresses", len(g.cache))
}

// Save writes the cache to disk
func (g *Geocoder) Save() error {
	g.cacheLock.RLock()
	data, err := json.Marshal(g.cache)
	g.cacheLock.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal geocode cache: %w", err)
	}

	if err := os.WriteFile(filepath.Join(g.cacheDir, cacheFileName), data, 0644); err != nil {
		return fmt.Errorf("failed to save geocode cache: %w", err)
	}
	return nil
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func cacheKey(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Geocode returns the latitude and longitude of a free-form address
func (g *Geocoder) Geocode(ctx context.Context, address string) (float64, float64, error) {
	key := cacheKey(address)
	if key == "" {
		return 0, 0, fmt.Errorf("empty address")
	}

	g.cacheLock.RLock()
	coords, ok := g.cache[key]
	g.cacheLock.RUnlock()
	if ok {
		if len(coords) != 2 {
			return 0, 0, fmt.Errorf("invalid cached coordinates for %q", address)
		}
		g.logger.WithFields(logrus.Fields{
			"address": address,
			"source":  "cache",
		}).Debug("Found coordinates in cache")
		return coords[0], coords[1], nil
	}

	lat, lon, err := g.search(ctx, address)
	if err != nil {
		return 0, 0, err
	}

	g.cacheLock.Lock()
	g.cache[key] = []float64{lat, lon}
	g.cacheLock.Unlock()
	return lat, lon, nil
}

func (g *Geocoder) search(ctx context.Context, address string) (float64, float64, error) {
	g.requestLock.Lock()
	defer g.requestLock.Unlock()

	// Respect Nominatim's usage policy of one request per second
	if wait := g.delay - time.Since(g.lastRequest); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		}
	}
	g.lastRequest = time.Now()

	params := url.Values{
		"q":      []string{address},
		"format": []string{"json"},
		"limit":  []string{"1"},
	}
	if g.countryCodes != "" {
		params.Set("countrycodes", g.countryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("address", address).Error("Geocoding request failed")
		return 0, 0, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result) == 0 {
		g.logger.WithField("address", address).Warn("No results found")
		return 0, 0, fmt.Errorf("%w for address: %s", ErrNoResults, address)
	}

	lat, err := strconv.ParseFloat(result[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", result[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(result[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", result[0].Lon, err)
	}

	g.logger.WithFields(logrus.Fields{
		"address":   address,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded address")
	return lat, lon, nil
}
