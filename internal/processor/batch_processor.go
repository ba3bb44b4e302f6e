// Package processor loads directory snapshots into the local user and
// property tables that matching and ranking read from.
package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"roomify/server/internal/database"
	"roomify/server/internal/models"
)

// Transactor runs fn in one transaction
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Geocoder resolves an address to latitude and longitude
type Geocoder interface {
	Geocode(ctx context.Context, address string) (float64, float64, error)
}

// Result counts what one import wrote
type Result struct {
	Users         int `json:"users"`
	Properties    int `json:"properties"`
	Geocoded      int `json:"geocoded"`
	GeocodeFailed int `json:"geocode_failed"`
}

// BatchProcessor upserts snapshot records in fixed size batches, one
// transaction per batch
type BatchProcessor struct {
	db        Transactor
	geocoder  Geocoder
	batchSize int
	logger    *logrus.Logger
}

// NewBatchProcessor creates a new batch processor instance. geocoder may
// be nil, in which case properties without coordinates are stored as is.
func NewBatchProcessor(db Transactor, geocoder Geocoder, batchSize int, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchProcessor{
		db:        db,
		geocoder:  geocoder,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Process validates the whole snapshot before writing anything, then
// upserts users followed by properties. A failed batch stops the import,
// earlier batches stay committed.
func (p *BatchProcessor) Process(ctx context.Context, snap *Snapshot) (*Result, error) {
	users, properties, err := snap.records()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if p.geocoder != nil {
		p.geocode(ctx, properties, result)
	}

	for i, batch := range batches(users, p.batchSize) {
		err := p.processBatch(ctx, "users", i, func(tx *gorm.DB) error {
			for j := range batch {
				if err := database.SaveUser(tx, &batch[j]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return result, err
		}
		result.Users += len(batch)
	}

	for i, batch := range batches(properties, p.batchSize) {
		err := p.processBatch(ctx, "properties", i, func(tx *gorm.DB) error {
			for j := range batch {
				if err := database.SaveProperty(tx, &batch[j]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return result, err
		}
		result.Properties += len(batch)
	}

	p.logger.WithFields(logrus.Fields{
		"users":          result.Users,
		"properties":     result.Properties,
		"geocoded":       result.Geocoded,
		"geocode_failed": result.GeocodeFailed,
	}).Info("Directory snapshot imported")
	return result, nil
}

// geocode fills in coordinates for properties that have an address but no
// location. Failures leave the property unlocated.
func (p *BatchProcessor) geocode(ctx context.Context, properties []models.Property, result *Result) {
	for i := range properties {
		property := &properties[i]
		if property.Latitude != nil || property.Address == "" {
			continue
		}
		lat, lon, err := p.geocoder.Geocode(ctx, property.Address)
		if err != nil {
			p.logger.WithError(err).WithFields(logrus.Fields{
				"property_id": property.ID,
				"address":     property.Address,
			}).Warn("Failed to geocode property")
			result.GeocodeFailed++
			continue
		}
		property.Latitude = &lat
		property.Longitude = &lon
		result.Geocoded++
	}
}

func (p *BatchProcessor) processBatch(ctx context.Context, kind string, index int, fn func(tx *gorm.DB) error) error {
	if err := p.db.Transaction(ctx, fn); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"kind":  kind,
			"batch": index,
		}).Error("Batch processing failed")
		return fmt.Errorf("failed to process %s batch %d: %w", kind, index, err)
	}
	p.logger.Debugf("Processed %s batch %d", kind, index)
	return nil
}

func batches[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
